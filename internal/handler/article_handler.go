package handler

import (
	"net"
	"net/http"
	"strconv"

	"articly/internal/domain"
	"articly/internal/middleware"
	"articly/internal/service"
	"articly/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// ArticleHandler handles article CRUD and the public read path
type ArticleHandler struct {
	articleService service.ArticleService
	tracker        service.ReadTracker
	logger         *logger.Logger
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(articleService service.ArticleService, tracker service.ReadTracker, logger *logger.Logger) *ArticleHandler {
	return &ArticleHandler{
		articleService: articleService,
		tracker:        tracker,
		logger:         logger,
	}
}

// Create handles POST /api/articles
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())

	var req domain.CreateArticleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	article, err := h.articleService.Create(r.Context(), claims.UserID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, http.StatusCreated, article, "")
}

// Update handles PUT /api/articles/{id}
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req domain.UpdateArticleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	article, err := h.articleService.Update(r.Context(), id, claims.UserID, &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, article, "")
}

// Delete handles DELETE /api/articles/{id}
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.articleService.SoftDelete(r.Context(), id, claims.UserID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, nil, "Article deleted")
}

// ListMine handles GET /api/articles/me
func (h *ArticleHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	page, size := pageParams(r)
	showDeleted := r.URL.Query().Get("showDeleted") == "true"

	result, err := h.articleService.ListMine(r.Context(), claims.UserID, page, size, showDeleted)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, result, "")
}

// ListPublished handles GET /api/articles — the public news feed
func (h *ArticleHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	filter := domain.ArticleFilter{
		Category:   r.URL.Query().Get("category"),
		AuthorName: r.URL.Query().Get("author"),
		TitleQuery: r.URL.Query().Get("q"),
	}

	result, err := h.articleService.ListPublished(r.Context(), filter, page, size)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, http.StatusOK, result, "")
}

// Get handles GET /api/articles/{id}: returns the article and fires read
// tracking in the background. Tracking can never delay or fail this response.
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	article, err := h.articleService.GetPublic(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	readerID := ""
	guestKey := ""
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		readerID = claims.UserID
	} else {
		guestKey = service.GuestFingerprint(realIPAddress(r), r.UserAgent())
	}
	h.tracker.TrackAsync(id, readerID, guestKey)

	writeSuccess(w, h.logger, http.StatusOK, article, "")
}

// RegisterRoutes registers article routes with the router
func (h *ArticleHandler) RegisterRoutes(r chi.Router, authService service.AuthService) {
	r.Route("/articles", func(r chi.Router) {
		r.Get("/", h.ListPublished)

		// Author-only management endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService, h.logger))
			r.Use(middleware.RequireRole(domain.RoleAuthor, h.logger))

			r.Post("/", h.Create)
			r.Get("/me", h.ListMine)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})

		// Public read with optional identity for dedup
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(authService, h.logger))
			r.Get("/{id}", h.Get)
		})
	})
}

// pageParams parses page/size query parameters with defaults
func pageParams(r *http.Request) (int, int) {
	page := 1
	size := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v > 0 {
		size = v
	}
	return page, size
}

// realIPAddress extracts the client IP address from the request
func realIPAddress(r *http.Request) string {
	headers := []string{
		"CF-Connecting-IP", // Cloudflare
		"X-Forwarded-For",  // Standard proxy header
		"X-Real-IP",        // Nginx proxy
	}

	for _, header := range headers {
		if ip := r.Header.Get(header); ip != "" {
			// X-Forwarded-For can contain multiple IPs, take the first one
			if header == "X-Forwarded-For" {
				if firstIP := firstIP(ip); firstIP != "" {
					return firstIP
				}
				continue
			}
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// firstIP extracts the first IP from a comma-separated list
func firstIP(ips string) string {
	for i, char := range ips {
		if char == ',' || char == ' ' {
			return ips[:i]
		}
	}
	return ips
}
