package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"articly/internal/domain"
	"articly/internal/service"
	apperrors "articly/pkg/errors"
	"articly/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// UserContextKey is the key for validated auth claims in context
	UserContextKey ContextKey = "user"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// ClaimsFromContext extracts validated auth claims from the request context
func ClaimsFromContext(ctx context.Context) (*domain.AuthClaims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*domain.AuthClaims)
	return claims, ok
}

// Auth creates an authentication middleware requiring a valid bearer token
func Auth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, appErr := claimsFromRequest(r, authService, logger)
			if appErr != nil {
				writeErrorResponse(w, appErr, logger)
				return
			}
			if claims == nil {
				writeErrorResponse(w, apperrors.NewAuthenticationError("Authorization header is required"), logger)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches identity when a valid bearer token is present and
// continues anonymously otherwise. A malformed or expired token never fails
// the request; the reader is simply treated as a guest.
func OptionalAuth(authService service.AuthService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, appErr := claimsFromRequest(r, authService, logger)
			if appErr != nil {
				logger.WithField("reason", appErr.Message).Debug("Optional auth failed, continuing as guest")
				next.ServeHTTP(w, r)
				return
			}

			if claims != nil {
				ctx := context.WithValue(r.Context(), UserContextKey, claims)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects authenticated requests whose role does not match
func RequireRole(role domain.Role, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeErrorResponse(w, apperrors.NewAuthenticationError("Authentication required"), logger)
				return
			}
			if claims.Role != role {
				writeErrorResponse(w, apperrors.NewAuthorizationError("Insufficient role"), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// claimsFromRequest extracts and validates the bearer token, returning nil
// claims (and nil error) when no Authorization header is present
func claimsFromRequest(r *http.Request, authService service.AuthService, logger *logger.Logger) (*domain.AuthClaims, *apperrors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, apperrors.NewAuthenticationError("Invalid authorization header format")
	}

	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return nil, apperrors.NewAuthenticationError("Token is required")
	}

	claims, err := authService.ValidateToken(r.Context(), token)
	if err != nil {
		logger.WithError(err).Debug("Token validation failed")
		return nil, apperrors.NewAuthenticationError("Invalid or expired token")
	}

	return claims, nil
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, appErr *apperrors.AppError, logger *logger.Logger) {
	response := &apperrors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.WithError(err).Error("Failed to encode error response")
	}
}
