package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"articly/internal/domain"
	"articly/internal/repository"
	apperrors "articly/pkg/errors"
	"articly/pkg/logger"
	"articly/pkg/redis"

	"github.com/google/uuid"
)

const (
	maxTitleLength   = 150
	minContentLength = 50
)

// articleService handles article CRUD with ownership checks. Public reads go
// through a cache-aside Redis layer when a client is configured; cache errors
// are logged and the database serves the request.
type articleService struct {
	articles repository.ArticleRepository
	cache    *redis.Client // nil when Redis is not configured
	logger   *logger.Logger
}

// NewArticleService creates a new article service
func NewArticleService(articles repository.ArticleRepository, cache *redis.Client, log *logger.Logger) ArticleService {
	return &articleService{
		articles: articles,
		cache:    cache,
		logger:   log,
	}
}

// Create creates an article owned by the author
func (s *articleService) Create(ctx context.Context, authorID string, req *domain.CreateArticleRequest) (*domain.Article, error) {
	if err := validateArticleFields(req.Title, req.Content, req.Category); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if status != domain.StatusDraft && status != domain.StatusPublished {
		return nil, apperrors.NewValidationError("status must be DRAFT or PUBLISHED", nil)
	}

	article := &domain.Article{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Category:  strings.TrimSpace(req.Category),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, apperrors.NewInternalError("failed to create article", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"article_id": article.ID,
		"author_id":  authorID,
	}).Info("Article created")

	return article, nil
}

// Update applies changes to an article owned by the author
func (s *articleService) Update(ctx context.Context, id, authorID string, req *domain.UpdateArticleRequest) (*domain.Article, error) {
	article, err := s.getOwned(ctx, id, authorID, "You can only edit your own articles")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		article.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if req.Category != nil {
		article.Category = strings.TrimSpace(*req.Category)
	}
	if req.Status != nil {
		if *req.Status != domain.StatusDraft && *req.Status != domain.StatusPublished {
			return nil, apperrors.NewValidationError("status must be DRAFT or PUBLISHED", nil)
		}
		article.Status = *req.Status
	}

	if err := validateArticleFields(article.Title, article.Content, article.Category); err != nil {
		return nil, err
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.NewInternalError("failed to update article", err)
	}

	s.invalidateCachedArticle(ctx, article.ID)

	return article, nil
}

// SoftDelete marks an article owned by the author as deleted
func (s *articleService) SoftDelete(ctx context.Context, id, authorID string) error {
	if _, err := s.getOwned(ctx, id, authorID, "You can only delete your own articles"); err != nil {
		return err
	}

	if err := s.articles.SoftDelete(ctx, id, time.Now().UTC()); err != nil {
		return apperrors.NewInternalError("failed to delete article", err)
	}

	s.invalidateCachedArticle(ctx, id)

	s.logger.WithFields(map[string]interface{}{
		"article_id": id,
		"author_id":  authorID,
	}).Info("Article soft-deleted")

	return nil
}

// GetPublic retrieves an article for public viewing, preferring the cache
func (s *articleService) GetPublic(ctx context.Context, id string) (*domain.Article, error) {
	if cached := s.cachedArticle(ctx, id); cached != nil {
		return cached, nil
	}

	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load article", err)
	}
	if article == nil || article.DeletedAt != nil {
		return nil, apperrors.NewNotFoundError("Article not found")
	}

	s.cacheArticle(ctx, article)

	return article, nil
}

// cachedArticle returns the cached article payload, or nil on miss or any
// cache error
func (s *articleService) cachedArticle(ctx context.Context, id string) *domain.Article {
	if s.cache == nil {
		return nil
	}

	payload, err := s.cache.Get(ctx, s.cache.KeyBuilder.KeyArticle(id))
	if err != nil {
		return nil
	}

	article := &domain.Article{}
	if err := json.Unmarshal([]byte(payload), article); err != nil {
		s.logger.WithError(err).WithField("article_id", id).Warn("Failed to decode cached article, serving from database")
		return nil
	}

	return article
}

// cacheArticle stores the article payload; failures are logged and ignored
func (s *articleService) cacheArticle(ctx context.Context, article *domain.Article) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(article)
	if err != nil {
		s.logger.WithError(err).WithField("article_id", article.ID).Warn("Failed to encode article for cache")
		return
	}

	if err := s.cache.Set(ctx, s.cache.KeyBuilder.KeyArticle(article.ID), payload, redis.TTLArticle); err != nil {
		s.logger.WithError(err).WithField("article_id", article.ID).Warn("Failed to cache article")
	}
}

// invalidateCachedArticle drops the cached payload after a write so readers
// never see a stale edit for the full TTL
func (s *articleService) invalidateCachedArticle(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, s.cache.KeyBuilder.KeyArticle(id)); err != nil {
		s.logger.WithError(err).WithField("article_id", id).Warn("Failed to invalidate cached article")
	}
}

// ListPublished lists published articles matching the filter
func (s *articleService) ListPublished(ctx context.Context, filter domain.ArticleFilter, page, size int) (*domain.ArticlePage, error) {
	page, size = normalizePage(page, size)

	articles, total, err := s.articles.ListPublished(ctx, filter, page, size)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list articles", err)
	}

	return &domain.ArticlePage{
		Data: articles,
		Meta: domain.PageMeta{Total: total, Page: page, Limit: size},
	}, nil
}

// ListMine lists the author's own articles
func (s *articleService) ListMine(ctx context.Context, authorID string, page, size int, showDeleted bool) (*domain.ArticlePage, error) {
	page, size = normalizePage(page, size)

	articles, total, err := s.articles.ListByAuthor(ctx, authorID, page, size, showDeleted)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list author articles", err)
	}

	return &domain.ArticlePage{
		Data: articles,
		Meta: domain.PageMeta{Total: total, Page: page, Limit: size},
	}, nil
}

// getOwned loads an article and verifies ownership
func (s *articleService) getOwned(ctx context.Context, id, authorID, forbiddenMsg string) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load article", err)
	}
	if article == nil || article.DeletedAt != nil {
		return nil, apperrors.NewNotFoundError("Article not found")
	}
	if article.AuthorID != authorID {
		return nil, apperrors.NewAuthorizationError(forbiddenMsg)
	}

	return article, nil
}

// validateArticleFields checks the shared title/content/category constraints
func validateArticleFields(title, content, category string) error {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("title must be between 1 and %d characters", maxTitleLength), nil)
	}
	if len(content) < minContentLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("content must be at least %d characters", minContentLength), nil)
	}
	if strings.TrimSpace(category) == "" {
		return apperrors.NewValidationError("category is required", nil)
	}
	return nil
}

// normalizePage clamps pagination parameters to sane bounds
func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	return page, size
}
