package service

import (
	"context"
	"time"

	"articly/internal/domain"
)

// AuthService defines the interface for authentication operations
type AuthService interface {
	// Signup registers a new user with a hashed password
	Signup(ctx context.Context, req *domain.SignupRequest) (*domain.User, error)

	// Login verifies credentials and issues a JWT
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)

	// ValidateToken validates a JWT and returns its claims
	ValidateToken(ctx context.Context, token string) (*domain.AuthClaims, error)
}

// ArticleService defines the interface for article CRUD operations
type ArticleService interface {
	// Create creates an article owned by the author
	Create(ctx context.Context, authorID string, req *domain.CreateArticleRequest) (*domain.Article, error)

	// Update applies changes to an article owned by the author
	Update(ctx context.Context, id, authorID string, req *domain.UpdateArticleRequest) (*domain.Article, error)

	// SoftDelete marks an article owned by the author as deleted
	SoftDelete(ctx context.Context, id, authorID string) error

	// GetPublic retrieves an article for public viewing; deleted articles are not found
	GetPublic(ctx context.Context, id string) (*domain.Article, error)

	// ListPublished lists published articles matching the filter
	ListPublished(ctx context.Context, filter domain.ArticleFilter, page, size int) (*domain.ArticlePage, error)

	// ListMine lists the author's own articles
	ListMine(ctx context.Context, authorID string, page, size int, showDeleted bool) (*domain.ArticlePage, error)
}

// ReadTracker defines the interface for read event tracking
type ReadTracker interface {
	// Start launches the background tracking workers
	Start(ctx context.Context) error

	// Stop shuts down the background tracking workers
	Stop(ctx context.Context) error

	// Track decides whether the read is new and records it; returns whether it
	// was accepted
	Track(ctx context.Context, articleID, readerID, guestKey string) (bool, error)

	// TrackAsync dispatches a tracking task without blocking the caller; the
	// outcome is only observed in logs
	TrackAsync(articleID, readerID, guestKey string)
}

// Aggregator defines the interface for daily read aggregation
type Aggregator interface {
	// AggregateDay recomputes daily stats for the given UTC day and returns the
	// number of articles touched
	AggregateDay(ctx context.Context, day time.Time) (int, error)

	// AggregateYesterday aggregates the UTC day that most recently ended
	AggregateYesterday(ctx context.Context) (int, error)

	// Dashboard returns the author's articles with all-time view totals
	Dashboard(ctx context.Context, authorID string, page, size int) (*domain.DashboardPage, error)

	// ArticleStats returns one article's aggregated total plus today's
	// not-yet-aggregated reads; owner only
	ArticleStats(ctx context.Context, articleID, authorID string) (*domain.ArticleStats, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth      AuthService
	Articles  ArticleService
	Tracker   ReadTracker
	Analytics Aggregator
}
