package repository

import (
	"context"
	"time"

	"articly/internal/domain"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email, nil when absent
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create creates a new user
	Create(ctx context.Context, user *domain.User) error
}

// ArticleRepository defines the interface for article data operations
type ArticleRepository interface {
	// Create creates a new article
	Create(ctx context.Context, article *domain.Article) error

	// GetByID retrieves an article by ID, including soft-deleted rows
	GetByID(ctx context.Context, id string) (*domain.Article, error)

	// Update updates title/content/category/status of an existing article
	Update(ctx context.Context, article *domain.Article) error

	// SoftDelete marks an article as deleted without removing the row
	SoftDelete(ctx context.Context, id string, deletedAt time.Time) error

	// ListPublished retrieves published, non-deleted articles matching the filter
	ListPublished(ctx context.Context, filter domain.ArticleFilter, page, size int) ([]*domain.Article, int64, error)

	// ListByAuthor retrieves an author's articles, optionally including deleted ones
	ListByAuthor(ctx context.Context, authorID string, page, size int, showDeleted bool) ([]*domain.Article, int64, error)
}

// ReadLogRepository defines the interface for the append-only read event log
type ReadLogRepository interface {
	// Append stores one accepted read event
	Append(ctx context.Context, event *domain.ReadLog) error

	// HasRecentRead reports whether the reader has a logged read of the
	// article at or after the since instant
	HasRecentRead(ctx context.Context, articleID, readerID string, since time.Time) (bool, error)

	// GroupCountByArticle counts read events per article within [start, end)
	GroupCountByArticle(ctx context.Context, start, end time.Time) ([]domain.ArticleReadCount, error)

	// CountForArticle counts read events for one article within [start, end)
	CountForArticle(ctx context.Context, articleID string, start, end time.Time) (int64, error)
}

// DailyStatsRepository defines the interface for the per-article-per-day counter store
type DailyStatsRepository interface {
	// Upsert writes the view count for (article, day), replacing any previous value
	Upsert(ctx context.Context, articleID string, day time.Time, viewCount int64) error

	// GetByArticleAndDate retrieves one daily stat row, nil when absent
	GetByArticleAndDate(ctx context.Context, articleID string, day time.Time) (*domain.DailyStat, error)

	// SumViewsByArticle totals the aggregated views across all days for an article
	SumViewsByArticle(ctx context.Context, articleID string) (int64, error)

	// ListForAuthor retrieves an author's articles with their all-time view totals
	ListForAuthor(ctx context.Context, authorID string, page, size int) ([]*domain.ArticleViews, int64, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	User       UserRepository
	Article    ArticleRepository
	ReadLog    ReadLogRepository
	DailyStats DailyStatsRepository
}
