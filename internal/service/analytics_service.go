package service

import (
	"context"
	"fmt"
	"time"

	"articly/internal/domain"
	"articly/internal/repository"
	apperrors "articly/pkg/errors"
	"articly/pkg/logger"
)

// analyticsService folds accepted read events into per-article-per-day counters
type analyticsService struct {
	readLogs repository.ReadLogRepository
	stats    repository.DailyStatsRepository
	articles repository.ArticleRepository
	logger   *logger.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(readLogs repository.ReadLogRepository, stats repository.DailyStatsRepository, articles repository.ArticleRepository, log *logger.Logger) Aggregator {
	return &analyticsService{
		readLogs: readLogs,
		stats:    stats,
		articles: articles,
		logger:   log,
	}
}

// AggregateDay recomputes daily stats for the given UTC day.
//
// The recompute is a full overwrite per article: suppressed duplicates were
// never written to the read log, so counting rows is sufficient, and writing
// the grouped total (rather than incrementing) makes re-running a day yield
// identical rows. A mid-run failure leaves already-applied upserts in place;
// the next run corrects the rest.
func (s *analyticsService) AggregateDay(ctx context.Context, day time.Time) (int, error) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	counts, err := s.readLogs.GroupCountByArticle(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to group read events for %s: %w", start.Format("2006-01-02"), err)
	}

	aggregated := 0
	for _, c := range counts {
		if err := s.stats.Upsert(ctx, c.ArticleID, start, c.Count); err != nil {
			return aggregated, fmt.Errorf("failed to upsert daily stat for article %s: %w", c.ArticleID, err)
		}
		aggregated++
	}

	s.logger.WithFields(map[string]interface{}{
		"day":      start.Format("2006-01-02"),
		"articles": aggregated,
	}).Info("Daily aggregation completed")

	return aggregated, nil
}

// AggregateYesterday aggregates the UTC day that most recently ended
func (s *analyticsService) AggregateYesterday(ctx context.Context) (int, error) {
	return s.AggregateDay(ctx, time.Now().UTC().AddDate(0, 0, -1))
}

// Dashboard returns the author's articles with all-time view totals summed
// over their daily stats
func (s *analyticsService) Dashboard(ctx context.Context, authorID string, page, size int) (*domain.DashboardPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	items, total, err := s.stats.ListForAuthor(ctx, authorID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to load author dashboard: %w", err)
	}

	return &domain.DashboardPage{
		Data: items,
		Meta: domain.PageMeta{
			Total: total,
			Page:  page,
			Limit: size,
		},
	}, nil
}

// ArticleStats returns one article's aggregated total plus today's raw reads
// that no aggregation run has folded in yet. Only the owner may view it.
func (s *analyticsService) ArticleStats(ctx context.Context, articleID, authorID string) (*domain.ArticleStats, error) {
	article, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load article", err)
	}
	if article == nil || article.DeletedAt != nil {
		return nil, apperrors.NewNotFoundError("Article not found")
	}
	if article.AuthorID != authorID {
		return nil, apperrors.NewAuthorizationError("You can only view stats for your own articles")
	}

	total, err := s.stats.SumViewsByArticle(ctx, articleID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to sum article views", err)
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.readLogs.CountForArticle(ctx, articleID, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count today's reads", err)
	}

	return &domain.ArticleStats{
		ArticleID:  articleID,
		TotalViews: total,
		ViewsToday: today,
	}, nil
}
