package repository

import (
	"context"
	"fmt"
	"time"

	"articly/internal/domain"
	"articly/pkg/database"

	"github.com/jackc/pgx/v5"
)

// dailyStatsRepository handles per-article-per-day counters with PostgreSQL
type dailyStatsRepository struct {
	db *database.PostgresDB
}

// NewDailyStatsRepository creates a new daily stats repository
func NewDailyStatsRepository(db *database.PostgresDB) DailyStatsRepository {
	return &dailyStatsRepository{
		db: db,
	}
}

// Upsert writes the view count for (article, day), replacing any previous value.
// Overwrite rather than increment keeps re-aggregation of a day idempotent.
func (r *dailyStatsRepository) Upsert(ctx context.Context, articleID string, day time.Time, viewCount int64) error {
	query := `
		INSERT INTO daily_stats (article_id, stat_date, view_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (article_id, stat_date) DO UPDATE SET
			view_count = EXCLUDED.view_count
	`

	_, err := r.db.Pool.Exec(ctx, query, articleID, day.UTC().Format("2006-01-02"), viewCount)
	if err != nil {
		return fmt.Errorf("failed to upsert daily stat: %w", err)
	}

	return nil
}

// GetByArticleAndDate retrieves one daily stat row
func (r *dailyStatsRepository) GetByArticleAndDate(ctx context.Context, articleID string, day time.Time) (*domain.DailyStat, error) {
	query := `
		SELECT article_id, stat_date, view_count
		FROM daily_stats
		WHERE article_id = $1 AND stat_date = $2
	`

	stat := &domain.DailyStat{}
	err := r.db.Pool.QueryRow(ctx, query, articleID, day.UTC().Format("2006-01-02")).Scan(
		&stat.ArticleID,
		&stat.StatDate,
		&stat.ViewCount,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get daily stat: %w", err)
	}

	return stat, nil
}

// SumViewsByArticle totals the aggregated views across all days for an article
func (r *dailyStatsRepository) SumViewsByArticle(ctx context.Context, articleID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(view_count), 0)
		FROM daily_stats
		WHERE article_id = $1
	`

	var total int64
	err := r.db.Pool.QueryRow(ctx, query, articleID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum views for article: %w", err)
	}

	return total, nil
}

// ListForAuthor retrieves an author's articles with their all-time view totals
func (r *dailyStatsRepository) ListForAuthor(ctx context.Context, authorID string, page, size int) ([]*domain.ArticleViews, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM articles WHERE author_id = $1 AND deleted_at IS NULL`
	if err := r.db.Pool.QueryRow(ctx, countQuery, authorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count author articles: %w", err)
	}

	query := `
		SELECT a.id, a.title, a.created_at, COALESCE(SUM(s.view_count), 0) AS total_views
		FROM articles a
		LEFT JOIN daily_stats s ON s.article_id = a.id
		WHERE a.author_id = $1 AND a.deleted_at IS NULL
		GROUP BY a.id, a.title, a.created_at
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, authorID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query author dashboard: %w", err)
	}
	defer rows.Close()

	var items []*domain.ArticleViews
	for rows.Next() {
		item := &domain.ArticleViews{}
		if err := rows.Scan(&item.ID, &item.Title, &item.CreatedAt, &item.TotalViews); err != nil {
			return nil, 0, fmt.Errorf("failed to scan dashboard row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading dashboard rows: %w", err)
	}

	return items, total, nil
}
