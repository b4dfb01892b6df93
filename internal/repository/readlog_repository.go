package repository

import (
	"context"
	"fmt"
	"time"

	"articly/internal/domain"
	"articly/pkg/database"
)

// readLogRepository handles the append-only read event log with PostgreSQL
type readLogRepository struct {
	db *database.PostgresDB
}

// NewReadLogRepository creates a new read log repository
func NewReadLogRepository(db *database.PostgresDB) ReadLogRepository {
	return &readLogRepository{
		db: db,
	}
}

// Append stores one accepted read event
func (r *readLogRepository) Append(ctx context.Context, event *domain.ReadLog) error {
	query := `
		INSERT INTO read_logs (article_id, reader_id, read_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		event.ArticleID,
		event.ReaderID,
		event.ReadAt,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("failed to append read log: %w", err)
	}

	return nil
}

// HasRecentRead reports whether the reader has a logged read of the article
// at or after the since instant
func (r *readLogRepository) HasRecentRead(ctx context.Context, articleID, readerID string, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM read_logs
			WHERE article_id = $1 AND reader_id = $2 AND read_at >= $3
		)
	`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, articleID, readerID, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check recent read: %w", err)
	}

	return exists, nil
}

// GroupCountByArticle counts read events per article within [start, end)
func (r *readLogRepository) GroupCountByArticle(ctx context.Context, start, end time.Time) ([]domain.ArticleReadCount, error) {
	query := `
		SELECT article_id, COUNT(*)
		FROM read_logs
		WHERE read_at >= $1 AND read_at < $2
		GROUP BY article_id
	`

	rows, err := r.db.Pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to group read logs: %w", err)
	}
	defer rows.Close()

	var counts []domain.ArticleReadCount
	for rows.Next() {
		var c domain.ArticleReadCount
		if err := rows.Scan(&c.ArticleID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan read count row: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading read count rows: %w", err)
	}

	return counts, nil
}

// CountForArticle counts read events for one article within [start, end)
func (r *readLogRepository) CountForArticle(ctx context.Context, articleID string, start, end time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM read_logs
		WHERE article_id = $1 AND read_at >= $2 AND read_at < $3
	`

	var count int64
	err := r.db.Pool.QueryRow(ctx, query, articleID, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count read logs: %w", err)
	}

	return count, nil
}
