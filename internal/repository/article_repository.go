package repository

import (
	"context"
	"fmt"
	"time"

	"articly/internal/domain"
	"articly/pkg/database"

	"github.com/jackc/pgx/v5"
)

// articleRepository handles article persistence with PostgreSQL
type articleRepository struct {
	db *database.PostgresDB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *database.PostgresDB) ArticleRepository {
	return &articleRepository{
		db: db,
	}
}

// Create creates a new article
func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	query := `
		INSERT INTO articles (id, author_id, title, content, category, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		article.ID,
		article.AuthorID,
		article.Title,
		article.Content,
		article.Category,
		article.Status,
		article.CreatedAt,
	).Scan(&article.CreatedAt, &article.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

// GetByID retrieves an article by ID, including soft-deleted rows
func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	query := `
		SELECT id, author_id, title, content, category, status, created_at, updated_at, deleted_at
		FROM articles
		WHERE id = $1
	`

	article := &domain.Article{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&article.ID,
		&article.AuthorID,
		&article.Title,
		&article.Content,
		&article.Category,
		&article.Status,
		&article.CreatedAt,
		&article.UpdatedAt,
		&article.DeletedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get article by id: %w", err)
	}

	return article, nil
}

// Update updates an existing article
func (r *articleRepository) Update(ctx context.Context, article *domain.Article) error {
	query := `
		UPDATE articles
		SET title = $2, content = $3, category = $4, status = $5, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		article.ID,
		article.Title,
		article.Content,
		article.Category,
		article.Status,
	).Scan(&article.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("article %s not found or deleted", article.ID)
		}
		return fmt.Errorf("failed to update article: %w", err)
	}

	return nil
}

// SoftDelete marks an article as deleted without removing the row
func (r *articleRepository) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	query := `
		UPDATE articles
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	if _, err := r.db.Pool.Exec(ctx, query, id, deletedAt); err != nil {
		return fmt.Errorf("failed to soft delete article: %w", err)
	}

	return nil
}

// ListPublished retrieves published, non-deleted articles matching the filter
func (r *articleRepository) ListPublished(ctx context.Context, filter domain.ArticleFilter, page, size int) ([]*domain.Article, int64, error) {
	where := `a.status = 'PUBLISHED' AND a.deleted_at IS NULL`
	args := []interface{}{}
	argPos := 1

	if filter.Category != "" {
		where += fmt.Sprintf(" AND a.category = $%d", argPos)
		args = append(args, filter.Category)
		argPos++
	}
	if filter.AuthorName != "" {
		where += fmt.Sprintf(" AND u.name ILIKE $%d", argPos)
		args = append(args, "%"+filter.AuthorName+"%")
		argPos++
	}
	if filter.TitleQuery != "" {
		where += fmt.Sprintf(" AND a.title ILIKE $%d", argPos)
		args = append(args, "%"+filter.TitleQuery+"%")
		argPos++
	}

	countQuery := `
		SELECT COUNT(*)
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE ` + where

	var total int64
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count published articles: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT a.id, a.author_id, a.title, a.content, a.category, a.status,
		       a.created_at, a.updated_at, a.deleted_at, u.name
		FROM articles a
		JOIN users u ON u.id = a.author_id
		WHERE %s
		ORDER BY a.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argPos, argPos+1)

	args = append(args, size, (page-1)*size)

	rows, err := r.db.Pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query published articles: %w", err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		article := &domain.Article{}
		err := rows.Scan(
			&article.ID,
			&article.AuthorID,
			&article.Title,
			&article.Content,
			&article.Category,
			&article.Status,
			&article.CreatedAt,
			&article.UpdatedAt,
			&article.DeletedAt,
			&article.AuthorName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading article rows: %w", err)
	}

	return articles, total, nil
}

// ListByAuthor retrieves an author's articles, optionally including deleted ones
func (r *articleRepository) ListByAuthor(ctx context.Context, authorID string, page, size int, showDeleted bool) ([]*domain.Article, int64, error) {
	where := `author_id = $1`
	if !showDeleted {
		where += ` AND deleted_at IS NULL`
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM articles WHERE ` + where
	if err := r.db.Pool.QueryRow(ctx, countQuery, authorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count author articles: %w", err)
	}

	listQuery := `
		SELECT id, author_id, title, content, category, status, created_at, updated_at, deleted_at
		FROM articles
		WHERE ` + where + `
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, listQuery, authorID, size, (page-1)*size)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query author articles: %w", err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		article := &domain.Article{}
		err := rows.Scan(
			&article.ID,
			&article.AuthorID,
			&article.Title,
			&article.Content,
			&article.Category,
			&article.Status,
			&article.CreatedAt,
			&article.UpdatedAt,
			&article.DeletedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading article rows: %w", err)
	}

	return articles, total, nil
}
