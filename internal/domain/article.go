package domain

import "time"

// ArticleStatus is the publication state of an article
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "DRAFT"
	StatusPublished ArticleStatus = "PUBLISHED"
)

// Article represents a content item published on the platform
type Article struct {
	ID        string        `json:"id" db:"id"`
	AuthorID  string        `json:"author_id" db:"author_id"`
	Title     string        `json:"title" db:"title"`
	Content   string        `json:"content" db:"content"`
	Category  string        `json:"category" db:"category"`
	Status    ArticleStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`

	// AuthorName is populated on public listings via join
	AuthorName string `json:"author_name,omitempty" db:"-"`
}

// CreateArticleRequest represents the payload for creating an article
type CreateArticleRequest struct {
	Title    string        `json:"title"`
	Content  string        `json:"content"`
	Category string        `json:"category"`
	Status   ArticleStatus `json:"status,omitempty"`
}

// UpdateArticleRequest represents the payload for updating an article.
// Nil fields are left unchanged.
type UpdateArticleRequest struct {
	Title    *string        `json:"title,omitempty"`
	Content  *string        `json:"content,omitempty"`
	Category *string        `json:"category,omitempty"`
	Status   *ArticleStatus `json:"status,omitempty"`
}

// ArticleFilter narrows public article listings
type ArticleFilter struct {
	Category   string
	AuthorName string
	TitleQuery string
}

// PageMeta describes a paginated result set
type PageMeta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// ArticlePage is one page of articles plus pagination metadata
type ArticlePage struct {
	Data []*Article `json:"data"`
	Meta PageMeta   `json:"meta"`
}
