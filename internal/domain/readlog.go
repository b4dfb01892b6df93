package domain

import "time"

// ReadLog is one accepted read event for an article. Rows are append-only;
// suppressed duplicates are never written, so counting rows is counting reads.
type ReadLog struct {
	ID        int64     `json:"id" db:"id"`
	ArticleID string    `json:"article_id" db:"article_id"`
	ReaderID  *string   `json:"reader_id,omitempty" db:"reader_id"` // nil for anonymous readers
	ReadAt    time.Time `json:"read_at" db:"read_at"`
}

// ArticleReadCount pairs an article with its read count inside some time range
type ArticleReadCount struct {
	ArticleID string `db:"article_id"`
	Count     int64  `db:"count"`
}
