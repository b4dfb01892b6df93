package domain

import "time"

// DailyStat is the aggregated view count for one article on one UTC day.
// There is at most one row per (article, day); aggregation overwrites the
// count rather than incrementing it, so re-running a day is safe.
type DailyStat struct {
	ArticleID string    `json:"article_id" db:"article_id"`
	StatDate  time.Time `json:"stat_date" db:"stat_date"`
	ViewCount int64     `json:"view_count" db:"view_count"`
}

// ArticleViews is an article with its all-time aggregated view total,
// as shown on the author dashboard
type ArticleViews struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	TotalViews int64     `json:"total_views" db:"total_views"`
}

// DashboardPage is one page of the author dashboard
type DashboardPage struct {
	Data []*ArticleViews `json:"data"`
	Meta PageMeta        `json:"meta"`
}

// ArticleStats is the per-article drill-down: aggregated all-time views plus
// today's raw events that no aggregation run has folded in yet
type ArticleStats struct {
	ArticleID  string `json:"article_id"`
	TotalViews int64  `json:"total_views"`
	ViewsToday int64  `json:"views_today"`
}
