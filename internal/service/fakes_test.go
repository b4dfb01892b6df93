package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"articly/internal/domain"
)

// fakeReadLogRepo is an in-memory ReadLogRepository for service tests
type fakeReadLogRepo struct {
	mu     sync.Mutex
	events []domain.ReadLog
	nextID int64

	appendErr error
	recentErr error
	groupErr  error
}

func newFakeReadLogRepo() *fakeReadLogRepo {
	return &fakeReadLogRepo{nextID: 1}
}

func (r *fakeReadLogRepo) Append(ctx context.Context, event *domain.ReadLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.appendErr != nil {
		return r.appendErr
	}

	stored := *event
	stored.ID = r.nextID
	r.nextID++
	r.events = append(r.events, stored)
	return nil
}

func (r *fakeReadLogRepo) HasRecentRead(ctx context.Context, articleID, readerID string, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recentErr != nil {
		return false, r.recentErr
	}

	for _, e := range r.events {
		if e.ArticleID != articleID || e.ReaderID == nil || *e.ReaderID != readerID {
			continue
		}
		if !e.ReadAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReadLogRepo) GroupCountByArticle(ctx context.Context, start, end time.Time) ([]domain.ArticleReadCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.groupErr != nil {
		return nil, r.groupErr
	}

	counts := make(map[string]int64)
	var order []string
	for _, e := range r.events {
		if e.ReadAt.Before(start) || !e.ReadAt.Before(end) {
			continue
		}
		if _, ok := counts[e.ArticleID]; !ok {
			order = append(order, e.ArticleID)
		}
		counts[e.ArticleID]++
	}

	result := make([]domain.ArticleReadCount, 0, len(order))
	for _, id := range order {
		result = append(result, domain.ArticleReadCount{ArticleID: id, Count: counts[id]})
	}
	return result, nil
}

func (r *fakeReadLogRepo) CountForArticle(ctx context.Context, articleID string, start, end time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, e := range r.events {
		if e.ArticleID != articleID {
			continue
		}
		if e.ReadAt.Before(start) || !e.ReadAt.Before(end) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeReadLogRepo) eventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// fakeStatsRepo is an in-memory DailyStatsRepository for service tests
type fakeStatsRepo struct {
	mu   sync.Mutex
	rows map[string]int64 // "articleID|YYYY-MM-DD" -> view count

	failUpsertFor string // article ID whose upsert errors
	dashboard     []*domain.ArticleViews
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{rows: make(map[string]int64)}
}

func statKey(articleID string, day time.Time) string {
	return articleID + "|" + day.UTC().Format("2006-01-02")
}

func (r *fakeStatsRepo) Upsert(ctx context.Context, articleID string, day time.Time, viewCount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failUpsertFor != "" && r.failUpsertFor == articleID {
		return fmt.Errorf("upsert rejected for %s", articleID)
	}

	r.rows[statKey(articleID, day)] = viewCount
	return nil
}

func (r *fakeStatsRepo) GetByArticleAndDate(ctx context.Context, articleID string, day time.Time) (*domain.DailyStat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count, ok := r.rows[statKey(articleID, day)]
	if !ok {
		return nil, nil
	}
	return &domain.DailyStat{ArticleID: articleID, StatDate: day.UTC(), ViewCount: count}, nil
}

func (r *fakeStatsRepo) SumViewsByArticle(ctx context.Context, articleID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for key, count := range r.rows {
		if len(key) > len(articleID) && key[:len(articleID)] == articleID && key[len(articleID)] == '|' {
			total += count
		}
	}
	return total, nil
}

func (r *fakeStatsRepo) ListForAuthor(ctx context.Context, authorID string, page, size int) ([]*domain.ArticleViews, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dashboard, int64(len(r.dashboard)), nil
}

func (r *fakeStatsRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *fakeStatsRepo) snapshot() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make(map[string]int64, len(r.rows))
	for k, v := range r.rows {
		copied[k] = v
	}
	return copied
}

// fakeArticleRepo is an in-memory ArticleRepository for service tests
type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*domain.Article
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: make(map[string]*domain.Article)}
}

func (r *fakeArticleRepo) Create(ctx context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *article
	r.articles[article.ID] = &copied
	return nil
}

func (r *fakeArticleRepo) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	article, ok := r.articles[id]
	if !ok {
		return nil, nil
	}
	copied := *article
	return &copied, nil
}

func (r *fakeArticleRepo) Update(ctx context.Context, article *domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *article
	r.articles[article.ID] = &copied
	return nil
}

func (r *fakeArticleRepo) SoftDelete(ctx context.Context, id string, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if article, ok := r.articles[id]; ok {
		article.DeletedAt = &deletedAt
	}
	return nil
}

func (r *fakeArticleRepo) ListPublished(ctx context.Context, filter domain.ArticleFilter, page, size int) ([]*domain.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*domain.Article
	for _, article := range r.articles {
		if article.Status != domain.StatusPublished || article.DeletedAt != nil {
			continue
		}
		if filter.Category != "" && article.Category != filter.Category {
			continue
		}
		copied := *article
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}

func (r *fakeArticleRepo) ListByAuthor(ctx context.Context, authorID string, page, size int, showDeleted bool) ([]*domain.Article, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*domain.Article
	for _, article := range r.articles {
		if article.AuthorID != authorID {
			continue
		}
		if !showDeleted && article.DeletedAt != nil {
			continue
		}
		copied := *article
		result = append(result, &copied)
	}
	return result, int64(len(result)), nil
}
