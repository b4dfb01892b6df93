package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articly/internal/domain"
	apperrors "articly/pkg/errors"
	"articly/pkg/logger"
)

func appendRead(t *testing.T, repo *fakeReadLogRepo, articleID string, readAt time.Time) {
	t.Helper()
	require.NoError(t, repo.Append(context.Background(), &domain.ReadLog{
		ArticleID: articleID,
		ReadAt:    readAt,
	}))
}

func TestAggregateDay_CountsEventsPerArticle(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	appendRead(t, readLogs, "article-1", day.Add(1*time.Hour))
	appendRead(t, readLogs, "article-1", day.Add(2*time.Hour))
	appendRead(t, readLogs, "article-1", day.Add(23*time.Hour))
	appendRead(t, readLogs, "article-2", day.Add(12*time.Hour))

	count, err := svc.AggregateDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stat, err := stats.GetByArticleAndDate(context.Background(), "article-1", day)
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(3), stat.ViewCount)

	stat, err = stats.GetByArticleAndDate(context.Background(), "article-2", day)
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(1), stat.ViewCount)
}

func TestAggregateDay_DayBoundariesAreHalfOpen(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	appendRead(t, readLogs, "article-1", day)                                // first instant counts
	appendRead(t, readLogs, "article-1", day.Add(24*time.Hour-time.Second)) // last second counts
	appendRead(t, readLogs, "article-1", day.Add(24*time.Hour))             // next day, excluded
	appendRead(t, readLogs, "article-1", day.Add(-time.Second))             // previous day, excluded

	count, err := svc.AggregateDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stat, err := stats.GetByArticleAndDate(context.Background(), "article-1", day)
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(2), stat.ViewCount)
}

func TestAggregateDay_ZeroEvents(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())

	count, err := svc.AggregateDay(context.Background(), time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, stats.rowCount())
}

func TestAggregateDay_Idempotent(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	appendRead(t, readLogs, "article-1", day.Add(time.Hour))
	appendRead(t, readLogs, "article-2", day.Add(time.Hour))

	_, err := svc.AggregateDay(context.Background(), day)
	require.NoError(t, err)
	first := stats.snapshot()

	_, err = svc.AggregateDay(context.Background(), day)
	require.NoError(t, err)
	second := stats.snapshot()

	assert.Equal(t, first, second, "re-running a day yields identical rows")
}

func TestAggregateDay_OverwritesStaleCounts(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	require.NoError(t, stats.Upsert(context.Background(), "article-1", day, 99))

	appendRead(t, readLogs, "article-1", day.Add(time.Hour))

	_, err := svc.AggregateDay(context.Background(), day)
	require.NoError(t, err)

	stat, err := stats.GetByArticleAndDate(context.Background(), "article-1", day)
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(1), stat.ViewCount, "aggregation overwrites rather than increments")
}

func TestAggregateDay_TruncatesToUTCMidnight(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	appendRead(t, readLogs, "article-1", day.Add(time.Hour))

	// Passing mid-day still aggregates the whole UTC day
	count, err := svc.AggregateDay(context.Background(), day.Add(15*time.Hour+30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stat, err := stats.GetByArticleAndDate(context.Background(), "article-1", day)
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(1), stat.ViewCount)
}

func TestAggregateDay_MidRunFailureKeepsAppliedRows(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	appendRead(t, readLogs, "article-1", day.Add(time.Hour))
	appendRead(t, readLogs, "article-2", day.Add(2*time.Hour))

	stats.failUpsertFor = "article-2"

	applied, err := svc.AggregateDay(context.Background(), day)
	assert.Error(t, err)
	assert.Equal(t, 1, applied, "rows upserted before the failure stay applied")

	// A later run with a healthy store completes the day
	stats.failUpsertFor = ""
	applied, err = svc.AggregateDay(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
}

// Full pipeline: repeated reads inside the window collapse to one event, a
// read past the window counts again, and aggregation sees exactly the
// accepted events.
func TestTrackThenAggregate(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	tracker := newTestTracker(t, readLogs, 40*time.Millisecond)
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())
	ctx := context.Background()

	accepted, err := tracker.Track(ctx, "article-1", "", "guest-abc")
	require.NoError(t, err)
	require.True(t, accepted)

	for i := 0; i < 2; i++ {
		accepted, err = tracker.Track(ctx, "article-1", "", "guest-abc")
		require.NoError(t, err)
		require.False(t, accepted)
	}

	time.Sleep(60 * time.Millisecond)

	accepted, err = tracker.Track(ctx, "article-1", "", "guest-abc")
	require.NoError(t, err)
	require.True(t, accepted)

	today := time.Now().UTC()
	count, err := svc.AggregateDay(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	stat, err := stats.GetByArticleAndDate(ctx, "article-1", midnight)
	require.NoError(t, err)
	require.NotNil(t, stat)
	assert.Equal(t, int64(2), stat.ViewCount)
}

func TestArticleStats_CombinesAggregatedAndToday(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	articles := newFakeArticleRepo()
	svc := NewAnalyticsService(readLogs, stats, articles, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, articles.Create(ctx, &domain.Article{
		ID:       "article-1",
		AuthorID: "author-1",
		Status:   domain.StatusPublished,
	}))

	// Two aggregated days plus two raw reads today that no run has folded in
	require.NoError(t, stats.Upsert(ctx, "article-1", time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), 7))
	require.NoError(t, stats.Upsert(ctx, "article-1", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), 3))

	now := time.Now().UTC()
	appendRead(t, readLogs, "article-1", now)
	appendRead(t, readLogs, "article-1", now)
	appendRead(t, readLogs, "article-2", now)

	got, err := svc.ArticleStats(ctx, "article-1", "author-1")
	require.NoError(t, err)
	assert.Equal(t, "article-1", got.ArticleID)
	assert.Equal(t, int64(10), got.TotalViews)
	assert.Equal(t, int64(2), got.ViewsToday)
}

func TestArticleStats_OwnershipAndExistence(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	articles := newFakeArticleRepo()
	svc := NewAnalyticsService(readLogs, stats, articles, logger.NewNop())
	ctx := context.Background()

	require.NoError(t, articles.Create(ctx, &domain.Article{
		ID:       "article-1",
		AuthorID: "author-1",
		Status:   domain.StatusPublished,
	}))
	deletedAt := time.Now().UTC()
	require.NoError(t, articles.Create(ctx, &domain.Article{
		ID:        "article-gone",
		AuthorID:  "author-1",
		Status:    domain.StatusPublished,
		DeletedAt: &deletedAt,
	}))

	tests := []struct {
		name      string
		articleID string
		authorID  string
		wantType  apperrors.ErrorType
	}{
		{
			name:      "another author's article",
			articleID: "article-1",
			authorID:  "author-2",
			wantType:  apperrors.ErrorTypeAuthorization,
		},
		{
			name:      "unknown article",
			articleID: "no-such-article",
			authorID:  "author-1",
			wantType:  apperrors.ErrorTypeNotFound,
		},
		{
			name:      "deleted article",
			articleID: "article-gone",
			authorID:  "author-1",
			wantType:  apperrors.ErrorTypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ArticleStats(ctx, tt.articleID, tt.authorID)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
		})
	}
}

func TestDashboard_ReturnsAuthorTotals(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	stats := newFakeStatsRepo()
	stats.dashboard = []*domain.ArticleViews{
		{ID: "article-1", Title: "First", TotalViews: 10},
		{ID: "article-2", Title: "Second", TotalViews: 0},
	}
	svc := NewAnalyticsService(readLogs, stats, newFakeArticleRepo(), logger.NewNop())

	page, err := svc.Dashboard(context.Background(), "author-1", 0, 500)
	require.NoError(t, err)

	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(2), page.Meta.Total)
	assert.Equal(t, 1, page.Meta.Page, "page is clamped to 1")
	assert.Equal(t, 10, page.Meta.Limit, "oversized page size falls back to the default")
}
