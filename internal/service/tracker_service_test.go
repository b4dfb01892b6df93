package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articly/pkg/logger"
	"articly/pkg/redis"
)

func newTestTracker(t *testing.T, readLogs *fakeReadLogRepo, window time.Duration) ReadTracker {
	t.Helper()

	dedup := NewLocalDedupCache()
	keys := redis.NewKeyBuilder("test")
	tracker := NewReadTracker(readLogs, dedup, keys, logger.NewNop(), window, 16, 2)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tracker.Stop(ctx)
	})
	return tracker
}

func TestTrack_GuestDedupWithinWindow(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	tracker := newTestTracker(t, readLogs, time.Minute)
	ctx := context.Background()

	accepted, err := tracker.Track(ctx, "article-1", "", "guest-abc")
	require.NoError(t, err)
	assert.True(t, accepted, "first read is accepted")

	accepted, err = tracker.Track(ctx, "article-1", "", "guest-abc")
	require.NoError(t, err)
	assert.False(t, accepted, "repeat read within the window is suppressed")

	assert.Equal(t, 1, readLogs.eventCount())
}

func TestTrack_GuestAcceptedAfterWindow(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	tracker := newTestTracker(t, readLogs, 30*time.Millisecond)
	ctx := context.Background()

	accepted, err := tracker.Track(ctx, "article-1", "", "guest-abc")
	require.NoError(t, err)
	require.True(t, accepted)

	time.Sleep(50 * time.Millisecond)

	accepted, err = tracker.Track(ctx, "article-1", "", "guest-abc")
	require.NoError(t, err)
	assert.True(t, accepted, "read after the window elapses counts again")

	assert.Equal(t, 2, readLogs.eventCount())
}

func TestTrack_GuestsIndependentPerArticle(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	tracker := newTestTracker(t, readLogs, time.Minute)
	ctx := context.Background()

	accepted, err := tracker.Track(ctx, "article-1", "", "guest-abc")
	require.NoError(t, err)
	assert.True(t, accepted)

	accepted, err = tracker.Track(ctx, "article-2", "", "guest-abc")
	require.NoError(t, err)
	assert.True(t, accepted, "same guest on a different article is a distinct key")

	accepted, err = tracker.Track(ctx, "article-1", "", "guest-xyz")
	require.NoError(t, err)
	assert.True(t, accepted, "different guest on the same article is a distinct key")

	assert.Equal(t, 3, readLogs.eventCount())
}

func TestTrack_RegisteredReaderDedup(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	tracker := newTestTracker(t, readLogs, time.Minute)
	ctx := context.Background()

	accepted, err := tracker.Track(ctx, "article-1", "reader-1", "")
	require.NoError(t, err)
	assert.True(t, accepted)

	accepted, err = tracker.Track(ctx, "article-1", "reader-1", "")
	require.NoError(t, err)
	assert.False(t, accepted, "registered reader is deduplicated against the read log")

	accepted, err = tracker.Track(ctx, "article-1", "reader-2", "")
	require.NoError(t, err)
	assert.True(t, accepted, "a different reader is counted")

	assert.Equal(t, 2, readLogs.eventCount())
}

func TestTrack_RecordsWhenDedupLookupFails(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	readLogs.recentErr = assert.AnError
	tracker := newTestTracker(t, readLogs, time.Minute)

	accepted, err := tracker.Track(context.Background(), "article-1", "reader-1", "")
	require.NoError(t, err)
	assert.True(t, accepted, "an unreadable dedup source must not drop the view")
	assert.Equal(t, 1, readLogs.eventCount())
}

func TestTrack_NoIdentityAlwaysRecords(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	tracker := newTestTracker(t, readLogs, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		accepted, err := tracker.Track(ctx, "article-1", "", "")
		require.NoError(t, err)
		assert.True(t, accepted)
	}

	assert.Equal(t, 3, readLogs.eventCount())
}

func TestTrack_ConcurrentGuestReadsSingleEvent(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	tracker := newTestTracker(t, readLogs, time.Minute)
	ctx := context.Background()

	const goroutines = 20
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.Track(ctx, "article-1", "", "guest-abc")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, readLogs.eventCount(), "concurrent duplicate reads must count once")
}

func TestTrackAsync_ProcessesQueuedEvents(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	tracker := newTestTracker(t, readLogs, time.Minute)

	require.NoError(t, tracker.Start(context.Background()))

	tracker.TrackAsync("article-1", "", "guest-abc")
	tracker.TrackAsync("article-2", "", "guest-abc")

	assert.Eventually(t, func() bool {
		return readLogs.eventCount() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestTrackAsync_DropsWhenQueueFull(t *testing.T) {
	readLogs := newFakeReadLogRepo()
	dedup := NewLocalDedupCache()
	t.Cleanup(dedup.Stop)

	// Never started: nothing drains the queue, so capacity 1 fills immediately
	tracker := NewReadTracker(readLogs, dedup, redis.NewKeyBuilder("test"), logger.NewNop(), time.Minute, 1, 1)

	tracker.TrackAsync("article-1", "", "guest-1")
	tracker.TrackAsync("article-2", "", "guest-2") // dropped, must not block

	assert.Equal(t, 0, readLogs.eventCount())
}

func TestGuestFingerprint(t *testing.T) {
	a := GuestFingerprint("203.0.113.7", "Mozilla/5.0")
	b := GuestFingerprint("203.0.113.7", "Mozilla/5.0")
	c := GuestFingerprint("203.0.113.8", "Mozilla/5.0")
	d := GuestFingerprint("203.0.113.7", "curl/8.0")

	assert.Equal(t, a, b, "fingerprint is deterministic")
	assert.NotEqual(t, a, c, "different IP yields a different fingerprint")
	assert.NotEqual(t, a, d, "different user agent yields a different fingerprint")
	assert.Len(t, a, 32)

	// Only the user agent prefix feeds the hash
	long := GuestFingerprint("203.0.113.7", string(make([]byte, 200)))
	assert.Len(t, long, 32)
}
