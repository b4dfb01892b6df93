package service

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"articly/internal/domain"
	"articly/internal/repository"
	"articly/pkg/logger"
	"articly/pkg/redis"
)

// trackTimeout bounds one background tracking task
const trackTimeout = 10 * time.Second

// guestUserAgentLimit caps how much of the user agent feeds the fingerprint
const guestUserAgentLimit = 80

// trackRequest is one queued tracking task
type trackRequest struct {
	articleID string
	readerID  string
	guestKey  string
}

// readTrackerService decides whether a view is new and records accepted reads.
// It is the sole writer of read log events.
type readTrackerService struct {
	readLogs repository.ReadLogRepository
	dedup    DedupCache
	keys     *redis.KeyBuilder
	logger   *logger.Logger
	window   time.Duration

	queue     chan trackRequest
	workers   int
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReadTracker creates a new read tracker
func NewReadTracker(readLogs repository.ReadLogRepository, dedup DedupCache, keys *redis.KeyBuilder, log *logger.Logger, window time.Duration, queueSize, workers int) ReadTracker {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if workers <= 0 {
		workers = 4
	}

	return &readTrackerService{
		readLogs: readLogs,
		dedup:    dedup,
		keys:     keys,
		logger:   log,
		window:   window,
		queue:    make(chan trackRequest, queueSize),
		workers:  workers,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background tracking workers
func (s *readTrackerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	s.logger.WithFields(map[string]interface{}{
		"workers":      s.workers,
		"queue_size":   cap(s.queue),
		"dedup_window": s.window.String(),
	}).Info("Starting read tracker")

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	s.isRunning = true
	return nil
}

// Stop shuts down the background tracking workers. Queued tasks that have not
// started by shutdown are dropped; a missed view is acceptable loss.
func (s *readTrackerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Read tracker workers did not finish before shutdown deadline")
	}

	s.dedup.Stop()
	s.isRunning = false
	s.logger.Info("Read tracker stopped")
	return nil
}

// TrackAsync dispatches a tracking task without blocking the caller. When the
// queue is full the event is dropped with a warning rather than applying
// backpressure to the serving path.
func (s *readTrackerService) TrackAsync(articleID, readerID, guestKey string) {
	select {
	case s.queue <- trackRequest{articleID: articleID, readerID: readerID, guestKey: guestKey}:
	default:
		s.logger.WithField("article_id", articleID).Warn("Tracking queue full, dropping read event")
	}
}

// Track decides whether the read is new and records it.
//
// Registered readers are deduplicated against the read log itself: a read of
// the same article within the dedup window is suppressed. Anonymous readers
// are deduplicated through the dedup cache keyed by article and fingerprint.
// With neither identity the read is always recorded.
func (s *readTrackerService) Track(ctx context.Context, articleID, readerID, guestKey string) (bool, error) {
	now := time.Now().UTC()

	if readerID != "" {
		recent, err := s.readLogs.HasRecentRead(ctx, articleID, readerID, now.Add(-s.window))
		if err != nil {
			// Dedup is best-effort; an unreadable log must not drop the view
			s.logger.WithError(err).Warn("Recent-read lookup failed, recording without dedup")
		} else if recent {
			s.logger.WithFields(map[string]interface{}{
				"article_id": articleID,
				"reader_id":  readerID,
			}).Debug("Suppressed duplicate read from registered reader")
			return false, nil
		}
	} else if guestKey != "" {
		key := s.keys.KeyGuestRead(articleID, guestKey)
		ok, err := s.dedup.Acquire(ctx, key, s.window)
		if err != nil {
			s.logger.WithError(err).Warn("Dedup acquire failed, recording without dedup")
		} else if !ok {
			s.logger.WithField("article_id", articleID).Debug("Suppressed duplicate guest read")
			return false, nil
		}
	}

	event := &domain.ReadLog{
		ArticleID: articleID,
		ReadAt:    now,
	}
	if readerID != "" {
		event.ReaderID = &readerID
	}

	if err := s.readLogs.Append(ctx, event); err != nil {
		return false, fmt.Errorf("failed to record read event: %w", err)
	}

	return true, nil
}

// worker consumes queued tracking tasks until stopped
func (s *readTrackerService) worker() {
	defer s.wg.Done()

	for {
		select {
		case req := <-s.queue:
			s.handle(req)
		case <-s.stopCh:
			return
		}
	}
}

// handle runs one tracking task with a bounded timeout. Errors are logged and
// swallowed; nothing in this path may surface to a serving request.
func (s *readTrackerService) handle(req trackRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
	defer cancel()

	accepted, err := s.Track(ctx, req.articleID, req.readerID, req.guestKey)
	if err != nil {
		s.logger.WithError(err).WithField("article_id", req.articleID).Error("Read tracking failed")
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"article_id": req.articleID,
		"accepted":   accepted,
	}).Debug("Read tracking completed")
}

// GuestFingerprint derives a stable anonymous identity from the network origin
// and client signature. The scheme is deliberately coarse: NATed users can
// collide and the inputs are spoofable, which is acceptable for view counting.
func GuestFingerprint(ipAddress, userAgent string) string {
	if len(userAgent) > guestUserAgentLimit {
		userAgent = userAgent[:guestUserAgentLimit]
	}
	hash := sha256.Sum256([]byte(ipAddress + "|" + userAgent))
	return fmt.Sprintf("%x", hash)[:32]
}
