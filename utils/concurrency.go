package utils

import (
	"strings"
	"sync"
	"time"
)

// WorkerPool bounds concurrent jobs and enforces a minimum interval between
// job starts, so a batch run never hammers a listing site.
type WorkerPool struct {
	slots       chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	minInterval time.Duration
	nextStart   time.Time
}

// NewWorkerPool creates a pool running at most maxWorkers jobs at once,
// starting them no closer together than minInterval.
func NewWorkerPool(maxWorkers int, minInterval time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		slots:       make(chan struct{}, maxWorkers),
		minInterval: minInterval,
	}
}

// Submit enqueues a job. It blocks while all worker slots are busy.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.slots <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.slots }()

		wp.throttle()
		job()
	}()
}

// Wait blocks until every submitted job has completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// throttle reserves the next start slot, then sleeps until it arrives.
// Reservation happens under the lock; the sleep does not, so workers queue
// up behind each other without serializing the whole pool.
func (wp *WorkerPool) throttle() {
	if wp.minInterval <= 0 {
		return
	}

	wp.mu.Lock()
	start := wp.nextStart
	if now := time.Now(); start.Before(now) {
		start = now
	}
	wp.nextStart = start.Add(wp.minInterval)
	wp.mu.Unlock()

	time.Sleep(time.Until(start))
}

// URLSet is a concurrency-safe set of already-processed listing URLs.
// URLs are normalized before comparison so trivial variants of the same
// listing link collapse into one entry.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

func normalizeURL(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	key := normalizeURL(url)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains reports whether the URL has already been added.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[normalizeURL(url)]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
