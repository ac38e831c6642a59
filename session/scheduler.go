package session

import (
	"context"
	"sync"
	"time"
)

// RefreshScheduler fires a tick callback once per interval, starting one
// full interval after Start. Start while running and Stop while idle are
// no-ops, so callers can arm and disarm it unconditionally on lifecycle
// transitions.
type RefreshScheduler struct {
	interval time.Duration
	tick     func(ctx context.Context)

	mu   sync.Mutex
	stop chan struct{}
}

// NewRefreshScheduler builds an unstarted scheduler.
func NewRefreshScheduler(interval time.Duration, tick func(ctx context.Context)) *RefreshScheduler {
	return &RefreshScheduler{
		interval: interval,
		tick:     tick,
	}
}

// Start arms the scheduler. At most one timer loop is active at a time.
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	go s.run(s.stop)
}

// Stop disarms the scheduler. A tick already executing may still finish.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

// Running reports whether the scheduler is armed.
func (s *RefreshScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *RefreshScheduler) run(stop <-chan struct{}) {
	// One-shot delay before the first tick, then a steady interval.
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	select {
	case <-stop:
		return
	case <-timer.C:
	}
	s.tick(context.Background())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(context.Background())
		}
	}
}
