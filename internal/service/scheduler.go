package service

import (
	"context"
	"log"
	"sync"
	"time"

	possync "pos-edge-sync/internal/sync"
)

// SchedulerConfig holds configuration for the sync scheduler.
type SchedulerConfig struct {
	// Interval is how often the periodic drain runs. Default: 1 minute.
	Interval time.Duration

	// DrainTimeout bounds a single drain pass. Default: 5 minutes.
	DrainTimeout time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Interval:     1 * time.Minute,
		DrainTimeout: 5 * time.Minute,
	}
}

// SyncScheduler invokes the reconciler without a foreground user action:
// a recurring timer plus an externally delivered wake signal (connectivity
// transition, remote webhook callback). The timer is the guaranteed
// fallback when wake delivery is unavailable.
type SyncScheduler struct {
	reconciler *possync.Reconciler
	config     SchedulerConfig

	ticker    *time.Ticker
	wakeCh    chan struct{}
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewSyncScheduler creates a new sync scheduler.
func NewSyncScheduler(reconciler *possync.Reconciler, config SchedulerConfig) *SyncScheduler {
	if config.Interval == 0 {
		config.Interval = 1 * time.Minute
	}
	if config.DrainTimeout == 0 {
		config.DrainTimeout = 5 * time.Minute
	}

	return &SyncScheduler{
		reconciler: reconciler,
		config:     config,
		wakeCh:     make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
}

// Start begins the scheduler loop.
func (s *SyncScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[SyncScheduler] Started - Interval: %v", s.config.Interval)

	go s.run()
}

// run is the main scheduler loop.
func (s *SyncScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runDrain()
		case <-s.wakeCh:
			s.runDrain()
		case <-s.stopCh:
			log.Printf("[SyncScheduler] Stopped")
			return
		}
	}
}

// Wake requests an immediate drain outside the timer cadence. Coalesces:
// signalling an already-woken scheduler is a no-op, and signalling never
// blocks the caller.
func (s *SyncScheduler) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// runDrain performs one drain pass. Errors are logged and swallowed; the
// pending queue is the durable record of anything that did not go through.
func (s *SyncScheduler) runDrain() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.DrainTimeout)
	defer cancel()

	if err := s.reconciler.Drain(ctx); err != nil {
		log.Printf("[SyncScheduler] Drain error: %v", err)
	}
}

// RunNow triggers an immediate synchronous drain pass.
func (s *SyncScheduler) RunNow(ctx context.Context) error {
	return s.reconciler.Drain(ctx)
}

// Stop stops the scheduler.
func (s *SyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
