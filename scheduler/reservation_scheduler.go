package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"hostal-backend/services"
)

// Sweeper is the piece of the reservation service the scheduler drives.
type Sweeper interface {
	Sweep(ctx context.Context) (services.SweepResult, error)
}

// ReservationScheduler advances reservation lifecycles and re-projects room
// status on a fixed interval. Sweeps never overlap: a tick that arrives
// while one is still running is dropped by the ticker.
type ReservationScheduler struct {
	sweeper  Sweeper
	interval time.Duration

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// DefaultInterval is the sweep period used when none is configured.
const DefaultInterval = 5 * time.Minute

// NewReservationScheduler builds a stopped scheduler. interval <= 0 means DefaultInterval.
func NewReservationScheduler(sweeper Sweeper, interval time.Duration) *ReservationScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &ReservationScheduler{sweeper: sweeper, interval: interval}
}

// Start runs one sweep immediately and then one per interval until ctx is
// cancelled or Stop is called. Calling Start twice is a no-op.
func (s *ReservationScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	log.Printf("🕐 reservation scheduler started, every %s", s.interval)
	go s.loop(ctx, s.done)
}

func (s *ReservationScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and logs the outcome.
func (s *ReservationScheduler) RunOnce(ctx context.Context) {
	res, err := s.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("❌ reservation sweep failed: %v", err)
		}
		return
	}
	if res.CheckedIn > 0 || res.CheckedOut > 0 || res.RoomsUpdated > 0 {
		log.Printf("✅ sweep: %d checked in, %d checked out, %d room(s) updated",
			res.CheckedIn, res.CheckedOut, res.RoomsUpdated)
	}
}

// Stop cancels the loop and waits for an in-flight sweep to return. It is
// safe to call more than once, and before Start.
func (s *ReservationScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		cancel, done := s.cancel, s.done
		if done == nil {
			// never started; make a later Start a no-op too
			s.done = make(chan struct{})
			close(s.done)
		}
		s.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
		log.Println("🛑 reservation scheduler stopped")
	})
}
