package service

import (
	"log/slog"
	"time"
)

// Sweeper drops expired in-memory state and returns how many entries went.
type Sweeper interface {
	Sweep(now time.Time) int
}

// HousekeepingService periodically sweeps expired in-memory state such as
// cooldown windows and revoked mock tokens.
type HousekeepingService struct {
	Sweepers map[string]Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. If interval is 0 or
// negative it defaults to 5 minutes.
func NewHousekeepingService(sweepers map[string]Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &HousekeepingService{
		Sweepers: sweepers,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sweep loop in the background. Call Stop to end it.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "sweepers", len(s.Sweepers))
}

// Stop ends the loop and waits for an in-progress sweep to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup(time.Now())

	for {
		select {
		case now := <-ticker.C:
			s.cleanup(now)
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup(now time.Time) int {
	total := 0
	for name, sw := range s.Sweepers {
		n := sw.Sweep(now)
		if n > 0 {
			s.Logger.Debug("swept expired entries", "sweeper", name, "removed", n)
		}
		total += n
	}
	s.Logger.Info("housekeeping cleanup completed", "removed", total)
	return total
}
