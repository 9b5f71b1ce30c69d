package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ErlanBelekov/account-service/internal/metrics"
	"github.com/ErlanBelekov/account-service/internal/repository"
	"github.com/robfig/cron/v3"
)

// Sweeper periodically clears expired action tokens. Housekeeping only:
// redemption checks expiry itself, so correctness never depends on a sweep
// having run.
type Sweeper struct {
	accounts repository.AccountRepository
	cron     *cron.Cron
	logger   *slog.Logger
}

func New(accounts repository.AccountRepository, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		accounts: accounts,
		cron:     cron.New(),
		logger:   logger.With("component", "sweeper"),
	}
}

// Start schedules the sweep and runs it until Stop. The schedule accepts
// cron expressions and the @every form.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	s.cron.Start()
	s.logger.Info("sweeper started", "schedule", schedule)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	cleared, err := s.accounts.ClearExpiredActionTokens(ctx, start)
	metrics.SweepCycleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("sweep expired action tokens", "error", err)
		return
	}
	if cleared > 0 {
		metrics.SweptActionTokensTotal.Add(float64(cleared))
		s.logger.Info("cleared expired action tokens", "count", cleared)
	}
}
