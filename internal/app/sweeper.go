package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ticketcore/boxoffice/internal/clock"
	"github.com/ticketcore/boxoffice/internal/domain"
	"github.com/ticketcore/boxoffice/internal/metrics"
)

type SweepRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListDueHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error)
	MarkExpired(ctx context.Context, holdID string) (bool, error)
}

// Sweeper reclaims capacity from holds whose payment window elapsed without
// a confirmation. Expiry is a guarded status transition: when a concurrent
// confirmation wins, the sweeper leaves the hold alone.
type Sweeper struct {
	repo      SweepRepository
	ledger    Ledger
	clock     clock.Clock
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	interval  time.Duration
	batchSize int
}

const (
	defaultSweepInterval = time.Minute
	defaultSweepBatch    = 500
)

func NewSweeper(repo SweepRepository, ledger Ledger, clk clock.Clock, m *metrics.Metrics, logger zerolog.Logger, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		repo:      repo,
		ledger:    ledger,
		clock:     clk,
		metrics:   m,
		logger:    logger.With().Str("component", "sweeper").Logger(),
		interval:  defaultSweepInterval,
		batchSize: defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SweeperOption func(*Sweeper)

func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithSweepBatchSize(n int) SweeperOption {
	return func(s *Sweeper) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Run sweeps on a fixed cadence until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweep pass failed")
			}
		}
	}
}

// Sweep runs a single pass and returns how many holds it expired.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	now := s.clock.Now()

	due, err := s.repo.ListDueHolds(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, hold := range due {
		err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
			won, err := s.repo.MarkExpired(txCtx, hold.ID)
			if err != nil {
				return err
			}
			if !won {
				// A confirmation got there first; the purchase is
				// authoritative.
				return nil
			}
			if err := s.ledger.Release(txCtx, hold.ItemID, hold.Quantity); err != nil {
				return err
			}
			expired++
			s.metrics.TicketsReleased.Add(float64(hold.Quantity))
			return nil
		})
		if err != nil {
			s.logger.Error().Err(err).Str("hold_id", hold.ID).Msg("expire hold")
		}
	}

	s.metrics.HoldsExpired.Add(float64(expired))
	s.metrics.SweepPassDuration.Observe(time.Since(start).Seconds())
	if expired > 0 {
		s.logger.Info().Int("expired", expired).Int("due", len(due)).Msg("sweep pass")
	}
	return expired, nil
}
