package app

import (
	"context"
	"errors"
	"time"

	"github.com/ticketcore/boxoffice/internal/clock"
	"github.com/ticketcore/boxoffice/internal/domain"
	"github.com/ticketcore/boxoffice/internal/metrics"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindOfferedHold(ctx context.Context, itemID, buyerID string) (*domain.Hold, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
}

type ReservationService struct {
	repo       ReservationRepository
	catalog    CatalogReader
	ledger     Ledger
	clock      clock.Clock
	metrics    *metrics.Metrics
	holdWindow time.Duration
}

const defaultHoldWindow = 10 * time.Minute

func NewReservationService(repo ReservationRepository, catalog CatalogReader, ledger Ledger, clk clock.Clock, m *metrics.Metrics, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:       repo,
		catalog:    catalog,
		ledger:     ledger,
		clock:      clk,
		metrics:    m,
		holdWindow: defaultHoldWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithHoldWindow overrides the default payment window for new holds.
func WithHoldWindow(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdWindow = d
		}
	}
}

type CreateOfferInput struct {
	ItemID   string
	BuyerID  string
	Quantity int
}

// CreateOffer reserves capacity for a buyer and returns a time-bounded hold.
// A buyer can have at most one offered hold per item; a repeated request
// returns the existing hold instead of creating a duplicate.
func (s *ReservationService) CreateOffer(ctx context.Context, in CreateOfferInput) (domain.Hold, error) {
	if in.Quantity <= 0 {
		return domain.Hold{}, domain.ErrInvalidQuantity
	}
	if in.BuyerID == "" {
		return domain.Hold{}, domain.ErrBuyerRequired
	}

	now := s.clock.Now()
	var result domain.Hold
	var created bool

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if existing, err := s.repo.FindOfferedHold(txCtx, in.ItemID, in.BuyerID); err != nil {
			return err
		} else if existing != nil {
			result = *existing
			return nil
		}

		if _, err := s.catalog.GetItem(txCtx, in.ItemID); err != nil {
			return err
		}

		if err := s.ledger.TryHold(txCtx, in.ItemID, in.Quantity); err != nil {
			return err
		}

		hold := domain.Hold{
			ID:        newID(),
			ItemID:    in.ItemID,
			BuyerID:   in.BuyerID,
			Quantity:  in.Quantity,
			Status:    domain.HoldStatusOffered,
			ExpiresAt: now.Add(s.holdWindow),
			CreatedAt: now,
		}

		if err := s.repo.CreateHold(txCtx, hold); err != nil {
			return err
		}

		result = hold
		created = true
		return nil
	})
	if err != nil {
		// A concurrent request by the same buyer won the insert race; its
		// hold is the one to hand back. The whole transaction, including the
		// ledger increment, has rolled back at this point.
		if errors.Is(err, domain.ErrDuplicateOffer) {
			if existing, ferr := s.repo.FindOfferedHold(ctx, in.ItemID, in.BuyerID); ferr == nil && existing != nil {
				return *existing, nil
			}
		}
		if errors.Is(err, domain.ErrInsufficientCapacity) {
			s.metrics.OffersRejected.Inc()
		}
		return domain.Hold{}, err
	}

	if created {
		s.metrics.OffersCreated.Inc()
	}
	return result, nil
}
