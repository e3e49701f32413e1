package app

import (
	"context"

	"github.com/ticketcore/boxoffice/internal/clock"
	"github.com/ticketcore/boxoffice/internal/domain"
	"github.com/ticketcore/boxoffice/internal/metrics"
)

type ConfirmationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error)
	MarkPurchased(ctx context.Context, holdID, paymentReference string) (bool, error)
}

type SaleRepository interface {
	CreateSales(ctx context.Context, sales []domain.Sale) error
	FindSales(ctx context.Context, holdID, paymentReference string) ([]domain.Sale, error)
}

// ConfirmationService converts an offered hold plus a payment confirmation
// into permanent sale records, exactly once per (hold, payment reference)
// regardless of how many times the confirmation is delivered.
type ConfirmationService struct {
	repo    ConfirmationRepository
	sales   SaleRepository
	catalog CatalogReader
	ledger  Ledger
	clock   clock.Clock
	metrics *metrics.Metrics
}

func NewConfirmationService(repo ConfirmationRepository, sales SaleRepository, catalog CatalogReader, ledger Ledger, clk clock.Clock, m *metrics.Metrics) *ConfirmationService {
	return &ConfirmationService{
		repo:    repo,
		sales:   sales,
		catalog: catalog,
		ledger:  ledger,
		clock:   clk,
		metrics: m,
	}
}

type ConfirmItem struct {
	ItemID   string
	Quantity int
}

type ConfirmInput struct {
	HoldID           string
	PaymentReference string
	Amount           int64
	// Items is the caller's view of what is being paid for. Empty means
	// "whatever the hold covers" (the asynchronous notification path only
	// knows the hold).
	Items []ConfirmItem
}

type ConfirmResult struct {
	Sales []domain.Sale
	// Created is false when the confirmation was an idempotent replay.
	Created bool
}

func (s *ConfirmationService) Confirm(ctx context.Context, in ConfirmInput) (ConfirmResult, error) {
	if in.PaymentReference == "" {
		return ConfirmResult{}, domain.ErrMalformedNotification
	}

	now := s.clock.Now()
	var result ConfirmResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHoldForUpdate(txCtx, in.HoldID)
		if err != nil {
			return err
		}

		switch hold.Status {
		case domain.HoldStatusPurchased:
			return s.replay(txCtx, hold, in.PaymentReference, &result)
		case domain.HoldStatusExpired:
			return domain.ErrOfferExpired
		}

		item, err := s.catalog.GetItem(txCtx, hold.ItemID)
		if err != nil {
			return err
		}

		if err := validateItems(hold, in.Items); err != nil {
			return err
		}

		// The only legitimate zero-payment path is a zero-priced item; a
		// priced hold confirmed with the wrong (or no) amount is rejected
		// before any state moves.
		expected := item.Price * int64(hold.Quantity)
		if in.Amount != expected && expected != 0 {
			return domain.ErrAmountMismatch
		}

		won, err := s.repo.MarkPurchased(txCtx, hold.ID, in.PaymentReference)
		if err != nil {
			return err
		}
		if !won {
			// The status moved under us. Re-read and settle on whichever
			// terminal state won.
			hold, err = s.repo.GetHoldForUpdate(txCtx, in.HoldID)
			if err != nil {
				return err
			}
			if hold.Status == domain.HoldStatusPurchased {
				return s.replay(txCtx, hold, in.PaymentReference, &result)
			}
			return domain.ErrOfferExpired
		}

		if err := s.ledger.Commit(txCtx, hold.ItemID, hold.Quantity); err != nil {
			return err
		}

		sales := make([]domain.Sale, 0, hold.Quantity)
		for i := 0; i < hold.Quantity; i++ {
			sales = append(sales, domain.Sale{
				ID:               newID(),
				ItemID:           hold.ItemID,
				HoldID:           hold.ID,
				BuyerID:          hold.BuyerID,
				PaymentReference: in.PaymentReference,
				Amount:           item.Price,
				Status:           domain.SaleStatusValid,
				ConfirmedAt:      now,
			})
		}
		if err := s.sales.CreateSales(txCtx, sales); err != nil {
			return err
		}

		result = ConfirmResult{Sales: sales, Created: true}
		return nil
	})
	if err != nil {
		if err == domain.ErrPaymentConflict {
			s.metrics.PaymentConflicts.Inc()
		}
		return ConfirmResult{}, err
	}

	if result.Created {
		s.metrics.SalesConfirmed.Add(float64(len(result.Sales)))
	} else {
		s.metrics.ConfirmReplays.Inc()
	}
	return result, nil
}

// replay returns the sales recorded by an earlier confirmation of the same
// payment reference, without touching the ledger. A different reference on a
// purchased hold is an operator-visible conflict, never silently resolved.
func (s *ConfirmationService) replay(ctx context.Context, hold domain.Hold, paymentReference string, result *ConfirmResult) error {
	if hold.PaymentReference != paymentReference {
		return domain.ErrPaymentConflict
	}
	sales, err := s.sales.FindSales(ctx, hold.ID, paymentReference)
	if err != nil {
		return err
	}
	*result = ConfirmResult{Sales: sales, Created: false}
	return nil
}

func validateItems(hold domain.Hold, items []ConfirmItem) error {
	if len(items) == 0 {
		return nil
	}
	if len(items) != 1 {
		return domain.ErrItemMismatch
	}
	if items[0].ItemID != hold.ItemID || items[0].Quantity != hold.Quantity {
		return domain.ErrItemMismatch
	}
	return nil
}
