package app

import (
	"context"

	"github.com/ticketcore/boxoffice/internal/domain"
)

// CatalogReader is the read-only view of the catalog service. The core never
// writes through it.
type CatalogReader interface {
	GetItem(ctx context.Context, itemID string) (domain.Item, error)
}

// Ledger tracks sold and held counters per catalog item. Each operation is a
// single atomic update; TryHold fails with domain.ErrInsufficientCapacity
// when the item cannot accommodate the quantity.
type Ledger interface {
	TryHold(ctx context.Context, itemID string, quantity int) error
	Commit(ctx context.Context, itemID string, quantity int) error
	Release(ctx context.Context, itemID string, quantity int) error
}
