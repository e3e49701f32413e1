package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketcore/boxoffice/internal/domain"
)

// LedgerRepository maintains the sold/held counters on the items row. Every
// operation is a single conditional UPDATE, so concurrent callers are
// linearized by Postgres row locking and the capacity invariant can never be
// broken by an interleaving.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// TryHold increments held when the item still has room for the quantity.
// The caller is expected to have resolved the item first, so zero affected
// rows means the capacity check failed.
func (r *LedgerRepository) TryHold(ctx context.Context, itemID string, quantity int) error {
	const stmt = `
UPDATE items
SET held = held + $2
WHERE id = $1 AND sold + held + $2 <= capacity`

	tag, err := r.exec(ctx, stmt, itemID, quantity)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("ledger try hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientCapacity
	}
	return nil
}

// Commit moves quantity units from held to sold for a hold transitioning to
// purchased. Zero affected rows means the counters disagree with the hold
// being committed, which is a bookkeeping fault, not a business outcome.
func (r *LedgerRepository) Commit(ctx context.Context, itemID string, quantity int) error {
	const stmt = `
UPDATE items
SET held = held - $2, sold = sold + $2
WHERE id = $1 AND held >= $2`

	tag, err := r.exec(ctx, stmt, itemID, quantity)
	if err != nil {
		return fmt.Errorf("ledger commit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger commit: item %s has fewer than %d held units", itemID, quantity)
	}
	return nil
}

// Release returns quantity units from held to available without touching
// sold.
func (r *LedgerRepository) Release(ctx context.Context, itemID string, quantity int) error {
	const stmt = `
UPDATE items
SET held = held - $2
WHERE id = $1 AND held >= $2`

	tag, err := r.exec(ctx, stmt, itemID, quantity)
	if err != nil {
		return fmt.Errorf("ledger release: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger release: item %s has fewer than %d held units", itemID, quantity)
	}
	return nil
}

func (r *LedgerRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}
