package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketcore/boxoffice/internal/domain"
)

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const holdColumns = `id, item_id, buyer_id, quantity, status, payment_reference, expires_at, created_at`

// FindOfferedHold returns the buyer's offered hold for the item, or nil.
// A partial unique index guarantees at most one such row.
func (r *HoldRepository) FindOfferedHold(ctx context.Context, itemID, buyerID string) (*domain.Hold, error) {
	const query = `
SELECT ` + holdColumns + `
FROM holds
WHERE item_id = $1 AND buyer_id = $2 AND status = 'offered'`

	hold, err := scanHold(r.queryRow(ctx, query, itemID, buyerID))
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find offered hold: %w", err)
	}
	return &hold, nil
}

func (r *HoldRepository) CreateHold(ctx context.Context, hold domain.Hold) error {
	const stmt = `
INSERT INTO holds (id, item_id, buyer_id, quantity, status, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		hold.ID,
		hold.ItemID,
		hold.BuyerID,
		hold.Quantity,
		hold.Status,
		hold.ExpiresAt,
		hold.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateOffer
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrItemNotFound
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

// GetHoldForUpdate loads a hold and takes its row lock, serializing the
// confirmation path against the sweeper for the same hold.
func (r *HoldRepository) GetHoldForUpdate(ctx context.Context, holdID string) (domain.Hold, error) {
	const query = `
SELECT ` + holdColumns + `
FROM holds
WHERE id = $1
FOR UPDATE`

	hold, err := scanHold(r.queryRow(ctx, query, holdID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Hold{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Hold{}, domain.ErrHoldNotFound
		}
		return domain.Hold{}, fmt.Errorf("get hold: %w", err)
	}
	return hold, nil
}

// MarkPurchased transitions offered -> purchased, recording the payment
// reference. Returns false when the hold is no longer offered.
func (r *HoldRepository) MarkPurchased(ctx context.Context, holdID, paymentReference string) (bool, error) {
	const stmt = `
UPDATE holds
SET status = 'purchased', payment_reference = $2
WHERE id = $1 AND status = 'offered'`

	tag, err := r.exec(ctx, stmt, holdID, paymentReference)
	if err != nil {
		return false, fmt.Errorf("mark purchased: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkExpired transitions offered -> expired. Returns false when a
// confirmation already moved the hold.
func (r *HoldRepository) MarkExpired(ctx context.Context, holdID string) (bool, error) {
	const stmt = `
UPDATE holds
SET status = 'expired'
WHERE id = $1 AND status = 'offered'`

	tag, err := r.exec(ctx, stmt, holdID)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListDueHolds returns offered holds whose window elapsed, oldest first.
func (r *HoldRepository) ListDueHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error) {
	const query = `
SELECT ` + holdColumns + `
FROM holds
WHERE status = 'offered' AND expires_at <= $1
ORDER BY expires_at ASC
LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due holds: %w", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		hold, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due hold: %w", err)
		}
		holds = append(holds, hold)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate due holds: %w", rows.Err())
	}
	return holds, nil
}

func scanHold(row pgx.Row) (domain.Hold, error) {
	var h domain.Hold
	var ref *string
	err := row.Scan(&h.ID, &h.ItemID, &h.BuyerID, &h.Quantity, &h.Status, &ref, &h.ExpiresAt, &h.CreatedAt)
	if err != nil {
		return domain.Hold{}, err
	}
	if ref != nil {
		h.PaymentReference = *ref
	}
	return h, nil
}

func (r *HoldRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *HoldRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
