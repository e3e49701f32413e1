package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketcore/boxoffice/internal/domain"
)

type SaleRepository struct {
	pool *pgxpool.Pool
}

func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// CreateSales inserts one row per ticket unit. The (hold_id, seq) unique
// constraint makes a second confirmation batch for the same hold impossible,
// whatever reference it carries.
func (r *SaleRepository) CreateSales(ctx context.Context, sales []domain.Sale) error {
	const stmt = `
INSERT INTO sales (id, item_id, hold_id, buyer_id, payment_reference, seq, amount, status, confirmed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for i, sale := range sales {
		_, err := r.exec(ctx, stmt,
			sale.ID,
			sale.ItemID,
			sale.HoldID,
			sale.BuyerID,
			sale.PaymentReference,
			i+1,
			sale.Amount,
			sale.Status,
			sale.ConfirmedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrPaymentConflict
			}
			if isForeignKeyViolation(err) {
				return domain.ErrHoldNotFound
			}
			return fmt.Errorf("create sale: %w", err)
		}
	}
	return nil
}

func (r *SaleRepository) FindSales(ctx context.Context, holdID, paymentReference string) ([]domain.Sale, error) {
	const query = `
SELECT id, item_id, hold_id, buyer_id, payment_reference, amount, status, confirmed_at
FROM sales
WHERE hold_id = $1 AND payment_reference = $2
ORDER BY seq ASC`

	rows, err := r.query(ctx, query, holdID, paymentReference)
	if err != nil {
		return nil, fmt.Errorf("find sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(&s.ID, &s.ItemID, &s.HoldID, &s.BuyerID, &s.PaymentReference, &s.Amount, &s.Status, &s.ConfirmedAt); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate sales: %w", rows.Err())
	}
	return sales, nil
}

func (r *SaleRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *SaleRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
