package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-payments/internal/domain"
	"subscription-payments/internal/domain/model"
	"subscription-payments/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, transaction_id, merchant_order_id, user_id, subscription_id, amount, plan_title, billing, status, details, created_at, updated_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, transaction_id, merchant_order_id, user_id, subscription_id, amount, plan_title, billing, status, details, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.TransactionID, p.MerchantOrderID, p.UserID, p.SubscriptionID, p.Amount, p.PlanTitle, p.Billing, p.Status, p.Details, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, transactionID)
	if err != nil {
		return nil, err
	}

	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.TransactionID, &p.MerchantOrderID, &p.UserID, &p.SubscriptionID, &p.Amount, &p.PlanTitle, &p.Billing, &p.Status, &p.Details, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

// TryTransition atomically moves a payment out of pending. The UPDATE is
// guarded on status='pending'; when no row is touched the stored status
// already won and is returned as-is. Observed gateway details are merged
// into the JSONB blob only on the winning write.
func (r *paymentRepo) TryTransition(ctx context.Context, tx repository.Tx, transactionID string, to model.PaymentStatus, details map[string]interface{}) (bool, model.PaymentStatus, error) {
	const q = `
    UPDATE payments
       SET status = $2,
           details = COALESCE(details, '{}'::jsonb) || COALESCE($3::jsonb, '{}'::jsonb),
           updated_at = NOW()
     WHERE transaction_id = $1
       AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, transactionID, string(to), details)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, "", err
		}
		return false, "", domain.ErrOperationFailed
	}
	if cmd.RowsAffected() >= 1 {
		return true, to, nil
	}

	row, err := pickRow(ctx, r.pool, tx, `SELECT status FROM payments WHERE transaction_id=$1;`, transactionID)
	if err != nil {
		return false, "", err
	}
	var current model.PaymentStatus
	if err := row.Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, "", domain.ErrNotFound
		}
		return false, "", domain.ErrReadDatabaseRow
	}
	return false, current, nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, domain.ErrNotFound
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p := new(model.Payment)
		if err := rows.Scan(&p.ID, &p.TransactionID, &p.MerchantOrderID, &p.UserID, &p.SubscriptionID, &p.Amount, &p.PlanTitle, &p.Billing, &p.Status, &p.Details, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	return out, nil
}
