package repository

import (
	"context"
	"time"

	"subscription-payments/internal/domain/model"
)

// PaymentRepository is the durable store of payment records. Status is
// only ever mutated through TryTransition.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByTransactionID(ctx context.Context, tx Tx, transactionID string) (*model.Payment, error)

	// TryTransition is a compare-and-swap: the write succeeds only if the
	// stored status is still pending at write time. On failure it reports
	// applied=false and the status that actually won; that is not an
	// error. Details (if any) are merged into the payment's JSONB blob on
	// the winning write.
	TryTransition(ctx context.Context, tx Tx, transactionID string, to model.PaymentStatus, details map[string]interface{}) (applied bool, current model.PaymentStatus, err error)

	// ListPendingOlderThan feeds the stale-payment reconciliation worker.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
