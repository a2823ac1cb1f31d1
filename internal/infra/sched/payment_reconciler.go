package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subscription-payments/internal/domain/model"
	"subscription-payments/internal/domain/ports/adapter"
	"subscription-payments/internal/domain/ports/repository"
	"subscription-payments/internal/infra/metrics"
	"subscription-payments/internal/infra/worker"
	"subscription-payments/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and
// tries to finalize them by polling the gateway and folding the answer
// through the reconcile use case. This covers the cases where the
// callback was lost or the process crashed mid-settlement.
type PaymentReconciler struct {
	reconcileUC usecase.ReconcileUseCase
	payments    repository.PaymentRepository
	gateway     adapter.GatewayClient
	pool        *worker.Pool
	interval    time.Duration // how often to scan
	staleAfter  time.Duration // how old a pending payment must be to retry
	log         *zerolog.Logger
}

func NewPaymentReconciler(
	reconcileUC usecase.ReconcileUseCase,
	payments repository.PaymentRepository,
	gw adapter.GatewayClient,
	pool *worker.Pool,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	wlog := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		reconcileUC: reconcileUC,
		payments:    payments,
		gateway:     gw,
		pool:        pool,
		interval:    interval,
		staleAfter:  staleAfter,
		log:         &wlog,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment reconciler")
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending failed")
		return
	}
	for _, p := range pending {
		txnID := p.TransactionID
		task := func(ctx context.Context) error {
			state, err := w.gateway.QueryStatus(ctx, txnID)
			if err != nil {
				metrics.IncGatewayCall("query_status", "error")
				return err
			}
			metrics.IncGatewayCall("query_status", "ok")
			res, err := w.reconcileUC.Reconcile(ctx, txnID, *state)
			if err != nil {
				return err
			}
			if res.NewlyTerminal && res.Status == model.PaymentStatusCompleted {
				metrics.IncSubscriptionActivated()
			}
			return nil
		}
		if err := w.pool.Submit(task); err != nil {
			w.log.Warn().Err(err).Str("txn_id", txnID).Msg("reconcile task dropped")
		}
	}
}
