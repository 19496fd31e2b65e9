package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain/ports/repository"
	"art-gallery-payments/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and runs
// them through Verify. This covers webhooks that never arrived and users who
// paid but closed the tab before the return redirect; Verify is idempotent,
// so re-checking an order that settles meanwhile is harmless.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to re-check
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, payments repository.PaymentRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{uc: uc, payments: payments, interval: interval, staleAfter: staleAfter, log: &l}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list pending payments failed")
		return
	}
	for _, p := range pending {
		if _, err := w.uc.Verify(ctx, p.UserID, p.OrderID); err != nil {
			w.log.Warn().Err(err).Str("order_id", p.OrderID).Msg("reconcile verify failed")
			continue
		}
		w.log.Info().Str("order_id", p.OrderID).Msg("pending payment reconciled")
	}
}
