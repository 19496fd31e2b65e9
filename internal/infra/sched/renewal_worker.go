package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain/ports/repository"
	"art-gallery-payments/internal/infra/worker"
	"art-gallery-payments/internal/usecase"
)

// RenewalWorker polls the persisted renewal-due index and hands each due
// subscription to the worker pool for its charge. The index lives in the
// database, so due renewals survive restarts; a subscription stays listed
// until the charge either succeeds or expires it.
type RenewalWorker struct {
	interval time.Duration
	batch    int
	subs     repository.SubscriptionRepository
	subUC    usecase.SubscriptionUseCase
	pool     *worker.Pool
	log      *zerolog.Logger
}

func NewRenewalWorker(interval time.Duration, subs repository.SubscriptionRepository, subUC usecase.SubscriptionUseCase, pool *worker.Pool, logger *zerolog.Logger) *RenewalWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "RenewalWorker").Logger()
	return &RenewalWorker{
		interval: interval,
		batch:    100,
		subs:     subs,
		subUC:    subUC,
		pool:     pool,
		log:      &l,
	}
}

func (w *RenewalWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting renewal worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping renewal worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RenewalWorker) tick(ctx context.Context) {
	due, err := w.subs.ListDueForRenewal(ctx, nil, time.Now(), w.batch)
	if err != nil {
		w.log.Error().Err(err).Msg("list due renewals failed")
		return
	}
	for _, s := range due {
		userID, subID := s.UserID, s.ID
		err := w.pool.Submit(func(ctx context.Context) error {
			// AutoRenew re-validates state, so a stale listing is harmless.
			_, err := w.subUC.AutoRenew(ctx, userID, subID)
			return err
		})
		if err != nil {
			// Queue saturated; the next poll lists the subscription again.
			w.log.Warn().Err(err).Str("subscription_id", subID).Msg("renewal submit dropped")
		}
	}
}
