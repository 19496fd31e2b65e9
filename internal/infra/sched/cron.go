package sched

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain/ports/repository"
	"art-gallery-payments/internal/infra/metrics"
	"art-gallery-payments/internal/usecase"
)

// CronJobs owns the calendar-scheduled maintenance: the subscription expiry
// sweep and the daily withdrawal-counter reset. Both jobs are idempotent, so
// a missed or doubled firing cannot corrupt state.
type CronJobs struct {
	cron    *cron.Cron
	subUC   usecase.SubscriptionUseCase
	wallets repository.WalletRepository
	log     *zerolog.Logger
}

func NewCronJobs(subUC usecase.SubscriptionUseCase, wallets repository.WalletRepository, logger *zerolog.Logger) *CronJobs {
	l := logger.With().Str("component", "CronJobs").Logger()
	return &CronJobs{
		cron:    cron.New(),
		subUC:   subUC,
		wallets: wallets,
		log:     &l,
	}
}

// Start registers the jobs and begins scheduling. expirySpec and withdrawSpec
// are standard 5-field cron expressions.
func (c *CronJobs) Start(ctx context.Context, expirySpec, withdrawSpec string) error {
	if _, err := c.cron.AddFunc(expirySpec, func() {
		if _, err := c.subUC.SweepExpired(ctx); err != nil {
			c.log.Error().Err(err).Msg("expiry sweep failed")
		}
	}); err != nil {
		return err
	}

	if _, err := c.cron.AddFunc(withdrawSpec, func() {
		n, err := c.wallets.ResetDailyWithdrawals(ctx, nil)
		if err != nil {
			c.log.Error().Err(err).Msg("withdrawal counter reset failed")
			return
		}
		metrics.AddWalletResets(n)
		c.log.Info().Int64("wallets", n).Msg("daily withdrawal counters reset")
	}); err != nil {
		return err
	}

	c.cron.Start()
	c.log.Info().Str("expiry", expirySpec).Str("withdraw", withdrawSpec).Msg("cron jobs started")
	return nil
}

func (c *CronJobs) Stop() {
	<-c.cron.Stop().Done()
	c.log.Info().Msg("cron jobs stopped")
}
