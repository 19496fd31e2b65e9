// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/repository"
	"art-gallery-payments/internal/infra/logging"
	"art-gallery-payments/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	// Subscribe charges the subscription price from the user's wallet and
	// activates a one-interval premium window with auto-renew enabled.
	// Rejected with domain.ErrActiveSubscriptionExists when already active;
	// no charge is attempted in that case.
	Subscribe(ctx context.Context, userID string) (*model.Subscription, error)
	// Cancel flips an active subscription to cancelled and disables
	// auto-renew; the entitlement survives until the end date.
	Cancel(ctx context.Context, userID string) (*model.Subscription, error)
	// AutoRenew attempts the renewal charge for one due subscription.
	// A failed charge expires the subscription and disables auto-renew.
	AutoRenew(ctx context.Context, userID, subscriptionID string) (*model.Subscription, error)
	// SweepExpired moves overdue active/cancelled subscriptions to expired
	// and returns how many changed. Idempotent; the renewal timers are
	// best-effort and this sweep is the correctness backstop.
	SweepExpired(ctx context.Context) (int64, error)
	// Status reports the user's subscription with its effective status
	// (nil when the user never subscribed).
	Status(ctx context.Context, userID string) (*model.Subscription, error)
}

type subscriptionUC struct {
	subs      repository.SubscriptionRepository
	wallet    WalletUseCase
	price     int64
	interval  time.Duration
	renewLead time.Duration
	log       *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	wallet WalletUseCase,
	price int64,
	interval, renewLead time.Duration,
	logger *zerolog.Logger,
) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{
		subs:      subs,
		wallet:    wallet,
		price:     price,
		interval:  interval,
		renewLead: renewLead,
		log:       &l,
	}
}

const premiumDescription = "Premium subscription monthly fee"

func (u *subscriptionUC) Subscribe(ctx context.Context, userID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Subscribe")()

	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	existing, err := u.subs.FindByUser(ctx, nil, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	// The active check and the charge are separate steps: two racing
	// subscribes for one user can both pass here and both charge. The
	// user_id upsert below still converges on a single row.
	if existing != nil && existing.EffectiveStatus(time.Now()) == model.SubscriptionStatusActive {
		return nil, domain.ErrActiveSubscriptionExists
	}

	charge, err := u.wallet.Spend(ctx, userID, u.price, premiumDescription, model.TransactionTypeSubscription)
	if err != nil {
		return nil, err
	}

	sub := u.renewed(existing, userID, charge.OrderID)
	if err := u.subs.Save(ctx, nil, sub); err != nil {
		return nil, err
	}

	u.log.Info().Str("user_id", userID).Time("end_date", sub.EndDate).Msg("premium subscription activated")
	return sub, nil
}

func (u *subscriptionUC) Cancel(ctx context.Context, userID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Cancel")()

	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	sub, err := u.subs.FindByUser(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveSubscription
		}
		return nil, err
	}
	if sub.EffectiveStatus(time.Now()) != model.SubscriptionStatusActive {
		return nil, domain.ErrNoActiveSubscription
	}

	sub.Status = model.SubscriptionStatusCancelled
	sub.AutoRenew = false
	sub.NextPaymentAt = nil
	sub.UpdatedAt = time.Now()
	if err := u.subs.Save(ctx, nil, sub); err != nil {
		return nil, err
	}

	u.log.Info().Str("user_id", userID).Time("end_date", sub.EndDate).Msg("premium subscription cancelled, grace until end date")
	return sub, nil
}

func (u *subscriptionUC) AutoRenew(ctx context.Context, userID, subscriptionID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.AutoRenew")()

	sub, err := u.subs.FindByID(ctx, nil, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrNotFound
	}

	// Re-validate: the subscription may have been cancelled or swept since
	// it was listed as due.
	if sub.Status != model.SubscriptionStatusActive || !sub.AutoRenew {
		metrics.IncRenewal("skipped")
		return sub, nil
	}

	charge, err := u.wallet.Spend(ctx, userID, u.price, premiumDescription+" (auto-renewal)", model.TransactionTypeSubscription)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			// Fail closed: expire rather than leave a phantom active
			// subscription or retry the charge indefinitely.
			sub.Status = model.SubscriptionStatusExpired
			sub.AutoRenew = false
			sub.NextPaymentAt = nil
			sub.UpdatedAt = time.Now()
			if saveErr := u.subs.Save(ctx, nil, sub); saveErr != nil {
				return nil, saveErr
			}
			metrics.IncRenewal("expired")
			u.log.Warn().Str("user_id", userID).Msg("renewal charge failed, subscription expired")
			return sub, nil
		}
		metrics.IncRenewal("error")
		return nil, err
	}

	renewed := u.renewed(sub, userID, charge.OrderID)
	if err := u.subs.Save(ctx, nil, renewed); err != nil {
		return nil, err
	}

	metrics.IncRenewal("renewed")
	u.log.Info().Str("user_id", userID).Time("end_date", renewed.EndDate).Msg("premium subscription renewed")
	return renewed, nil
}

func (u *subscriptionUC) SweepExpired(ctx context.Context) (int64, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.SweepExpired")()

	n, err := u.subs.ExpireOverdue(ctx, nil, time.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.IncSubscriptionsExpired(n)
		u.log.Info().Int64("count", n).Msg("expired subscriptions swept")
	}
	return n, nil
}

func (u *subscriptionUC) Status(ctx context.Context, userID string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Status")()

	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	sub, err := u.subs.FindByUser(ctx, nil, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return sub, err
}

// renewed produces the next active window for a fresh or renewing
// subscription, keeping the existing row identity when there is one.
func (u *subscriptionUC) renewed(existing *model.Subscription, userID, orderID string) *model.Subscription {
	now := time.Now()
	end := now.Add(u.interval)
	next := end.Add(-u.renewLead)

	sub := existing
	if sub == nil {
		sub = &model.Subscription{ID: uuid.NewString(), UserID: userID, CreatedAt: now}
	}
	sub.Status = model.SubscriptionStatusActive
	sub.StartDate = now
	sub.EndDate = end
	sub.AutoRenew = true
	sub.LastPaymentAt = &now
	sub.NextPaymentAt = &next
	sub.OrderID = orderID
	sub.UpdatedAt = now
	return sub
}
