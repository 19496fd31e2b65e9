package repository

import (
	"context"
	"time"

	"art-gallery-payments/internal/domain/model"
)

// SubscriptionRepository persists premium subscriptions; one current row per
// user, upserted on renewal.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// ListDueForRenewal returns active auto-renew subscriptions whose
	// next_payment_at has passed. This is the durable renewal-due index the
	// renewal worker polls; it survives restarts by construction.
	ListDueForRenewal(ctx context.Context, tx Tx, due time.Time, limit int) ([]*model.Subscription, error)
	// ExpireOverdue sweeps active/cancelled subscriptions whose end date has
	// passed to expired and returns how many rows changed. Idempotent.
	ExpireOverdue(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
