package repository

import (
	"context"
	"time"

	"art-gallery-payments/internal/domain/model"
)

// PaymentRepository persists payment attempts. Rows are append/update only;
// the order id is immutable once written.
type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindByUserAndOrderID scopes the lookup to the owning user so one user
	// can never verify (or observe) another user's payment.
	FindByUserAndOrderID(ctx context.Context, tx Tx, userID, orderID string) (*model.Payment, error)
	// FindByOrderID is the unscoped lookup for gateway webhooks, which carry
	// an order id but no user identity.
	FindByOrderID(ctx context.Context, tx Tx, orderID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, paidAt *time.Time) error
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Payment, error)
	CountByUser(ctx context.Context, tx Tx, userID string) (int, error)
	// ListPendingOlderThan feeds the reconciler with stale pending attempts.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
