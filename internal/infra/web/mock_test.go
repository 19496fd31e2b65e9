//go:build !integration

package web_test

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/repository"
	"art-gallery-payments/internal/usecase"
)

// Function-field mocks for the use case interfaces. Handlers only translate
// HTTP to use case calls, so the tests stub exactly the calls they expect.

type mockPaymentUC struct {
	CreateFunc func(ctx context.Context, userID string, amount int64, description string) (*model.Payment, error)
	VerifyFunc func(ctx context.Context, userID, orderID string) (*model.Payment, error)
	ListFunc   func(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, int, error)
}

var _ usecase.PaymentUseCase = (*mockPaymentUC)(nil)

func (m *mockPaymentUC) Create(ctx context.Context, userID string, amount int64, description string) (*model.Payment, error) {
	return m.CreateFunc(ctx, userID, amount, description)
}

func (m *mockPaymentUC) Verify(ctx context.Context, userID, orderID string) (*model.Payment, error) {
	return m.VerifyFunc(ctx, userID, orderID)
}

func (m *mockPaymentUC) List(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, int, error) {
	return m.ListFunc(ctx, userID, offset, limit)
}

type mockWalletUC struct {
	GetFunc      func(ctx context.Context, userID string) (*model.Wallet, error)
	SpendFunc    func(ctx context.Context, userID string, amount int64, description string, txType model.TransactionType) (*model.Transaction, error)
	WithdrawFunc func(ctx context.Context, userID string, amount int64) (*model.Transaction, error)
	HistoryFunc  func(ctx context.Context, userID string, offset, limit int) ([]*model.Transaction, int, error)
}

var _ usecase.WalletUseCase = (*mockWalletUC)(nil)

func (m *mockWalletUC) Get(ctx context.Context, userID string) (*model.Wallet, error) {
	return m.GetFunc(ctx, userID)
}

func (m *mockWalletUC) Spend(ctx context.Context, userID string, amount int64, description string, txType model.TransactionType) (*model.Transaction, error) {
	return m.SpendFunc(ctx, userID, amount, description, txType)
}

func (m *mockWalletUC) Withdraw(ctx context.Context, userID string, amount int64) (*model.Transaction, error) {
	return m.WithdrawFunc(ctx, userID, amount)
}

func (m *mockWalletUC) History(ctx context.Context, userID string, offset, limit int) ([]*model.Transaction, int, error) {
	return m.HistoryFunc(ctx, userID, offset, limit)
}

type mockSubUC struct {
	SubscribeFunc func(ctx context.Context, userID string) (*model.Subscription, error)
	CancelFunc    func(ctx context.Context, userID string) (*model.Subscription, error)
	StatusFunc    func(ctx context.Context, userID string) (*model.Subscription, error)
}

var _ usecase.SubscriptionUseCase = (*mockSubUC)(nil)

func (m *mockSubUC) Subscribe(ctx context.Context, userID string) (*model.Subscription, error) {
	return m.SubscribeFunc(ctx, userID)
}

func (m *mockSubUC) Cancel(ctx context.Context, userID string) (*model.Subscription, error) {
	return m.CancelFunc(ctx, userID)
}

func (m *mockSubUC) AutoRenew(ctx context.Context, userID, subscriptionID string) (*model.Subscription, error) {
	return nil, domain.ErrNotFound
}

func (m *mockSubUC) SweepExpired(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockSubUC) Status(ctx context.Context, userID string) (*model.Subscription, error) {
	return m.StatusFunc(ctx, userID)
}

// mockPaymentLookup implements only the order-id lookup the webhook uses.
type mockPaymentLookup struct {
	byOrder map[string]*model.Payment
}

var _ repository.PaymentRepository = (*mockPaymentLookup)(nil)

func (m *mockPaymentLookup) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	p, ok := m.byOrder[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPaymentLookup) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	return domain.ErrOperationFailed
}

func (m *mockPaymentLookup) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPaymentLookup) FindByUserAndOrderID(ctx context.Context, tx repository.Tx, userID, orderID string) (*model.Payment, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPaymentLookup) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) error {
	return domain.ErrOperationFailed
}

func (m *mockPaymentLookup) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	return nil, nil
}

func (m *mockPaymentLookup) CountByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	return 0, nil
}

func (m *mockPaymentLookup) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	return nil, nil
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
