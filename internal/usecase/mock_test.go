//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/adapter"
	"art-gallery-payments/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

// MockGateway keeps gateway-side order state in memory. Tests drive checkout
// outcomes through SetStatus, or override behavior entirely via the Funcs.
type MockGateway struct {
	mu     sync.Mutex
	orders map[string]adapter.OrderInfo

	CreateCheckoutFunc func(ctx context.Context, req adapter.CheckoutRequest) (string, error)
	GetStatusFunc      func(ctx context.Context, orderID string) (adapter.OrderInfo, error)
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func NewMockGateway() *MockGateway {
	return &MockGateway{orders: make(map[string]adapter.OrderInfo)}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (string, error) {
	if g.CreateCheckoutFunc != nil {
		return g.CreateCheckoutFunc(ctx, req)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[req.OrderID] = adapter.OrderInfo{
		OrderID: req.OrderID,
		Status:  model.GatewayStatusPending,
		Amount:  req.Amount,
	}
	return "https://checkout.test/pay/" + req.OrderID, nil
}

func (g *MockGateway) GetStatus(ctx context.Context, orderID string) (adapter.OrderInfo, error) {
	if g.GetStatusFunc != nil {
		return g.GetStatusFunc(ctx, orderID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	info, ok := g.orders[orderID]
	if !ok {
		return adapter.OrderInfo{}, domain.ErrNotFound
	}
	return info, nil
}

// SetStatus simulates the user completing or abandoning checkout.
func (g *MockGateway) SetStatus(orderID string, status model.GatewayStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if info, ok := g.orders[orderID]; ok {
		info.Status = status
		g.orders[orderID] = info
	}
}

// SetOrder plants an arbitrary gateway-side order, mismatches included.
func (g *MockGateway) SetOrder(info adapter.OrderInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[info.OrderID] = info
}

// =============================
// Repositories
// =============================

// ---- Mock PaymentRepo ----

type MockPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Payment // by ID

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByUserAndOrderID(ctx context.Context, tx repository.Tx, userID, orderID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.UserID == userID && p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.OrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, paidAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, offset, limit), nil
}

func (m *MockPaymentRepo) CountByUser(ctx context.Context, tx repository.Tx, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.store {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Mock TransactionRepo (ledger) ----

// MockTransactionRepo mirrors the conditional-write semantics of the real
// ledger table: Save is insert-if-absent on order id and the Mark* methods
// transition only from PENDING, under one mutex, so concurrency tests
// exercise the same at-most-once behavior the database enforces.
type MockTransactionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Transaction // by OrderID
}

var _ repository.TransactionRepository = (*MockTransactionRepo)(nil)

func NewMockTransactionRepo() *MockTransactionRepo {
	return &MockTransactionRepo{store: make(map[string]*model.Transaction)}
}

func (m *MockTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[t.OrderID]; ok {
		return nil // existing row wins
	}
	cp := *t
	m.store[t.OrderID] = &cp
	return nil
}

func (m *MockTransactionRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepo) MarkPaidIfPending(ctx context.Context, tx repository.Tx, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[orderID]
	if !ok || t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = model.TransactionStatusPaid
	t.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockTransactionRepo) MarkFailedIfPending(ctx context.Context, tx repository.Tx, orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[orderID]
	if !ok || t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = model.TransactionStatusFailed
	t.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockTransactionRepo) ListByWallet(ctx context.Context, tx repository.Tx, walletID string, offset, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.store {
		if t.WalletID == walletID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, offset, limit), nil
}

func (m *MockTransactionRepo) CountByWallet(ctx context.Context, tx repository.Tx, walletID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.store {
		if t.WalletID == walletID {
			n++
		}
	}
	return n, nil
}

// ---- Mock WalletRepo ----

type MockWalletRepo struct {
	mu     sync.Mutex
	byUser map[string]*model.Wallet
	byID   map[string]*model.Wallet

	CreateFunc func(ctx context.Context, tx repository.Tx, w *model.Wallet) error
}

var _ repository.WalletRepository = (*MockWalletRepo)(nil)

func NewMockWalletRepo() *MockWalletRepo {
	return &MockWalletRepo{
		byUser: make(map[string]*model.Wallet),
		byID:   make(map[string]*model.Wallet),
	}
}

func (m *MockWalletRepo) Create(ctx context.Context, tx repository.Tx, w *model.Wallet) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, w)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUser[w.UserID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *w
	m.byUser[w.UserID] = &cp
	m.byID[w.ID] = &cp
	return nil
}

func (m *MockWalletRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (m *MockWalletRepo) CreditBalance(ctx context.Context, tx repository.Tx, walletID string, amount int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.byID[walletID]
	if !ok {
		return false, nil
	}
	w.Balance += amount
	w.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockWalletRepo) DebitBalanceIfSufficient(ctx context.Context, tx repository.Tx, walletID string, amount int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.byID[walletID]
	if !ok || w.Balance < amount {
		return false, nil
	}
	w.Balance -= amount
	w.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockWalletRepo) DebitForWithdrawal(ctx context.Context, tx repository.Tx, walletID string, amount, dailyLimit int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.byID[walletID]
	if !ok || w.Balance < amount {
		return false, nil
	}
	if dailyLimit > 0 && w.WithdrawnToday+amount > dailyLimit {
		return false, nil
	}
	w.Balance -= amount
	w.WithdrawnToday += amount
	w.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockWalletRepo) ResetDailyWithdrawals(ctx context.Context, tx repository.Tx) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, w := range m.byID {
		if w.WithdrawnToday != 0 {
			w.WithdrawnToday = 0
			w.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// Balance is a test helper reading the live balance directly.
func (m *MockWalletRepo) Balance(walletID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.byID[walletID]; ok {
		return w.Balance
	}
	return -1
}

// ---- Mock SubscriptionRepo ----

type MockSubscriptionRepo struct {
	mu   sync.RWMutex
	subs map[string]*model.Subscription // by UserID; one current row per user
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: make(map[string]*model.Subscription)}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.UserID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.subs {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) ListDueForRenewal(ctx context.Context, tx repository.Tx, due time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.Status == model.SubscriptionStatusActive && s.AutoRenew && s.NextPaymentAt != nil && !s.NextPaymentAt.After(due) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextPaymentAt.Before(*out[j].NextPaymentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockSubscriptionRepo) ExpireOverdue(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.subs {
		switch s.Status {
		case model.SubscriptionStatusActive, model.SubscriptionStatusCancelled:
			if s.EndDate.Before(now) {
				s.Status = model.SubscriptionStatusExpired
				s.AutoRenew = false
				s.NextPaymentAt = nil
				s.UpdatedAt = now
				n++
			}
		}
	}
	return n, nil
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately without a real transaction unless a
// test installs WithTxFunc. The mock repositories are individually atomic, so
// the conditional-write semantics under test still hold.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrLockNotAcquired
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
