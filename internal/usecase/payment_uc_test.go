//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/adapter"
	"art-gallery-payments/internal/usecase"
)

// paymentUCTestDeps holds all the mock dependencies for the payment use case tests.
type paymentUCTestDeps struct {
	payments *MockPaymentRepo
	ledger   *MockTransactionRepo
	wallets  *MockWalletRepo
	gateway  *MockGateway
	tm       *MockTxManager
}

func newPaymentUCDeps() *paymentUCTestDeps {
	return &paymentUCTestDeps{
		payments: NewMockPaymentRepo(),
		ledger:   NewMockTransactionRepo(),
		wallets:  NewMockWalletRepo(),
		gateway:  NewMockGateway(),
		tm:       NewMockTxManager(),
	}
}

func (d *paymentUCTestDeps) newUC() usecase.PaymentUseCase {
	return usecase.NewPaymentUseCase(
		d.payments, d.ledger, d.wallets, d.gateway, d.tm,
		nil, 0, "https://gallery.test/cancel", "https://gallery.test/return", newTestLogger(),
	)
}

func TestPaymentUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a pending payment with a matching ledger entry", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()

		p, err := uc.Create(ctx, "user-1", 50000, "Deposit for artwork purchase")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if p.Status != model.PaymentStatusPending {
			t.Errorf("expected payment status PENDING, got %s", p.Status)
		}
		if p.CheckoutURL == "" {
			t.Error("expected a checkout URL")
		}
		if p.OrderID == "" {
			t.Fatal("expected an order id")
		}

		entry, err := deps.ledger.FindByOrderID(ctx, nil, p.OrderID)
		if err != nil {
			t.Fatalf("expected a ledger entry for the order: %v", err)
		}
		if entry.Status != model.TransactionStatusPending {
			t.Errorf("expected ledger entry PENDING, got %s", entry.Status)
		}
		if entry.Amount != 50000 || entry.Type != model.TransactionTypeDeposit {
			t.Errorf("ledger entry mismatch: amount=%d type=%s", entry.Amount, entry.Type)
		}

		wallet, err := deps.wallets.FindByUser(ctx, nil, "user-1")
		if err != nil {
			t.Fatalf("expected a wallet to be created: %v", err)
		}
		if wallet.Balance != 0 {
			t.Errorf("creating a payment must not credit the wallet, balance=%d", wallet.Balance)
		}
	})

	t.Run("should persist nothing when the gateway rejects checkout", func(t *testing.T) {
		deps := newPaymentUCDeps()
		gwErr := errors.New("gateway down")
		deps.gateway.CreateCheckoutFunc = func(ctx context.Context, req adapter.CheckoutRequest) (string, error) {
			return "", gwErr
		}
		uc := deps.newUC()

		_, err := uc.Create(ctx, "user-1", 50000, "")
		if !errors.Is(err, gwErr) {
			t.Fatalf("expected the gateway error, got %v", err)
		}
		if n, _ := deps.payments.CountByUser(ctx, nil, "user-1"); n != 0 {
			t.Errorf("expected no payment rows, got %d", n)
		}
	})

	t.Run("should reject non-positive amounts", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		for _, amount := range []int64{0, -1} {
			if _, err := uc.Create(ctx, "user-1", amount, ""); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("amount %d: expected ErrInvalidArgument, got %v", amount, err)
			}
		}
	})
}

func TestPaymentUseCase_Verify(t *testing.T) {
	ctx := context.Background()

	// createPaid sets up a pending payment whose checkout the gateway has
	// already confirmed as paid.
	createPaid := func(t *testing.T, deps *paymentUCTestDeps, uc usecase.PaymentUseCase, amount int64) *model.Payment {
		t.Helper()
		p, err := uc.Create(ctx, "user-1", amount, "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		deps.gateway.SetStatus(p.OrderID, model.GatewayStatusPaid)
		return p
	}

	t.Run("should credit the wallet on the first paid observation", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		p := createPaid(t, deps, uc, 50000)

		got, err := uc.Verify(ctx, "user-1", p.OrderID)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if got.Status != model.PaymentStatusPaid {
			t.Errorf("expected payment PAID, got %s", got.Status)
		}
		if got.PaidAt == nil {
			t.Error("expected PaidAt to be set")
		}

		wallet, _ := deps.wallets.FindByUser(ctx, nil, "user-1")
		if wallet.Balance != 50000 {
			t.Errorf("expected balance 50000, got %d", wallet.Balance)
		}
		entry, _ := deps.ledger.FindByOrderID(ctx, nil, p.OrderID)
		if entry.Status != model.TransactionStatusPaid {
			t.Errorf("expected ledger entry PAID, got %s", entry.Status)
		}
	})

	t.Run("should not credit while the gateway still reports pending", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		p, err := uc.Create(ctx, "user-1", 50000, "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		got, err := uc.Verify(ctx, "user-1", p.OrderID)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if got.Status != model.PaymentStatusPending {
			t.Errorf("expected payment still PENDING, got %s", got.Status)
		}
		wallet, _ := deps.wallets.FindByUser(ctx, nil, "user-1")
		if wallet.Balance != 0 {
			t.Errorf("expected balance 0, got %d", wallet.Balance)
		}
	})

	t.Run("should credit exactly once across repeated verifies", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		p := createPaid(t, deps, uc, 50000)

		for i := 0; i < 3; i++ {
			if _, err := uc.Verify(ctx, "user-1", p.OrderID); err != nil {
				t.Fatalf("verify #%d: %v", i+1, err)
			}
		}
		wallet, _ := deps.wallets.FindByUser(ctx, nil, "user-1")
		if wallet.Balance != 50000 {
			t.Errorf("expected balance 50000 after 3 verifies, got %d", wallet.Balance)
		}
	})

	t.Run("should credit exactly once under concurrent verifies", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		p := createPaid(t, deps, uc, 50000)

		// Webhook, return-URL poll and reconciler all landing at once.
		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := uc.Verify(ctx, "user-1", p.OrderID); err != nil {
					t.Errorf("concurrent verify: %v", err)
				}
			}()
		}
		wg.Wait()

		wallet, _ := deps.wallets.FindByUser(ctx, nil, "user-1")
		if wallet.Balance != 50000 {
			t.Errorf("expected balance exactly 50000, got %d", wallet.Balance)
		}
	})

	t.Run("should settle cancelled checkouts without crediting", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		p, err := uc.Create(ctx, "user-1", 50000, "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		deps.gateway.SetStatus(p.OrderID, model.GatewayStatusCancelled)

		got, err := uc.Verify(ctx, "user-1", p.OrderID)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if got.Status != model.PaymentStatusCancelled {
			t.Errorf("expected payment CANCELLED, got %s", got.Status)
		}
		entry, _ := deps.ledger.FindByOrderID(ctx, nil, p.OrderID)
		if entry.Status != model.TransactionStatusFailed {
			t.Errorf("expected ledger entry FAILED, got %s", entry.Status)
		}
		wallet, _ := deps.wallets.FindByUser(ctx, nil, "user-1")
		if wallet.Balance != 0 {
			t.Errorf("expected balance 0, got %d", wallet.Balance)
		}
	})

	t.Run("should mutate nothing when the gateway is unreachable", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		p, err := uc.Create(ctx, "user-1", 50000, "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		deps.gateway.GetStatusFunc = func(ctx context.Context, orderID string) (adapter.OrderInfo, error) {
			return adapter.OrderInfo{}, errors.New("connection refused")
		}

		_, err = uc.Verify(ctx, "user-1", p.OrderID)
		if !errors.Is(err, domain.ErrVerificationFailed) {
			t.Fatalf("expected ErrVerificationFailed, got %v", err)
		}
		stored, _ := deps.payments.FindByID(ctx, nil, p.ID)
		if stored.Status != model.PaymentStatusPending {
			t.Errorf("expected payment untouched (PENDING), got %s", stored.Status)
		}
	})

	t.Run("should reject a gateway response with a different amount", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		p, err := uc.Create(ctx, "user-1", 50000, "")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		deps.gateway.SetOrder(adapter.OrderInfo{OrderID: p.OrderID, Status: model.GatewayStatusPaid, Amount: 1})

		_, err = uc.Verify(ctx, "user-1", p.OrderID)
		if !errors.Is(err, domain.ErrGatewayMismatch) {
			t.Fatalf("expected ErrGatewayMismatch, got %v", err)
		}
		wallet, _ := deps.wallets.FindByUser(ctx, nil, "user-1")
		if wallet.Balance != 0 {
			t.Errorf("expected balance 0 after mismatch, got %d", wallet.Balance)
		}
	})

	t.Run("should not let one user verify another user's order", func(t *testing.T) {
		deps := newPaymentUCDeps()
		uc := deps.newUC()
		p := createPaid(t, deps, uc, 50000)

		if _, err := uc.Verify(ctx, "user-2", p.OrderID); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for foreign order, got %v", err)
		}
		wallet, _ := deps.wallets.FindByUser(ctx, nil, "user-1")
		if wallet.Balance != 0 {
			t.Errorf("expected owner's balance untouched, got %d", wallet.Balance)
		}
	})

	t.Run("should backfill wallet and ledger entry for an orphan payment", func(t *testing.T) {
		// A payment row that predates its wallet and ledger entry, as after a
		// partial crash during creation.
		deps := newPaymentUCDeps()
		uc := deps.newUC()

		now := time.Now()
		p := &model.Payment{
			ID:        uuid.NewString(),
			UserID:    "user-9",
			Amount:    30000,
			OrderID:   "ORDER-ORPHAN",
			Status:    model.PaymentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := deps.payments.Save(ctx, nil, p); err != nil {
			t.Fatalf("seed payment: %v", err)
		}
		deps.gateway.SetOrder(adapter.OrderInfo{OrderID: p.OrderID, Status: model.GatewayStatusPaid, Amount: 30000})

		if _, err := uc.Verify(ctx, "user-9", p.OrderID); err != nil {
			t.Fatalf("verify: %v", err)
		}
		wallet, err := deps.wallets.FindByUser(ctx, nil, "user-9")
		if err != nil {
			t.Fatalf("expected a wallet to be created lazily: %v", err)
		}
		if wallet.Balance != 30000 {
			t.Errorf("expected balance 30000, got %d", wallet.Balance)
		}
		entry, err := deps.ledger.FindByOrderID(ctx, nil, p.OrderID)
		if err != nil {
			t.Fatalf("expected a ledger entry to be created: %v", err)
		}
		if entry.Status != model.TransactionStatusPaid {
			t.Errorf("expected ledger entry PAID, got %s", entry.Status)
		}
	})
}

func TestPaymentUseCase_List(t *testing.T) {
	ctx := context.Background()
	deps := newPaymentUCDeps()
	uc := deps.newUC()

	for i := 0; i < 5; i++ {
		if _, err := uc.Create(ctx, "user-1", int64(1000*(i+1)), ""); err != nil {
			t.Fatalf("create #%d: %v", i, err)
		}
	}
	if _, err := uc.Create(ctx, "user-2", 999, ""); err != nil {
		t.Fatalf("create other user: %v", err)
	}

	items, total, err := uc.List(ctx, "user-1", 0, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 items, got %d", len(items))
	}
}
