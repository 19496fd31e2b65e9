// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/adapter"
	"art-gallery-payments/internal/domain/ports/repository"
	"art-gallery-payments/internal/infra/logging"
	"art-gallery-payments/internal/infra/metrics"
	red "art-gallery-payments/internal/infra/redis"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Create requests a checkout link from the gateway and records the
	// attempt as a PENDING payment plus a PENDING ledger entry.
	Create(ctx context.Context, userID string, amount int64, description string) (*model.Payment, error)
	// Verify reconciles a payment against the gateway's authoritative status
	// and credits the wallet exactly once on the first PAID observation.
	// Safe to call any number of times, concurrently or sequentially.
	Verify(ctx context.Context, userID, orderID string) (*model.Payment, error)
	// List returns the user's payment attempts, newest first, plus the total count.
	List(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, int, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	ledger   repository.TransactionRepository
	wallets  repository.WalletRepository
	gateway  adapter.PaymentGateway
	tm       repository.TransactionManager
	locker   red.Locker // optional; nil disables the best-effort verify lock
	lockTTL  time.Duration

	cancelURL string
	returnURL string

	log *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	ledger repository.TransactionRepository,
	wallets repository.WalletRepository,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	locker red.Locker,
	lockTTL time.Duration,
	cancelURL, returnURL string,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &paymentUC{
		payments:  payments,
		ledger:    ledger,
		wallets:   wallets,
		gateway:   gateway,
		tm:        tm,
		locker:    locker,
		lockTTL:   lockTTL,
		cancelURL: cancelURL,
		returnURL: returnURL,
		log:       &l,
	}
}

func (u *paymentUC) Create(ctx context.Context, userID string, amount int64, description string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Create")()

	if userID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if description == "" {
		description = fmt.Sprintf("Payment for %d", amount)
	}

	orderID := ulid.Make().String()
	checkoutURL, err := u.gateway.CreateCheckout(ctx, adapter.CheckoutRequest{
		OrderID:     orderID,
		Amount:      amount,
		Description: description,
		CancelURL:   u.cancelURL,
		ReturnURL:   u.returnURL,
	})
	if err != nil {
		// Nothing persisted yet; the caller can simply retry.
		u.log.Warn().Err(err).Str("user_id", userID).Msg("gateway checkout failed")
		return nil, err
	}

	wallet, err := getOrCreateWallet(ctx, u.wallets, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Description: description,
		OrderID:     orderID,
		CheckoutURL: checkoutURL,
		Status:      model.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.payments.Save(ctx, nil, p); err != nil {
		return nil, err
	}

	t := &model.Transaction{
		ID:          uuid.NewString(),
		WalletID:    wallet.ID,
		PaymentID:   p.ID,
		OrderID:     orderID,
		Amount:      amount,
		Type:        model.TransactionTypeDeposit,
		Status:      model.TransactionStatusPending,
		Description: description,
		Fingerprint: model.TransactionFingerprint(p.ID, orderID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.ledger.Save(ctx, nil, t); err != nil {
		return nil, err
	}

	metrics.IncPayment(string(p.Status))
	u.log.Info().Str("user_id", userID).Str("order_id", orderID).Int64("amount", amount).Msg("payment created")
	return p, nil
}

func (u *paymentUC) Verify(ctx context.Context, userID, orderID string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Verify")()

	start := time.Now()
	p, err := u.verify(ctx, userID, orderID)
	result, reason := "ok", ""
	if err != nil {
		result = "fail"
		reason = failReason(err)
		metrics.PaymentVerifyRequests.WithLabelValues(result, reason).Inc()
	} else {
		metrics.PaymentVerifyRequests.WithLabelValues(result, "").Inc()
	}
	metrics.PaymentVerifyDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return p, err
}

func failReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrVerificationFailed), errors.Is(err, domain.ErrGatewayUnavailable):
		return "gateway"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrGatewayMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrDataIntegrity):
		return "integrity"
	default:
		return "unknown"
	}
}

func (u *paymentUC) verify(ctx context.Context, userID, orderID string) (*model.Payment, error) {
	if userID == "" || orderID == "" {
		return nil, domain.ErrInvalidArgument
	}

	// Best-effort per-order lock: keeps webhook + poll + reconciler from
	// hitting the gateway for the same order at once. The conditional write
	// in credit() is the actual at-most-once gate, so losing the lock race
	// is fine and we proceed anyway.
	if u.locker != nil {
		if token, err := u.locker.TryLock(ctx, "verify:"+orderID, u.lockTTL); err == nil {
			defer func() { _ = u.locker.Unlock(ctx, "verify:"+orderID, token) }()
		}
	}

	// 1. The gateway is authoritative for whether money moved. A failure
	// here mutates nothing locally and is safe to retry.
	info, err := u.gateway.GetStatus(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerificationFailed, err)
	}

	// 2. Local payment, scoped to the calling user.
	p, err := u.payments.FindByUserAndOrderID(ctx, nil, userID, orderID)
	if err != nil {
		return nil, err
	}

	// Untrusted response: require the gateway to be talking about the same
	// order and the same amount before acting on it.
	if info.OrderID != orderID || (info.Amount > 0 && info.Amount != p.Amount) {
		u.log.Error().Str("order_id", orderID).Int64("local_amount", p.Amount).Int64("gateway_amount", info.Amount).Msg("gateway response mismatch")
		return nil, domain.ErrGatewayMismatch
	}

	// 3. Wallet, created lazily for users who verify before ever depositing.
	wallet, err := getOrCreateWallet(ctx, u.wallets, userID)
	if err != nil {
		return nil, err
	}

	// 4. Ledger entry; created here for payments that predate one. Save is
	// insert-if-absent so concurrent verifies converge on a single row.
	t, err := u.ledger.FindByOrderID(ctx, nil, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		now := time.Now()
		t = &model.Transaction{
			ID:          uuid.NewString(),
			WalletID:    wallet.ID,
			PaymentID:   p.ID,
			OrderID:     orderID,
			Amount:      p.Amount,
			Type:        model.TransactionTypeDeposit,
			Status:      model.TransactionStatusPending,
			Description: p.Description,
			Fingerprint: model.TransactionFingerprint(p.ID, orderID),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := u.ledger.Save(ctx, nil, t); err != nil {
			return nil, err
		}
		if t, err = u.ledger.FindByOrderID(ctx, nil, orderID); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	// 5. Mirror the gateway status onto the local payment.
	local := model.PaymentStatusFromGateway(info.Status)
	if p.Status != local {
		var paidAt *time.Time
		if local == model.PaymentStatusPaid {
			now := time.Now()
			paidAt = &now
		}
		if err := u.payments.UpdateStatus(ctx, nil, p.ID, local, paidAt); err != nil {
			return nil, err
		}
		u.log.Info().Str("order_id", orderID).Str("old", string(p.Status)).Str("new", string(local)).Msg("payment status changed")
		p.Status = local
		p.UpdatedAt = time.Now()
		p.PaidAt = paidAt
		metrics.IncPayment(string(local))
	}

	// Terminal non-success outcomes settle the ledger entry so the
	// reconciler stops revisiting the order.
	switch local {
	case model.PaymentStatusCancelled, model.PaymentStatusExpired, model.PaymentStatusFailed:
		if _, err := u.ledger.MarkFailedIfPending(ctx, nil, orderID); err != nil {
			return nil, err
		}
	}

	// 6. First observation of PAID triggers the credit. The status check
	// here is only an optimization; credit() re-checks under the store's
	// concurrency control because two verifies can race past this point.
	if info.Status == model.GatewayStatusPaid && t.Status != model.TransactionStatusPaid {
		if err := u.credit(ctx, p, wallet.ID); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// credit applies the wallet credit for a gateway-confirmed payment exactly
// once. The ledger claim and the balance increment commit as one unit: a
// crash or failure before commit leaves the entry PENDING and the balance
// untouched, so a later verify retries cleanly.
func (u *paymentUC) credit(ctx context.Context, p *model.Payment, walletID string) error {
	var applied bool
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// Re-load by order id, not the possibly stale reference from the
		// caller; creation is verify's job, absence here is corruption.
		t, err := u.ledger.FindByOrderID(ctx, tx, p.OrderID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: ledger entry missing for order %s", domain.ErrDataIntegrity, p.OrderID)
		}
		if err != nil {
			return err
		}
		if t.Status == model.TransactionStatusPaid {
			return nil // already credited; idempotent no-op
		}

		claimed, err := u.ledger.MarkPaidIfPending(ctx, tx, p.OrderID)
		if err != nil {
			return err
		}
		if !claimed {
			// Another writer won the PENDING->PAID race, or the entry is
			// terminally FAILED and needs operator attention, not a credit.
			return nil
		}

		ok, err := u.wallets.CreditBalance(ctx, tx, walletID, p.Amount)
		if err != nil {
			return err
		}
		if !ok {
			// Rolls back the claim; markCreditFailed below records the
			// inconsistency durably.
			return fmt.Errorf("%w: wallet %s missing during credit of order %s", domain.ErrDataIntegrity, walletID, p.OrderID)
		}
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDataIntegrity) {
			u.markCreditFailed(ctx, p.OrderID)
			u.log.Error().Err(err).Str("order_id", p.OrderID).Msg("credit failed: gateway confirmed payment but wallet could not be updated")
			metrics.IncWalletCredit("failed")
		}
		return err
	}

	if applied {
		metrics.IncWalletCredit("applied")
		metrics.AddCreditedAmount(p.Amount)
		u.log.Info().Str("order_id", p.OrderID).Int64("amount", p.Amount).Msg("wallet credited")
	} else {
		metrics.IncWalletCredit("duplicate")
	}
	return nil
}

// markCreditFailed moves the ledger entry to FAILED instead of leaving it
// PENDING forever, so a reconciliation job or operator can find it.
func (u *paymentUC) markCreditFailed(ctx context.Context, orderID string) {
	if _, err := u.ledger.MarkFailedIfPending(ctx, nil, orderID); err != nil {
		u.log.Error().Err(err).Str("order_id", orderID).Msg("could not mark ledger entry failed")
	}
}

func (u *paymentUC) List(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, int, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.List")()

	if userID == "" {
		return nil, 0, domain.ErrInvalidArgument
	}
	items, err := u.payments.ListByUser(ctx, nil, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := u.payments.CountByUser(ctx, nil, userID)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
