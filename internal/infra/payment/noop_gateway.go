package payment

import (
	"context"
	"fmt"
	"sync"

	"art-gallery-payments/internal/domain"
	"art-gallery-payments/internal/domain/model"
	"art-gallery-payments/internal/domain/ports/adapter"
)

// NoopGateway is a stand-in gateway for dev mode and demos. Orders start
// PENDING and can be settled manually via SetStatus.
type NoopGateway struct {
	mu     sync.Mutex
	orders map[string]adapter.OrderInfo
}

var _ adapter.PaymentGateway = (*NoopGateway)(nil)

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{orders: make(map[string]adapter.OrderInfo)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) CreateCheckout(ctx context.Context, req adapter.CheckoutRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orders[req.OrderID] = adapter.OrderInfo{
		OrderID: req.OrderID,
		Status:  model.GatewayStatusPending,
		Amount:  req.Amount,
	}
	return fmt.Sprintf("https://checkout.invalid/pay/%s", req.OrderID), nil
}

func (g *NoopGateway) GetStatus(ctx context.Context, orderID string) (adapter.OrderInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	info, ok := g.orders[orderID]
	if !ok {
		return adapter.OrderInfo{}, domain.ErrNotFound
	}
	return info, nil
}

// SetStatus flips an order's status; used by dev tooling to simulate a user
// completing or abandoning checkout.
func (g *NoopGateway) SetStatus(orderID string, status model.GatewayStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if info, ok := g.orders[orderID]; ok {
		info.Status = status
		g.orders[orderID] = info
	}
}
