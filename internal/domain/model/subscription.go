package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusNone      SubscriptionStatus = "none"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription is a user's premium subscription. A cancelled subscription
// keeps its entitlement until EndDate (grace period) and is swept to expired
// afterwards; the sweep, not the renewal timer, is the correctness backstop.
type Subscription struct {
	ID            string // UUID
	UserID        string // UUID
	Status        SubscriptionStatus
	StartDate     time.Time
	EndDate       time.Time
	AutoRenew     bool
	LastPaymentAt *time.Time
	NextPaymentAt *time.Time // persisted renewal-due index; nil when auto-renew is off
	OrderID       string     // order id of the most recent successful charge
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EffectiveStatus reports what the subscription entitles the user to right
// now, accounting for the cancelled-but-in-grace window and for expiry that
// the sweep has not recorded yet.
func (s *Subscription) EffectiveStatus(now time.Time) SubscriptionStatus {
	if s == nil {
		return SubscriptionStatusNone
	}
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusCancelled:
		if now.After(s.EndDate) {
			return SubscriptionStatusExpired
		}
		return s.Status
	default:
		return s.Status
	}
}
