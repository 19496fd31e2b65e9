package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsExpiredTotal,
		subscriptionRenewalsTotal,
		walletsResetTotal,
	)
}

var (
	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions moved to expired by the sweep.",
		},
	)

	subscriptionRenewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_renewals_total",
			Help: "Auto-renewal attempts by outcome (renewed/expired/skipped/error).",
		},
		[]string{"outcome"},
	)

	walletsResetTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_withdraw_resets_total",
			Help: "Wallet rows touched by the daily withdrawal-counter reset.",
		},
	)
)

func IncSubscriptionsExpired(count int64) {
	subscriptionsExpiredTotal.Add(float64(count))
}

func IncRenewal(outcome string) {
	subscriptionRenewalsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddWalletResets(count int64) {
	walletsResetTotal.Add(float64(count))
}
