package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		walletCreditsTotal,
		walletCreditedAmount,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status (pending/paid/failed/cancelled/expired).",
		},
		[]string{"status"},
	)

	walletCreditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_credits_total",
			Help: "Wallet credit attempts by outcome (applied/duplicate/failed).",
		},
		[]string{"outcome"},
	)

	walletCreditedAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_credited_amount_total",
			Help: "Total amount credited to wallets, in the smallest currency unit.",
		},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func IncWalletCredit(outcome string) {
	walletCreditsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddCreditedAmount(amount int64) {
	walletCreditedAmount.Add(float64(amount))
}
