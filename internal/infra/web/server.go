package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"art-gallery-payments/internal/domain/ports/repository"
	"art-gallery-payments/internal/usecase"
)

type Server struct {
	paymentUC usecase.PaymentUseCase
	walletUC  usecase.WalletUseCase
	subUC     usecase.SubscriptionUseCase
	payments  repository.PaymentRepository
	auth      *AuthManager

	webhookChecksumKey string
	devMode            bool

	log *zerolog.Logger
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	walletUC usecase.WalletUseCase,
	subUC usecase.SubscriptionUseCase,
	payments repository.PaymentRepository,
	auth *AuthManager,
	webhookChecksumKey string,
	devMode bool,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		paymentUC:          paymentUC,
		walletUC:           walletUC,
		subUC:              subUC,
		payments:           payments,
		auth:               auth,
		webhookChecksumKey: webhookChecksumKey,
		devMode:            devMode,
		log:                &l,
	}
}

// Router assembles the HTTP surface. Session-authenticated user routes,
// the unauthenticated gateway webhook (its signature is the auth), and the
// operational endpoints.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(traceID)
	r.Use(requestLog(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	// Gateway callback; authenticated by HMAC signature, not session.
	r.Post("/api/v1/payments/webhook", s.webhookHandler)

	if s.devMode {
		// Dev convenience: mint a session for an arbitrary user id.
		r.Post("/api/v1/auth/dev-session", s.devSessionHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireSession)

		r.Post("/api/v1/payments", s.createPaymentHandler)
		r.Get("/api/v1/payments", s.listPaymentsHandler)
		r.Post("/api/v1/payments/verify", s.verifyPaymentHandler)

		r.Get("/api/v1/wallet", s.getWalletHandler)
		r.Get("/api/v1/wallet/transactions", s.walletHistoryHandler)
		r.Post("/api/v1/wallet/withdraw", s.withdrawHandler)

		r.Post("/api/v1/premium/subscribe", s.subscribeHandler)
		r.Post("/api/v1/premium/cancel", s.cancelSubscriptionHandler)
		r.Get("/api/v1/premium/status", s.subscriptionStatusHandler)
	})

	return r
}
