package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"lavapay/internal/config"
	"lavapay/internal/http/handlers"
	middlewarex "lavapay/internal/http/middleware"
	paymentsvc "lavapay/internal/services/payment"
	"lavapay/internal/store/repositories"
)

// RouterDependencies holds everything the HTTP surface needs
type RouterDependencies struct {
	Config         config.Cfg
	PaymentService *paymentsvc.Service
	Payments       repositories.PaymentRepository
}

// NewRouter builds the HTTP router over the payment orchestrator
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/providers", handlers.ListProviders(deps.PaymentService))
		r.Get("/providers/{type}/instructions", handlers.GetInstructions(deps.PaymentService))

		r.Get("/payments", handlers.ListPayments(deps.Payments))
		r.Get("/payments/by-reference/{reference}", handlers.GetPaymentByReference(deps.Payments))
		r.Post("/payments", handlers.CreatePayment(deps.PaymentService))
		r.Get("/payments/{type}/{id}", handlers.GetPaymentStatus(deps.PaymentService))
		r.Post("/payments/{type}/{id}/confirm", handlers.ConfirmPayment(deps.PaymentService))
		r.Post("/payments/{type}/{id}/cancel", handlers.CancelPayment(deps.PaymentService))
		r.Post("/payments/{type}/{id}/refund", handlers.RefundPayment(deps.PaymentService))
	})

	// Privileged operator actions
	r.Route("/admin", func(r chi.Router) {
		r.Use(middlewarex.AdminAuth(deps.Config))
		r.Post("/payments/{id}/approve", handlers.ApprovePayment(deps.PaymentService))
	})

	return r
}
