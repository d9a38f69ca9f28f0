package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lavapay/internal/provider"
	paymentsvc "lavapay/internal/services/payment"
)

type providerInfo struct {
	Type      provider.ProviderType `json:"type"`
	Name      string                `json:"name"`
	Available bool                  `json:"available"`
	Default   bool                  `json:"default"`
}

// ListProviders reports every registered provider and which one is the
// default choice for new payments.
func ListProviders(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		def := svc.GetDefaultProvider()

		var infos []providerInfo
		for _, p := range svc.Providers() {
			infos = append(infos, providerInfo{
				Type:      p.Type(),
				Name:      p.Name(),
				Available: p.IsAvailable(),
				Default:   def != nil && def.Type() == p.Type(),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": infos})
	}
}

// GetInstructions returns the human-facing payment instructions for one provider
func GetInstructions(svc *paymentsvc.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := provider.ProviderType(chi.URLParam(r, "type"))
		p, err := svc.GetProvider(t)
		if err != nil {
			http.Error(w, "provider not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": p.GetPaymentInstructions()})
	}
}
