package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavapay/internal/config"
	"lavapay/internal/domain/payment"
	paymentsvc "lavapay/internal/services/payment"
	"lavapay/internal/store/memory"
)

func testConfig() config.Cfg {
	return config.Cfg{
		Sec: config.SecurityCfg{AdminToken: "secret-token"},
		Providers: config.ProvidersCfg{
			BankTransfer: config.ProviderCfg{
				Enabled:             true,
				DisplayName:         "Transferencia Bancaria",
				SupportedCurrencies: []string{"DOP"},
				MinAmount:           decimal.NewFromInt(100),
				MaxAmount:           decimal.NewFromInt(500000),
				BankAccounts: []config.BankAccount{{
					BankName:      "Banco Popular",
					AccountNumber: "123456789",
					AccountName:   "Lavandería Central SRL",
				}},
			},
			Stripe: config.ProviderCfg{
				Enabled:             false,
				DisplayName:         "Tarjeta de Crédito/Débito",
				SupportedCurrencies: []string{"USD"},
				MinAmount:           decimal.NewFromInt(1),
			},
		},
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewStore()
	cfg := testConfig()
	svc := paymentsvc.New(cfg, store.Payments(), store.UnitOfWork())
	require.NoError(t, svc.Initialize(context.Background()))
	return NewRouter(RouterDependencies{
		Config:         cfg,
		PaymentService: svc,
		Payments:       store.Payments(),
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestListProviders(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/providers", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data []struct {
			Type      string `json:"type"`
			Name      string `json:"name"`
			Available bool   `json:"available"`
			Default   bool   `json:"default"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Data, 2)

	byType := map[string]bool{}
	for _, p := range out.Data {
		byType[p.Type] = p.Available
		if p.Type == "bank_transfer" {
			assert.True(t, p.Default)
		}
		if p.Type == "stripe" {
			assert.False(t, p.Default)
		}
	}
	assert.True(t, byType["bank_transfer"])
	assert.False(t, byType["stripe"])
}

func TestGetInstructions(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/providers/bank_transfer/instructions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Banco Popular")

	rec = doJSON(t, h, http.MethodGet, "/api/v1/providers/cash/instructions", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func createPaymentBody() map[string]any {
	return map[string]any{
		"provider":       "bank_transfer",
		"amount":         "500",
		"currency":       "DOP",
		"customer_id":    "cus-1",
		"customer_email": "maria@example.com",
		"customer_name":  "María Pérez",
		"branch_id":      "branch-1",
	}
}

func createTestPayment(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/payments", createPaymentBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Success   bool   `json:"success"`
		PaymentID string `json:"payment_id"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.NotEmpty(t, res.PaymentID)
	require.Equal(t, string(payment.StatusPending), res.Status)
	return res.PaymentID
}

func TestCreatePayment(t *testing.T) {
	h := newTestServer(t)
	id := createTestPayment(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/payments/bank_transfer/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"pending"`)
}

func TestCreatePaymentValidation(t *testing.T) {
	h := newTestServer(t)

	body := createPaymentBody()
	body["amount"] = "0"
	rec := doJSON(t, h, http.MethodPost, "/api/v1/payments", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = createPaymentBody()
	body["currency"] = "PESO"
	rec = doJSON(t, h, http.MethodPost, "/api/v1/payments", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = createPaymentBody()
	body["customer_email"] = "not-an-email"
	rec = doJSON(t, h, http.MethodPost, "/api/v1/payments", body, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePaymentUnknownProvider(t *testing.T) {
	h := newTestServer(t)

	body := createPaymentBody()
	body["provider"] = "cash"
	rec := doJSON(t, h, http.MethodPost, "/api/v1/payments", body, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePaymentUnavailableProvider(t *testing.T) {
	h := newTestServer(t)

	body := createPaymentBody()
	body["provider"] = "stripe"
	body["currency"] = "USD"
	rec := doJSON(t, h, http.MethodPost, "/api/v1/payments", body, nil)
	// unavailable is a lifecycle failure, not a transport error
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "provider_unavailable")
}

func TestConfirmAndCancel(t *testing.T) {
	h := newTestServer(t)
	id := createTestPayment(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/payments/bank_transfer/"+id+"/confirm",
		map[string]any{"receipt_reference": "DEP-00123"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"processing"`)

	// processing payments cannot be cancelled
	rec = doJSON(t, h, http.MethodPost, "/api/v1/payments/bank_transfer/"+id+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestStatusUnknownPayment(t *testing.T) {
	h := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/payments/bank_transfer/no-such-id", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminApproveRequiresToken(t *testing.T) {
	h := newTestServer(t)
	id := createTestPayment(t, h)

	rec := doJSON(t, h, http.MethodPost, "/admin/payments/"+id+"/approve", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/admin/payments/"+id+"/approve", nil,
		map[string]string{"X-Admin-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/admin/payments/"+id+"/approve", nil,
		map[string]string{"X-Admin-Token": "secret-token"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"completed"`)
}

func TestRefundAfterApproval(t *testing.T) {
	h := newTestServer(t)
	id := createTestPayment(t, h)

	rec := doJSON(t, h, http.MethodPost, "/admin/payments/"+id+"/approve", nil,
		map[string]string{"X-Admin-Token": "secret-token"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/payments/bank_transfer/"+id+"/refund",
		map[string]any{"amount": "200", "reason": "doble cobro"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"completed"`)
}

func TestGetPaymentByReference(t *testing.T) {
	h := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/payments", createPaymentBody(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		PaymentID string `json:"payment_id"`
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Reference)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/payments/by-reference/"+res.Reference, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), res.PaymentID)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/payments/by-reference/BT-MISSING", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPayments(t *testing.T) {
	h := newTestServer(t)
	createTestPayment(t, h)
	createTestPayment(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/payments?status=pending&branch_id=branch-1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Data, 2)
}
