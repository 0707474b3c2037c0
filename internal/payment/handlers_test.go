package payment_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/luxury-haiti/backend-payments/internal/payment"
)

func TestSessionHandlerRejectsInvalidBody(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := &payment.Handler{Svc: fx.svc, Validate: validator.New()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/session", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	handler.Session(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.EqualValues(t, 0, fx.hits.Load())
}

func TestSessionHandlerValidatesEmail(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := &payment.Handler{Svc: fx.svc, Validate: validator.New()}

	body := `{"amount": 100, "metadata": {"customer_email": "not-an-email"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/session", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Session(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.EqualValues(t, 0, fx.hits.Load())
}

func TestSessionHandlerReturnsCheckoutURL(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"checkout_url": "https://pay/x", "transaction_id": "txn"})
	})
	handler := &payment.Handler{Svc: fx.svc, Validate: validator.New()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/session", strings.NewReader(`{"amount": 100, "orderId": "ord-1"}`))
	rec := httptest.NewRecorder()
	handler.Session(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp payment.SessionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "https://pay/x", resp.CheckoutURL)
	require.Equal(t, "ord-1", resp.OrderID)
}

func TestVerifyHandlerRequiresOrderID(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := &payment.Handler{Svc: fx.svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/verify", nil)
	rec := httptest.NewRecorder()
	handler.Verify(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.EqualValues(t, 0, fx.hits.Load())
}
