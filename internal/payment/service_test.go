package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxury-haiti/backend-payments/internal/bazik"
	"github.com/luxury-haiti/backend-payments/internal/common"
	"github.com/luxury-haiti/backend-payments/internal/payment"
)

type gatewayFixture struct {
	svc   *payment.Service
	hits  *atomic.Int64
	seen  *atomic.Value
	token *atomic.Int64
}

func newGateway(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) gatewayFixture {
	t.Helper()
	var hits atomic.Int64
	var tokenCalls atomic.Int64
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			tokenCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
			return
		}
		hits.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body != nil {
			seen.Store(body)
		}
		respond(w, r)
	}))
	t.Cleanup(srv.Close)

	client := &bazik.Client{
		BaseURL: srv.URL,
		HTTP:    srv.Client(),
		Auth:    bazik.CredentialsAuth{BaseURL: srv.URL, ClientID: "id", Secret: "s", HTTP: srv.Client()},
		Cache:   bazik.NewTokenCache(time.Minute),
	}
	return gatewayFixture{
		svc:   &payment.Service{Gateway: client, Currency: "HTG"},
		hits:  &hits,
		seen:  &seen,
		token: &tokenCalls,
	}
}

func TestCreateSessionRejectsNonPositiveAmount(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, amount := range []float64{0, -5} {
		_, err := fx.svc.CreateSession(context.Background(), payment.SessionRequest{Amount: amount})
		require.Error(t, err)
		appErr, ok := common.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, common.CodeInvalidRequest, appErr.Code)
		require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	}
	require.EqualValues(t, 0, fx.hits.Load(), "validation failures must not reach the gateway")
	require.EqualValues(t, 0, fx.token.Load())
}

func TestCreateSessionDefaultsCurrencyAndCustomer(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"checkout_url": "https://pay/x", "transaction_id": "txn"})
	})

	result, err := fx.svc.CreateSession(context.Background(), payment.SessionRequest{Amount: 100, OrderID: "ord-1"})
	require.NoError(t, err)
	require.Equal(t, "https://pay/x", result.CheckoutURL)
	require.Equal(t, "HTG", result.Currency)
	require.Equal(t, "ord-1", result.OrderID)

	body, _ := fx.seen.Load().(map[string]any)
	require.Equal(t, "HTG", body["currency"])
	customer, _ := body["customer"].(map[string]any)
	require.NotEmpty(t, customer["name"])
	require.NotEmpty(t, customer["email"])
	meta, _ := body["metadata"].(map[string]any)
	ids, _ := meta["order_ids"].([]any)
	require.Equal(t, []any{"ord-1"}, ids, "single order id must be promoted into metadata")
}

func TestCreateSessionSynthesisesReference(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"checkout_url": "https://pay/x"})
	})

	result, err := fx.svc.CreateSession(context.Background(), payment.SessionRequest{Amount: 10})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result.OrderID, "LH-"), "generated reference should carry the LH- prefix, got %q", result.OrderID)
}

func TestVerifyRequiresOrderID(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	_, err := fx.svc.Verify(context.Background(), "   ")
	require.Error(t, err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, common.CodeInvalidRequest, appErr.Code)
	require.EqualValues(t, 0, fx.hits.Load())
}

func TestVerifyFillsMissingCurrency(t *testing.T) {
	fx := newGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "pending", "amount": 250.0})
	})

	result, err := fx.svc.Verify(context.Background(), "ord-2")
	require.NoError(t, err)
	require.Equal(t, "HTG", result.Currency)
	require.Equal(t, "pending", result.Status)
	require.Equal(t, 250.0, result.Amount)
	require.True(t, result.Verified)
}
