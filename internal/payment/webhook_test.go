package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/luxury-haiti/backend-payments/internal/common"
	"github.com/luxury-haiti/backend-payments/internal/payment"
)

type fakeSettler struct {
	calls [][]string
	err   error
}

func (f *fakeSettler) MarkPaid(_ context.Context, ids []string) (int64, error) {
	f.calls = append(f.calls, ids)
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(ids)), nil
}

type fakeReceipts struct {
	calls int
	txns  []string
	err   error
}

func (f *fakeReceipts) EnqueueReceipt(_ context.Context, _ []string, txn string) error {
	f.calls++
	f.txns = append(f.txns, txn)
	return f.err
}

func deliver(t *testing.T, hook payment.Webhook, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bazik", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	hook.Handle(rec, req)
	return rec
}

func paidEvent(orderIDs ...string) []byte {
	body, _ := json.Marshal(map[string]any{
		"status":         "paid",
		"order_id":       "ord-1",
		"transaction_id": "txn-9",
		"metadata":       map[string]any{"order_ids": orderIDs},
	})
	return body
}

func TestWebhookSettlesPaidOrders(t *testing.T) {
	settler := &fakeSettler{}
	receipts := &fakeReceipts{}
	hook := payment.Webhook{Orders: settler, Receipts: receipts, Logger: zerolog.Nop()}

	rec := deliver(t, hook, paidEvent("o1", "o2"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, settler.calls, 1, "all order ids must settle in one bulk update")
	require.Equal(t, []string{"o1", "o2"}, settler.calls[0])
	require.Equal(t, 1, receipts.calls)
	require.Equal(t, []string{"txn-9"}, receipts.txns)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, true, resp["received"])
	require.Equal(t, "processed", resp["status"])
}

func TestWebhookIgnoresNonSuccessStatus(t *testing.T) {
	settler := &fakeSettler{}
	hook := payment.Webhook{Orders: settler, Logger: zerolog.Nop()}

	body, _ := json.Marshal(map[string]any{
		"status":   "refunded",
		"metadata": map[string]any{"order_ids": []string{"o1"}},
	})
	rec := deliver(t, hook, body, nil)
	require.Equal(t, http.StatusOK, rec.Code, "unhandled statuses must still acknowledge")
	require.Empty(t, settler.calls)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	settler := &fakeSettler{}
	hook := payment.Webhook{Secret: "whsec", Orders: settler, Logger: zerolog.Nop()}

	rec := deliver(t, hook, paidEvent("o1"), map[string]string{"x-bazik-signature": "deadbeef"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, settler.calls, "a tampered payload must never reach the database")

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, common.CodeSignatureMismatch, resp.Error.Code)
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	settler := &fakeSettler{}
	hook := payment.Webhook{Secret: "whsec", RequireSignature: true, Orders: settler, Logger: zerolog.Nop()}

	body := paidEvent("o1")
	sig := common.HmacSha256Hex("whsec", body)
	rec := deliver(t, hook, body, map[string]string{"x-signature": sig})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, settler.calls, 1)
}

func TestWebhookUnsignedDelivery(t *testing.T) {
	t.Run("accepted by default", func(t *testing.T) {
		settler := &fakeSettler{}
		hook := payment.Webhook{Secret: "whsec", Orders: settler, Logger: zerolog.Nop()}
		rec := deliver(t, hook, paidEvent("o1"), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, settler.calls, 1)
	})
	t.Run("rejected when signatures are required", func(t *testing.T) {
		settler := &fakeSettler{}
		hook := payment.Webhook{Secret: "whsec", RequireSignature: true, Orders: settler, Logger: zerolog.Nop()}
		rec := deliver(t, hook, paidEvent("o1"), nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, settler.calls)
	})
}

func TestWebhookDuplicateDeliveryIsIdempotent(t *testing.T) {
	settler := &fakeSettler{}
	hook := payment.Webhook{Orders: settler, Logger: zerolog.Nop()}

	body := paidEvent("o1", "o2")
	first := deliver(t, hook, body, nil)
	second := deliver(t, hook, body, nil)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code, "gateway retries of a settled payment must succeed")
	require.Len(t, settler.calls, 2, "each delivery issues the same terminal update")
}

func TestWebhookWithoutOrderIDs(t *testing.T) {
	settler := &fakeSettler{}
	hook := payment.Webhook{Orders: settler, Logger: zerolog.Nop()}

	body, _ := json.Marshal(map[string]any{"status": "paid", "order_id": "ord-5"})
	rec := deliver(t, hook, body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, settler.calls)
}

func TestWebhookSettlementFailureReturnsError(t *testing.T) {
	settler := &fakeSettler{err: common.NewAppError(common.CodePersistenceFailed, "update failed", http.StatusInternalServerError, nil)}
	hook := payment.Webhook{Orders: settler, Logger: zerolog.Nop()}

	rec := deliver(t, hook, paidEvent("o1"), nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code, "a failed write must surface so the gateway retries")
}

func TestWebhookReceiptFailureDoesNotChangeResponse(t *testing.T) {
	settler := &fakeSettler{}
	receipts := &fakeReceipts{err: context.DeadlineExceeded}
	hook := payment.Webhook{Orders: settler, Receipts: receipts, Logger: zerolog.Nop()}

	rec := deliver(t, hook, paidEvent("o1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, receipts.calls)
}

func TestWebhookMalformedJSON(t *testing.T) {
	hook := payment.Webhook{Orders: &fakeSettler{}, Logger: zerolog.Nop()}
	rec := deliver(t, hook, []byte("{not json"), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
