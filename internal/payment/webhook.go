package payment

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/luxury-haiti/backend-payments/internal/common"
	"github.com/luxury-haiti/backend-payments/internal/obs"
)

// Settler applies the terminal paid state to a batch of orders.
type Settler interface {
	MarkPaid(ctx context.Context, ids []string) (int64, error)
}

// ReceiptEnqueuer schedules post-settlement receipt notifications. Failures
// here never alter the webhook response.
type ReceiptEnqueuer interface {
	EnqueueReceipt(ctx context.Context, orderIDs []string, transactionID string) error
}

// Signature headers accepted on gateway callbacks, checked in order.
var signatureHeaders = []string{"x-bazik-signature", "x-signature"}

// successStatuses are the gateway event values that settle orders. Anything
// else is acknowledged without a write.
var successStatuses = map[string]struct{}{
	"paid":              {},
	"payment_succeeded": {},
	"completed":         {},
	"success":           {},
}

// Webhook receives asynchronous payment callbacks from the gateway and is
// the sole writer of order payment_status.
type Webhook struct {
	Secret string
	// RequireSignature rejects unsigned deliveries. Defaults off to match
	// the gateway's sandbox mode, which omits the header entirely.
	RequireSignature bool
	Orders           Settler
	Receipts         ReceiptEnqueuer
	Logger           zerolog.Logger
}

type webhookEvent struct {
	Status        string `json:"status"`
	Event         string `json:"event"`
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Metadata      struct {
		OrderIDs []string `json:"order_ids"`
	} `json:"metadata"`
}

// Handle processes one webhook delivery. The gateway retries the whole
// delivery on a 5xx; settlement stays safe under replay because the bulk
// update writes a terminal value.
func (h Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	if h.Orders == nil {
		common.JSONError(w, http.StatusInternalServerError, "WEBHOOK_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.count("malformed")
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidRequest, "unable to read payload", nil)
		return
	}

	if !h.verifySignature(r, body) {
		h.count("unauthorized")
		common.JSONError(w, http.StatusUnauthorized, common.CodeSignatureMismatch, "signature verification failed", nil)
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.count("malformed")
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidRequest, "payload is not valid JSON", nil)
		return
	}

	status := strings.ToLower(strings.TrimSpace(event.Status))
	if status == "" {
		status = strings.ToLower(strings.TrimSpace(event.Event))
	}
	if _, ok := successStatuses[status]; !ok {
		// Unknown statuses are acknowledged without a write so the gateway
		// stops retrying. Logged because the lenience hides new event types.
		h.Logger.Warn().Str("status", status).Str("order_id", event.OrderID).Msg("ignoring webhook with unhandled status")
		h.count("ignored")
		h.respondProcessed(w, event.OrderID)
		return
	}

	orderIDs := event.Metadata.OrderIDs
	if len(orderIDs) == 0 {
		h.Logger.Warn().Str("order_id", event.OrderID).Msg("successful payment webhook without order ids")
		h.count("skipped")
		h.respondProcessed(w, event.OrderID)
		return
	}

	updated, err := h.Orders.MarkPaid(r.Context(), orderIDs)
	if err != nil {
		h.Logger.Error().Err(err).Strs("order_ids", orderIDs).Msg("order settlement failed")
		h.count("error")
		common.RenderError(w, err)
		return
	}
	h.Logger.Info().
		Strs("order_ids", orderIDs).
		Int64("rows", updated).
		Str("transaction_id", event.TransactionID).
		Msg("orders settled")
	h.count("settled")

	if h.Receipts != nil {
		if err := h.Receipts.EnqueueReceipt(r.Context(), orderIDs, event.TransactionID); err != nil {
			// The settlement outcome already determined the response.
			h.Logger.Error().Err(err).Strs("order_ids", orderIDs).Msg("receipt enqueue failed")
		}
	}

	h.respondProcessed(w, event.OrderID)
}

// verifySignature checks the HMAC-SHA256 hex digest of the raw body when a
// signature header is present. Absent headers pass unless RequireSignature
// is set: an observed gateway behaviour, kept deliberately.
func (h Webhook) verifySignature(r *http.Request, body []byte) bool {
	provided := ""
	for _, header := range signatureHeaders {
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			provided = v
			break
		}
	}
	if provided == "" {
		return !h.RequireSignature
	}
	if strings.TrimSpace(h.Secret) == "" {
		return false
	}
	expected := common.HmacSha256Hex(h.Secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}

func (h Webhook) respondProcessed(w http.ResponseWriter, orderID string) {
	common.JSON(w, http.StatusOK, map[string]any{
		"received": true,
		"order_id": orderID,
		"status":   "processed",
	})
}

func (h Webhook) count(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues(result).Inc()
	}
}
