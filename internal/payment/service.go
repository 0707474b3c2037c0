package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/luxury-haiti/backend-payments/internal/bazik"
	"github.com/luxury-haiti/backend-payments/internal/common"
	"github.com/luxury-haiti/backend-payments/internal/obs"
)

// Placeholder customer identity used when the storefront does not forward
// buyer details with the session request.
const (
	defaultCustomerName  = "Luxury Haiti Customer"
	defaultCustomerEmail = "customer@luxuryhaiti.com"
)

// Metadata carries optional buyer and correlation data for a session.
type Metadata struct {
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email" validate:"omitempty,email"`
	OrderIDs      []string `json:"order_ids"`
}

// SessionRequest is the caller-facing input for session creation. Order rows
// must already exist before this is invoked; the session only obtains a
// redirect target.
type SessionRequest struct {
	Amount   float64  `json:"amount" validate:"required,gt=0"`
	OrderID  string   `json:"orderId"`
	Currency string   `json:"currency"`
	Metadata Metadata `json:"metadata"`
}

// SessionResult mirrors the wire response for a created session.
type SessionResult struct {
	CheckoutURL   string  `json:"checkout_url"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	OrderID       string  `json:"order_id"`
	Status        string  `json:"status"`
}

// VerifyResult mirrors the wire response for a verification lookup. Status
// is the gateway's value verbatim.
type VerifyResult struct {
	OrderID       string         `json:"order_id"`
	Status        string         `json:"status"`
	Amount        float64        `json:"amount"`
	Currency      string         `json:"currency"`
	TransactionID string         `json:"transaction_id"`
	PaymentDate   string         `json:"payment_date"`
	Verified      bool           `json:"verified"`
	Details       map[string]any `json:"details,omitempty"`
}

// Service coordinates session creation and verification against the gateway.
type Service struct {
	Gateway  *bazik.Client
	Currency string
	Now      func() time.Time
}

// CreateSession validates the request and opens a hosted checkout session.
// No local write happens here; the webhook owns payment_status.
func (s *Service) CreateSession(ctx context.Context, req SessionRequest) (SessionResult, error) {
	var zero SessionResult
	if s == nil || s.Gateway == nil {
		return zero, errors.New("payment service not configured")
	}
	if req.Amount <= 0 {
		return zero, common.InvalidRequest("amount must be a positive number")
	}

	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.CreateSession")
	defer span.End()

	result := "error"
	defer func() {
		if obs.PaymentSessionTotal != nil {
			obs.PaymentSessionTotal.WithLabelValues(result).Inc()
		}
	}()

	currency := strings.TrimSpace(req.Currency)
	if currency == "" {
		currency = s.currency()
	}
	reference := strings.TrimSpace(req.OrderID)
	if reference == "" {
		reference = s.newReference()
	}
	orderIDs := req.Metadata.OrderIDs
	if len(orderIDs) == 0 && strings.TrimSpace(req.OrderID) != "" {
		orderIDs = []string{req.OrderID}
	}
	customerName := strings.TrimSpace(req.Metadata.CustomerName)
	if customerName == "" {
		customerName = defaultCustomerName
	}
	customerEmail := strings.TrimSpace(req.Metadata.CustomerEmail)
	if customerEmail == "" {
		customerEmail = defaultCustomerEmail
	}

	span.SetAttributes(
		attribute.String("payment.reference", reference),
		attribute.Int("payment.order_count", len(orderIDs)),
	)

	created, err := s.Gateway.CreatePayment(ctx, bazik.CreateRequest{
		Amount:        req.Amount,
		Currency:      currency,
		Reference:     reference,
		Description:   describeOrders(reference, orderIDs),
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		OrderIDs:      orderIDs,
	})
	if err != nil {
		span.RecordError(err)
		return zero, err
	}

	result = "success"
	return SessionResult{
		CheckoutURL:   created.RedirectURL,
		TransactionID: created.TransactionID,
		Amount:        req.Amount,
		Currency:      currency,
		OrderID:       reference,
		Status:        "created",
	}, nil
}

// Verify queries the gateway for the status of a previously created payment.
func (s *Service) Verify(ctx context.Context, orderID string) (VerifyResult, error) {
	var zero VerifyResult
	if s == nil || s.Gateway == nil {
		return zero, errors.New("payment service not configured")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return zero, common.InvalidRequest("order_id is required")
	}

	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.Verify")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	result := "error"
	defer func() {
		if obs.PaymentVerifyTotal != nil {
			obs.PaymentVerifyTotal.WithLabelValues(result).Inc()
		}
	}()

	payload, err := s.Gateway.VerifyPayment(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}

	currency := bazik.StringField(payload, "currency")
	if currency == "" {
		currency = s.currency()
	}
	result = "success"
	return VerifyResult{
		OrderID:       orderID,
		Status:        bazik.StringField(payload, "status"),
		Amount:        bazik.NumberField(payload, "amount"),
		Currency:      currency,
		TransactionID: bazik.StringField(payload, "transaction_id", "id"),
		PaymentDate:   bazik.StringField(payload, "payment_date", "created_at"),
		Verified:      true,
		Details:       payload,
	}, nil
}

func (s *Service) currency() string {
	if strings.TrimSpace(s.Currency) == "" {
		return "HTG"
	}
	return s.Currency
}

func (s *Service) newReference() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("LH-%d-%s", now().UnixMilli(), suffix)
}

func describeOrders(reference string, orderIDs []string) string {
	if len(orderIDs) == 0 {
		return "Luxury Haiti order " + reference
	}
	return "Luxury Haiti order(s) " + strings.Join(orderIDs, ", ")
}
