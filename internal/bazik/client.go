package bazik

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/luxury-haiti/backend-payments/internal/common"
	"github.com/luxury-haiti/backend-payments/internal/obs"
)

// Client talks to the Bazik payment gateway. All calls are single-shot: no
// retry, no backoff; failures propagate to the caller.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Auth    Authenticator
	Cache   *TokenCache
	Logger  zerolog.Logger
}

// CreateRequest describes a hosted checkout session to open.
type CreateRequest struct {
	Amount        float64
	Currency      string
	Reference     string
	Description   string
	CustomerName  string
	CustomerEmail string
	OrderIDs      []string
}

// CreateResult is the normalised outcome of a successful session creation.
type CreateResult struct {
	RedirectURL   string
	TransactionID string
	Raw           map[string]any
}

// AccessToken returns a cached bearer token, exchanging credentials only
// when no token with sufficient remaining lifetime is held.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if c.Cache != nil {
		if token, ok := c.Cache.Get(); ok {
			return token, nil
		}
	}
	token, lifetime, err := c.Auth.Token(ctx)
	result := "success"
	if err != nil {
		result = "error"
	}
	if obs.TokenExchangeTotal != nil {
		obs.TokenExchangeTotal.WithLabelValues(c.Auth.Scheme(), result).Inc()
	}
	if err != nil {
		return "", err
	}
	if c.Cache != nil {
		c.Cache.Set(token, lifetime)
	}
	return token, nil
}

// CreatePayment opens a checkout session and returns the redirect target.
// A created-but-unusable session (no recognisable redirect URL) is an error.
func (c *Client) CreatePayment(ctx context.Context, req CreateRequest) (CreateResult, error) {
	ctx, span := otel.Tracer("bazik.Client").Start(ctx, "Bazik.CreatePayment")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("payment.amount", req.Amount),
		attribute.String("payment.reference", req.Reference),
	)

	token, err := c.AccessToken(ctx)
	if err != nil {
		span.RecordError(err)
		return CreateResult{}, err
	}

	body, err := json.Marshal(map[string]any{
		"amount":      req.Amount,
		"currency":    req.Currency,
		"referenceId": req.Reference,
		"description": req.Description,
		"customer": map[string]string{
			"name":  req.CustomerName,
			"email": req.CustomerEmail,
		},
		"metadata": map[string]any{
			"order_ids": req.OrderIDs,
		},
	})
	if err != nil {
		return CreateResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/payments"), bytes.NewReader(body))
	if err != nil {
		return CreateResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	payload, err := c.do(httpReq, "payment creation failed")
	if err != nil {
		span.RecordError(err)
		return CreateResult{}, err
	}

	redirect, ok := RedirectURL(payload)
	if !ok {
		err := common.NewAppError(common.CodeMissingRedirectURL, "gateway response contains no redirect url", http.StatusInternalServerError, nil)
		span.RecordError(err)
		c.Logger.Error().Str("reference", req.Reference).Msg("payment created without usable redirect url")
		return CreateResult{}, err
	}
	return CreateResult{
		RedirectURL:   redirect,
		TransactionID: StringField(payload, "transaction_id", "id"),
		Raw:           payload,
	}, nil
}

// VerifyPayment fetches the current gateway-side status for a reference.
// Status strings pass through verbatim; the webhook is the only place that
// interprets them.
func (c *Client) VerifyPayment(ctx context.Context, reference string) (map[string]any, error) {
	ctx, span := otel.Tracer("bazik.Client").Start(ctx, "Bazik.VerifyPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.reference", reference))

	token, err := c.AccessToken(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/payments/"+url.PathEscape(reference)), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	payload, err := c.do(httpReq, "payment verification failed")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return payload, nil
}

// do executes a single request and parses the response as text first, then
// JSON. Only a truncated snippet of an unparseable body ever leaves this
// method; full upstream bodies may carry secrets.
func (c *Client) do(req *http.Request, rejectionMsg string) (map[string]any, error) {
	resp, err := httpClientOrDefault(c.HTTP).Do(req)
	if err != nil {
		return nil, common.NewAppError(common.CodeUpstreamResponseInvalid, "gateway unreachable", http.StatusBadGateway, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewAppError(common.CodeUpstreamResponseInvalid, "gateway response unreadable", http.StatusBadGateway, err)
	}
	text := string(raw)

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		snippet := common.TruncateBody(text, 200)
		c.Logger.Error().Int("upstream_status", resp.StatusCode).Str("body", snippet).Msg("gateway returned non-JSON body")
		appErr := common.NewAppError(common.CodeUpstreamResponseInvalid, "gateway response is not valid JSON", http.StatusBadGateway, err)
		appErr.Details = map[string]any{"upstream_status": resp.StatusCode, "body": snippet}
		return nil, appErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := StringField(payload, "message", "error")
		if msg == "" {
			msg = rejectionMsg
		}
		c.Logger.Warn().Int("upstream_status", resp.StatusCode).Str("message", msg).Msg("gateway rejected request")
		appErr := common.NewAppError(common.CodeUpstreamRejected, msg, resp.StatusCode, nil)
		appErr.Details = map[string]any{"upstream_status": resp.StatusCode}
		return nil, appErr
	}
	return payload, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
