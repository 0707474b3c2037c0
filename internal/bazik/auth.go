package bazik

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/luxury-haiti/backend-payments/internal/common"
)

const defaultTokenLifetime = 3600 * time.Second

// Authenticator exchanges fixed credentials for a short-lived bearer token.
// The gateway runs two endpoint generations with different handshakes;
// neither supersedes the other, so the scheme is chosen by configuration.
type Authenticator interface {
	Scheme() string
	Token(ctx context.Context) (string, time.Duration, error)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// CredentialsAuth posts the client identifier and secret as a JSON body.
type CredentialsAuth struct {
	BaseURL  string
	ClientID string
	Secret   string
	HTTP     *http.Client
}

// Scheme implements Authenticator.
func (a CredentialsAuth) Scheme() string { return "credentials" }

// Token implements Authenticator.
func (a CredentialsAuth) Token(ctx context.Context) (string, time.Duration, error) {
	body, err := json.Marshal(map[string]string{
		"userID":    a.ClientID,
		"secretKey": a.Secret,
	})
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint(a.BaseURL), bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return exchange(httpClientOrDefault(a.HTTP), req)
}

// BasicAuth authenticates with HTTP Basic credentials and a server scope,
// as the gateway's OAuth-style endpoint variant expects.
type BasicAuth struct {
	BaseURL  string
	ClientID string
	Secret   string
	HTTP     *http.Client
}

// Scheme implements Authenticator.
func (a BasicAuth) Scheme() string { return "basic" }

// Token implements Authenticator.
func (a BasicAuth) Token(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("scope", "SERVER_ACCESS")
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenEndpoint(a.BaseURL), strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(a.ClientID, a.Secret)
	return exchange(httpClientOrDefault(a.HTTP), req)
}

func exchange(client *http.Client, req *http.Request) (string, time.Duration, error) {
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, common.NewAppError(common.CodeAuthenticationFailed, "token endpoint unreachable", http.StatusBadGateway, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, common.NewAppError(common.CodeAuthenticationFailed, "token response unreadable", http.StatusBadGateway, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("token endpoint returned %d", resp.StatusCode)
		appErr := common.NewAppError(common.CodeAuthenticationFailed, msg, http.StatusBadGateway, nil)
		appErr.Details = map[string]any{
			"upstream_status": resp.StatusCode,
			"body":            common.TruncateBody(string(raw), 200),
		}
		return "", 0, appErr
	}

	var parsed tokenResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", 0, common.NewAppError(common.CodeAuthenticationFailed, "token response is not valid JSON", http.StatusBadGateway, err)
	}
	if strings.TrimSpace(parsed.AccessToken) == "" {
		return "", 0, common.NewAppError(common.CodeAuthenticationFailed, "token response missing access_token", http.StatusBadGateway, nil)
	}
	lifetime := defaultTokenLifetime
	if parsed.ExpiresIn > 0 {
		lifetime = time.Duration(parsed.ExpiresIn) * time.Second
	}
	return parsed.AccessToken, lifetime, nil
}

func tokenEndpoint(base string) string {
	return strings.TrimRight(base, "/") + "/oauth/token"
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}
