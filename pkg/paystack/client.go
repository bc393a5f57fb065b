package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.paystack.co"
	errorBodyReadLimit   int64 = 2048
	defaultClientTimeout       = 10 * time.Second
)

var errSecretKeyRequired = errors.New("paystack secret key is required")

// Client wraps the Paystack transaction APIs used for subscription billing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the default HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the Paystack client given a secret key.
func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(secretKey)
	if trimmedKey == "" {
		return nil, errSecretKeyRequired
	}

	client := &Client{
		secretKey:  trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// APIError is a non-2xx or status=false reply from Paystack.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: status %d: %s", e.StatusCode, e.Message)
}

// IsDuplicateReference reports whether the error is Paystack rejecting an
// already-used transaction reference. Callers regenerate the reference and
// retry on this condition.
func IsDuplicateReference(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "duplicate transaction reference")
}

// InitializeRequest describes the payload sent to the transaction initialize API.
// Amount is in the currency subunit (kobo for NGN).
type InitializeRequest struct {
	Email       string          `json:"email"`
	Amount      int64           `json:"amount"`
	Reference   string          `json:"reference"`
	Currency    string          `json:"currency,omitempty"`
	CallbackURL string          `json:"callback_url,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// Authorization holds the checkout handle returned by the initialize API.
type Authorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// TransactionDetails is the normalized verify API response.
type TransactionDetails struct {
	Status    string
	Reference string
	Amount    int64
	Currency  string
	PaidAt    string
	Channel   string
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializeTransaction creates a checkout session for the given reference.
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack client not configured")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if req.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	data, err := c.post(ctx, "transaction/initialize", req)
	if err != nil {
		return nil, err
	}

	var payload struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode initialize response")
	}

	return &Authorization{
		AuthorizationURL: payload.AuthorizationURL,
		AccessCode:       payload.AccessCode,
		Reference:        payload.Reference,
	}, nil
}

// VerifyTransaction fetches the gateway-side state of a transaction by reference.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*TransactionDetails, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack client not configured")
	}
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	data, err := c.get(ctx, "transaction/verify/"+url.PathEscape(trimmed))
	if err != nil {
		return nil, err
	}

	var payload struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Currency  string `json:"currency"`
		PaidAt    string `json:"paid_at"`
		Channel   string `json:"channel"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode verify response")
	}

	return &TransactionDetails{
		Status:    payload.Status,
		Reference: payload.Reference,
		Amount:    payload.Amount,
		Currency:  payload.Currency,
		PaidAt:    payload.PaidAt,
		Channel:   payload.Channel,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal paystack request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build paystack request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build paystack request")
	}
	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute paystack request")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read paystack response")
	}

	var envelope apiEnvelope
	if len(raw) > 0 {
		if decodeErr := json.Unmarshal(raw, &envelope); decodeErr != nil && resp.StatusCode < 300 {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode paystack response")
		}
	}

	if resp.StatusCode >= 300 || !envelope.Status {
		message := strings.TrimSpace(envelope.Message)
		if message == "" {
			message = strings.TrimSpace(string(raw[:min(int64(len(raw)), errorBodyReadLimit)]))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, &APIError{StatusCode: resp.StatusCode, Message: message}, "paystack request failed")
	}

	return envelope.Data, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
