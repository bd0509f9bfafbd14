package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	defaultAPIBase              = "https://api.sandbox.paypal.com"
	responseBodyReadLimit int64 = 1024
)

var errCredentialsRequired = errors.New("paypal client id and secret are required")

// Client creates PayPal payments through the v1 payments API.
type Client struct {
	httpClient *http.Client
	apiBase    string
	clientID   string
	secret     string
	returnURL  string
	cancelURL  string
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

// WithAPIBase overrides the PayPal API host.
func WithAPIBase(apiBase string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(apiBase), "/"); trimmed != "" {
			c.apiBase = trimmed
		}
	}
}

// WithRedirectURLs sets where PayPal returns the buyer after approval or cancellation.
func WithRedirectURLs(returnURL, cancelURL string) Option {
	return func(c *Client) {
		c.returnURL = strings.TrimSpace(returnURL)
		c.cancelURL = strings.TrimSpace(cancelURL)
	}
}

// NewClient builds a PayPal client from the REST app credentials.
func NewClient(clientID, secret string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	secret = strings.TrimSpace(secret)
	if clientID == "" || secret == "" {
		return nil, errCredentialsRequired
	}
	client := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiBase:    defaultAPIBase,
		clientID:   clientID,
		secret:     secret,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Payment is the created payment with its buyer approval link.
type Payment struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	ApprovalURL string `json:"approval_url"`
}

type paymentRequest struct {
	Intent       string        `json:"intent"`
	Payer        payer         `json:"payer"`
	Transactions []transaction `json:"transactions"`
	RedirectURLs redirectURLs  `json:"redirect_urls"`
}

type payer struct {
	PaymentMethod string `json:"payment_method"`
}

type transaction struct {
	Amount      amount `json:"amount"`
	Description string `json:"description"`
}

type amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type redirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

// CreatePayment creates a sale intent for total in currency.
func (c *Client) CreatePayment(ctx context.Context, total decimal.Decimal, currency string) (*Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paypal client not configured")
	}
	if !total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}

	payload, err := json.Marshal(paymentRequest{
		Intent: "sale",
		Payer:  payer{PaymentMethod: "paypal"},
		Transactions: []transaction{{
			Amount:      amount{Total: total.StringFixed(2), Currency: currency},
			Description: "Humidity Zone order",
		}},
		RedirectURLs: redirectURLs{ReturnURL: c.returnURL, CancelURL: c.cancelURL},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal paypal payment")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/v1/payments/payment", bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build paypal request")
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute paypal request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "paypal payment request failed")
	}

	var apiResp struct {
		ID    string `json:"id"`
		State string `json:"state"`
		Links []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode paypal response")
	}

	payment := &Payment{ID: apiResp.ID, State: apiResp.State}
	for _, link := range apiResp.Links {
		if link.Rel == "approval_url" {
			payment.ApprovalURL = link.Href
			break
		}
	}
	if payment.ID == "" || payment.ApprovalURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "paypal response missing approval link")
	}
	return payment, nil
}
