package coinpayments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	defaultAPIURL               = "https://www.coinpayments.net/api.php"
	defaultCurrency1            = "USD"
	defaultCurrency2            = "USDT.TRC20"
	responseBodyReadLimit int64 = 1024
)

var errKeysRequired = errors.New("coinpayments public and private keys are required")

// Client calls the CoinPayments merchant API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	publicKey  string
	privateKey string
	ipnURL     string
	currency1  string
	currency2  string
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

// WithAPIURL overrides the merchant API endpoint.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(apiURL); trimmed != "" {
			c.apiURL = trimmed
		}
	}
}

// WithIPNURL sets the callback URL CoinPayments posts notifications to.
func WithIPNURL(ipnURL string) Option {
	return func(c *Client) {
		c.ipnURL = strings.TrimSpace(ipnURL)
	}
}

// WithCurrencies overrides the priced-in and paid-in currencies.
func WithCurrencies(currency1, currency2 string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(currency1); trimmed != "" {
			c.currency1 = trimmed
		}
		if trimmed := strings.TrimSpace(currency2); trimmed != "" {
			c.currency2 = trimmed
		}
	}
}

// NewClient builds a merchant API client from the account key pair.
func NewClient(publicKey, privateKey string, opts ...Option) (*Client, error) {
	publicKey = strings.TrimSpace(publicKey)
	privateKey = strings.TrimSpace(privateKey)
	if publicKey == "" || privateKey == "" {
		return nil, errKeysRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     defaultAPIURL,
		publicKey:  publicKey,
		privateKey: privateKey,
		currency1:  defaultCurrency1,
		currency2:  defaultCurrency2,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// TransactionRequest describes a new payment session.
type TransactionRequest struct {
	Amount     decimal.Decimal
	BuyerEmail string
	Currency2  string
}

// Transaction is the payment session created by CoinPayments.
type Transaction struct {
	TxnID       string `json:"txn_id"`
	CheckoutURL string `json:"checkout_url"`
	StatusURL   string `json:"status_url,omitempty"`
	Address     string `json:"address,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// CreateTransaction runs the create_transaction command. The returned txn id is
// the key later IPN deliveries reference.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "coinpayments client not configured")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	currency2 := strings.TrimSpace(req.Currency2)
	if currency2 == "" {
		currency2 = c.currency2
	}

	form := url.Values{}
	form.Set("version", "1")
	form.Set("cmd", "create_transaction")
	form.Set("key", c.publicKey)
	form.Set("format", "json")
	form.Set("amount", req.Amount.StringFixed(2))
	form.Set("currency1", c.currency1)
	form.Set("currency2", currency2)
	if email := strings.TrimSpace(req.BuyerEmail); email != "" {
		form.Set("buyer_email", email)
	}
	if c.ipnURL != "" {
		form.Set("ipn_url", c.ipnURL)
	}
	body := form.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build create_transaction request")
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set(SignatureHeader, Sign([]byte(body), c.privateKey))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute create_transaction request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "create_transaction request failed")
	}

	var apiResp struct {
		Error  string      `json:"error"`
		Result Transaction `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode create_transaction response")
	}
	if apiResp.Error != "ok" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "coinpayments rejected the transaction").
			WithDetails(map[string]any{"reason": apiResp.Error})
	}
	if apiResp.Result.TxnID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "coinpayments response missing txn_id")
	}

	return &apiResp.Result, nil
}
