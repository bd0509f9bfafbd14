package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	accessTokenHeader           = "X-Shopify-Access-Token"
	defaultTimeout              = 15 * time.Second
	responseBodyReadLimit int64 = 2048
)

var errCredentialsRequired = errors.New("shopify api base and access token are required")

// APIError reports a non-2xx answer or an unusable body from the Admin API.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("shopify %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("shopify %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the Admin API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the Shopify Admin REST API with a private-app access token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
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

// WithTimeout bounds every request made by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds a client rooted at baseURL, e.g. https://shop.myshopify.com/admin/api/2023-10.
func NewClient(baseURL, accessToken string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	accessToken = strings.TrimSpace(accessToken)
	if baseURL == "" || accessToken == "" {
		return nil, errCredentialsRequired
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     baseURL,
		accessToken: accessToken,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// CreateOrder issues exactly one POST /orders.json.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*CreatedOrder, error) {
	var resp struct {
		Order *CreatedOrder `json:"order"`
	}
	if err := c.do(ctx, "create order", http.MethodPost, "orders.json", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Order == nil || resp.Order.ID == 0 {
		return nil, &APIError{Op: "create order", StatusCode: http.StatusOK, Err: errors.New("response missing order id")}
	}
	return resp.Order, nil
}

// FulfillmentOrders lists the fulfillment orders of a Shopify order.
func (c *Client) FulfillmentOrders(ctx context.Context, orderID int64) ([]FulfillmentOrder, error) {
	var resp struct {
		FulfillmentOrders []FulfillmentOrder `json:"fulfillment_orders"`
	}
	path := fmt.Sprintf("orders/%d/fulfillment_orders.json", orderID)
	if err := c.do(ctx, "fulfillment orders", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.FulfillmentOrders, nil
}

// Products lists products, optionally narrowed by tag.
func (c *Client) Products(ctx context.Context, tag string) ([]Product, error) {
	query := url.Values{}
	if tag = strings.TrimSpace(tag); tag != "" {
		query.Set("tags", tag)
	}
	var resp struct {
		Products []Product `json:"products"`
	}
	if err := c.do(ctx, "list products", http.MethodGet, "products.json", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		return nil, &APIError{Op: "list products", StatusCode: http.StatusOK, Err: errors.New("invalid products data format")}
	}
	return resp.Products, nil
}

// Product fetches a single product by id.
func (c *Client) Product(ctx context.Context, productID int64) (*Product, error) {
	var resp struct {
		Product *Product `json:"product"`
	}
	path := fmt.Sprintf("products/%d.json", productID)
	if err := c.do(ctx, "get product", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, &APIError{Op: "get product", StatusCode: http.StatusNotFound, Body: "product not found"}
	}
	return resp.Product, nil
}

// InventoryLevels returns the stock levels of one inventory item.
func (c *Client) InventoryLevels(ctx context.Context, inventoryItemID int64) ([]InventoryLevel, error) {
	query := url.Values{}
	query.Set("inventory_item_ids", strconv.FormatInt(inventoryItemID, 10))
	var resp struct {
		InventoryLevels []InventoryLevel `json:"inventory_levels"`
	}
	if err := c.do(ctx, "inventory levels", http.MethodGet, "inventory_levels.json", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.InventoryLevels, nil
}

// ProductMetafields lists the metafields attached to a product.
func (c *Client) ProductMetafields(ctx context.Context, productID int64) ([]Metafield, error) {
	var resp struct {
		Metafields []Metafield `json:"metafields"`
	}
	path := fmt.Sprintf("products/%d/metafields.json", productID)
	if err := c.do(ctx, "product metafields", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Metafields, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Op: op, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &APIError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
