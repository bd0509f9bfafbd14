package shopify

import "time"

// OrderRequest is the body of POST /orders.json.
type OrderRequest struct {
	Order Order `json:"order"`
}

// Order is the order payload Shopify creates from a reconciled payment.
type Order struct {
	LineItems       []LineItem `json:"line_items"`
	Customer        Customer   `json:"customer"`
	BillingAddress  Address    `json:"billing_address"`
	ShippingAddress Address    `json:"shipping_address"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	FinancialStatus string     `json:"financial_status"`
	TotalPrice      string     `json:"total_price"`
	Currency        string     `json:"currency"`
	SourceName      string     `json:"source_name"`
	Note            string     `json:"note"`
	SendReceipt     bool       `json:"send_receipt"`
}

type LineItem struct {
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address1"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// CreatedOrder is the subset of the create-order response the service keeps.
type CreatedOrder struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FulfillmentOrder is one entry of /orders/{id}/fulfillment_orders.json.
type FulfillmentOrder struct {
	ID             int64           `json:"id"`
	Status         string          `json:"status"`
	Fulfillments   []Fulfillment   `json:"fulfillments"`
	TrackingEvents []TrackingEvent `json:"tracking_events"`
}

type Fulfillment struct {
	TrackingInfo TrackingInfo `json:"tracking_info"`
}

type TrackingInfo struct {
	Number  string `json:"tracking_number"`
	Company string `json:"company"`
	URL     string `json:"url"`
}

type TrackingEvent struct {
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at"`
	Location  *string    `json:"location"`
}

// Product mirrors the storefront-relevant fields of a Shopify product.
type Product struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	BodyHTML    string         `json:"body_html"`
	Vendor      string         `json:"vendor"`
	ProductType string         `json:"product_type"`
	Handle      string         `json:"handle"`
	Tags        string         `json:"tags"`
	Status      string         `json:"status"`
	Variants    []Variant      `json:"variants"`
	Images      []ProductImage `json:"images"`
}

type Variant struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Price           string  `json:"price"`
	SKU             string  `json:"sku"`
	InventoryItemID int64   `json:"inventory_item_id"`
	Option1         *string `json:"option1"`
}

type ProductImage struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// InventoryLevel is the stock of one inventory item at one location.
type InventoryLevel struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	LocationID      int64 `json:"location_id"`
	Available       *int  `json:"available"`
}

// Metafield is a custom key/value attached to a resource.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type"`
}
