package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// ListPageSize is the fixed page size of the admin order list.
const ListPageSize = 10

// CartItemInput is one cart line posted by the storefront at checkout.
type CartItemInput struct {
	VariantID   *int64          `json:"variant_id"`
	Title       string          `json:"title"`
	VariantName *string         `json:"variant_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Color       *string         `json:"color"`
	SKU         *string         `json:"sku"`
}

// ShippingInfo carries the buyer contact and address captured at checkout.
type ShippingInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email" validate:"omitempty,email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// CreateOrderInput is the checkout payload. Any status sent by the client is ignored.
type CreateOrderInput struct {
	TxnID        string          `json:"txn_id" validate:"required"`
	Currency     string          `json:"currency" validate:"omitempty,currency"`
	DiscountRate decimal.Decimal `json:"discount_rate" validate:"rate"`
	CartItems    []CartItemInput `json:"cart_items" validate:"required,min=1"`
	ShippingInfo ShippingInfo    `json:"shipping_info"`
	Status       string          `json:"status"`
}

// CreateOrderResult reports the persisted order and how many cart lines were kept.
type CreateOrderResult struct {
	OrderID      int64             `json:"order_id"`
	TxnID        string            `json:"txn_id"`
	Status       enums.OrderStatus `json:"status"`
	ItemCount    int               `json:"item_count"`
	SkippedItems int               `json:"skipped_items"`
	TotalPrice   decimal.Decimal   `json:"total_price"`
	CustomerPaid decimal.Decimal   `json:"customer_paid"`
}

// ListFilters describe the admin order list query.
type ListFilters struct {
	Email string
	TxnID string
	Sort  string
	Page  int
}

// ExportFilters narrow the CSV export.
type ExportFilters struct {
	Email string
	TxnID string
}

// OrderSummary is one row of the admin order list.
type OrderSummary struct {
	ID                int64                    `json:"id"`
	TxnID             *string                  `json:"txn_id"`
	Status            enums.OrderStatus        `json:"status"`
	Currency          string                   `json:"currency"`
	CustomerName      *string                  `json:"customer_name"`
	CustomerEmail     *string                  `json:"customer_email"`
	CustomerCountry   *string                  `json:"customer_country"`
	ShopifySynced     bool                     `json:"shopify_synced"`
	ShopifyOrderID    *int64                   `json:"shopify_order_id"`
	FulfillmentStatus *enums.FulfillmentStatus `json:"fulfillment_status"`
	TrackingNumber    *string                  `json:"tracking_number"`
	OrderDate         time.Time                `gorm:"column:order_date" json:"order_date"`
	TotalPrice        decimal.Decimal          `json:"total_price"`
	ItemCount         int                      `json:"item_count"`
}

// OrderList wraps one page of admin order summaries.
type OrderList struct {
	Orders []OrderSummary `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// OrderItemDetail is the admin view of one order line.
type OrderItemDetail struct {
	ID           int64           `json:"id"`
	VariantID    *int64          `json:"variant_id"`
	ProductName  string          `json:"product_name"`
	VariantName  *string         `json:"variant_name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	CustomerPaid decimal.Decimal `json:"customer_paid"`
	SKU          *string         `json:"sku"`
	Color        *string         `json:"color"`
}

// OrderDetail is an order with its lines and derived totals.
type OrderDetail struct {
	ID                 int64                    `json:"id"`
	TxnID              *string                  `json:"txn_id"`
	Status             enums.OrderStatus        `json:"status"`
	Currency           string                   `json:"currency"`
	CustomerName       *string                  `json:"customer_name"`
	CustomerEmail      *string                  `json:"customer_email"`
	CustomerPhone      *string                  `json:"customer_phone"`
	CustomerAddress    *string                  `json:"customer_address"`
	CustomerCity       *string                  `json:"customer_city"`
	CustomerPostalCode *string                  `json:"customer_postal_code"`
	CustomerCountry    *string                  `json:"customer_country"`
	ShopifySynced      bool                     `json:"shopify_synced"`
	ShopifyOrderID     *int64                   `json:"shopify_order_id"`
	FulfillmentStatus  *enums.FulfillmentStatus `json:"fulfillment_status"`
	TrackingNumber     *string                  `json:"tracking_number"`
	OrderDate          time.Time                `json:"order_date"`
	TotalPrice         decimal.Decimal          `json:"total_price"`
	CustomerPaid       decimal.Decimal          `json:"customer_paid"`
	Items              []OrderItemDetail        `json:"items"`
}

// ExportRow is one line of the admin CSV export.
type ExportRow struct {
	OrderID            int64
	TxnID              string
	OrderDate          time.Time
	Status             enums.OrderStatus
	Currency           string
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	CustomerAddress    string
	CustomerCity       string
	CustomerPostalCode string
	CustomerCountry    string
	TotalPrice         decimal.Decimal
	CustomerPaid       decimal.Decimal
	ShopifySynced      bool
	FulfillmentStatus  string
	TrackingNumber     string
	Items              string
}

func newOrderDetail(order models.Order) *OrderDetail {
	detail := &OrderDetail{
		ID:                 order.ID,
		TxnID:              order.TxnID,
		Status:             order.Status,
		Currency:           order.Currency,
		CustomerName:       order.CustomerName,
		CustomerEmail:      order.CustomerEmail,
		CustomerPhone:      order.CustomerPhone,
		CustomerAddress:    order.CustomerAddress,
		CustomerCity:       order.CustomerCity,
		CustomerPostalCode: order.CustomerPostalCode,
		CustomerCountry:    order.CustomerCountry,
		ShopifySynced:      order.ShopifySynced,
		ShopifyOrderID:     order.ShopifyOrderID,
		FulfillmentStatus:  order.FulfillmentStatus,
		TrackingNumber:     order.TrackingNumber,
		OrderDate:          order.CreatedAt,
		TotalPrice:         decimal.Zero,
		CustomerPaid:       decimal.Zero,
		Items:              make([]OrderItemDetail, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		detail.TotalPrice = detail.TotalPrice.Add(item.TotalPrice)
		detail.CustomerPaid = detail.CustomerPaid.Add(item.CustomerPaid)
		detail.Items = append(detail.Items, OrderItemDetail{
			ID:           item.ID,
			VariantID:    item.VariantID,
			ProductName:  item.ProductName,
			VariantName:  item.VariantName,
			Price:        item.UnitPrice,
			Quantity:     item.Quantity,
			DiscountRate: item.DiscountRate,
			TotalPrice:   item.TotalPrice,
			CustomerPaid: item.CustomerPaid,
			SKU:          item.SKU,
			Color:        item.Color,
		})
	}
	return detail
}

func newExportRow(order models.Order) ExportRow {
	row := ExportRow{
		OrderID:            order.ID,
		TxnID:              deref(order.TxnID),
		OrderDate:          order.CreatedAt,
		Status:             order.Status,
		Currency:           order.Currency,
		CustomerName:       deref(order.CustomerName),
		CustomerEmail:      deref(order.CustomerEmail),
		CustomerPhone:      deref(order.CustomerPhone),
		CustomerAddress:    deref(order.CustomerAddress),
		CustomerCity:       deref(order.CustomerCity),
		CustomerPostalCode: deref(order.CustomerPostalCode),
		CustomerCountry:    deref(order.CustomerCountry),
		TotalPrice:         decimal.Zero,
		CustomerPaid:       decimal.Zero,
		ShopifySynced:      order.ShopifySynced,
		TrackingNumber:     deref(order.TrackingNumber),
	}
	if order.FulfillmentStatus != nil {
		row.FulfillmentStatus = string(*order.FulfillmentStatus)
	}
	parts := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		row.TotalPrice = row.TotalPrice.Add(item.TotalPrice)
		row.CustomerPaid = row.CustomerPaid.Add(item.CustomerPaid)
		variant := deref(item.VariantName)
		if variant == "" {
			variant = "Default"
		}
		parts = append(parts, fmt.Sprintf("%s (%s, Qty: %d)", item.ProductName, variant, item.Quantity))
	}
	row.Items = strings.Join(parts, "; ")
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
