package fulfillment

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	"github.com/angelmondragon/humidityzone-backend/pkg/shopify"
	"github.com/shopspring/decimal"
)

const (
	placeholder      = "Unknown"
	placeholderZip   = "00000"
	placeholderEmail = "no-email@example.com"
	financialPaid    = "paid"
	sourceWeb        = "web"
)

// BuildOrderRequest maps a Completed order and its items to the create-order
// payload. Line prices are derived from the stored totals; the order total is the
// raw sum of item totals rounded once.
func BuildOrderRequest(order models.Order, items []models.OrderItem) (shopify.OrderRequest, error) {
	if len(items) == 0 {
		return shopify.OrderRequest{}, invalidItems(ErrNoItems, order.ID, 0)
	}

	lines := make([]shopify.LineItem, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		if item.VariantID == nil || *item.VariantID <= 0 {
			return shopify.OrderRequest{}, invalidItems(ErrMissingVariant, order.ID, item.ID)
		}
		if item.Quantity <= 0 {
			return shopify.OrderRequest{}, invalidItems(ErrNoItems, order.ID, item.ID)
		}
		total = total.Add(item.TotalPrice)
		lines = append(lines, shopify.LineItem{
			VariantID: *item.VariantID,
			Quantity:  item.Quantity,
			Price:     UnitPrice(item.TotalPrice, item.Quantity),
		})
	}

	first, last := splitName(order.CustomerName)
	email := valueOr(order.CustomerEmail, placeholderEmail)
	phone := formatPhone(order.CustomerPhone)
	address := shopify.Address{
		FirstName: first,
		LastName:  last,
		Address1:  valueOr(order.CustomerAddress, placeholder),
		City:      valueOr(order.CustomerCity, placeholder),
		Zip:       valueOr(order.CustomerPostalCode, placeholderZip),
		Country:   valueOr(order.CustomerCountry, placeholder),
		Phone:     phone,
	}

	currency := strings.TrimSpace(order.Currency)
	if currency == "" {
		currency = "USD"
	}

	return shopify.OrderRequest{Order: shopify.Order{
		LineItems: lines,
		Customer: shopify.Customer{
			FirstName: first,
			LastName:  last,
			Email:     email,
			Phone:     phone,
		},
		BillingAddress:  address,
		ShippingAddress: address,
		Email:           email,
		Phone:           phone,
		FinancialStatus: financialPaid,
		TotalPrice:      total.StringFixed(2),
		Currency:        currency,
		SourceName:      sourceWeb,
		Note:            fmt.Sprintf("Order synced from custom checkout. Txn ID: %s", valueOr(order.TxnID, "")),
	}}, nil
}

// UnitPrice reconstructs the per-unit price from a line total.
func UnitPrice(total decimal.Decimal, quantity int) string {
	if quantity <= 0 {
		return total.StringFixed(2)
	}
	return total.Div(decimal.NewFromInt(int64(quantity))).StringFixed(2)
}

func splitName(name *string) (string, string) {
	fields := strings.Fields(valueOr(name, ""))
	if len(fields) == 0 {
		return placeholder, ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

func formatPhone(phone *string) string {
	p := strings.TrimSpace(valueOr(phone, ""))
	if p == "" {
		return ""
	}
	return "+" + strings.TrimLeft(p, "+")
}

func valueOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return strings.TrimSpace(*value)
}
