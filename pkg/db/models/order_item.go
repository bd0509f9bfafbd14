package models

import (
	"github.com/shopspring/decimal"
)

// OrderItem is the immutable snapshot of a cart line taken at checkout.
type OrderItem struct {
	ID           int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID      int64           `gorm:"column:order_id;not null;index"`
	VariantID    *int64          `gorm:"column:variant_id"`
	ProductName  string          `gorm:"column:product_name;not null"`
	VariantName  *string         `gorm:"column:variant_name"`
	UnitPrice    decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity     int             `gorm:"column:quantity;not null"`
	DiscountRate decimal.Decimal `gorm:"column:discount_rate;type:numeric(5,4);not null;default:0"`
	TotalPrice   decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CustomerPaid decimal.Decimal `gorm:"column:customer_paid;type:numeric(12,2);not null"`
	SKU          *string         `gorm:"column:sku"`
	Color        *string         `gorm:"column:color"`
}

func (OrderItem) TableName() string { return "order_items" }
