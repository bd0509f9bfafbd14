package models

import (
	"time"

	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
)

// Order is a storefront checkout awaiting (or reconciled against) a payment notification.
type Order struct {
	ID                 int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	TxnID              *string                  `gorm:"column:txn_id;uniqueIndex"`
	Status             enums.OrderStatus        `gorm:"column:status;not null;default:'Pending'"`
	Currency           string                   `gorm:"column:currency;not null;default:'USD'"`
	CustomerName       *string                  `gorm:"column:customer_name"`
	CustomerEmail      *string                  `gorm:"column:customer_email"`
	CustomerPhone      *string                  `gorm:"column:customer_phone"`
	CustomerAddress    *string                  `gorm:"column:customer_address"`
	CustomerCity       *string                  `gorm:"column:customer_city"`
	CustomerPostalCode *string                  `gorm:"column:customer_postal_code"`
	CustomerCountry    *string                  `gorm:"column:customer_country"`
	ShopifySynced      bool                     `gorm:"column:shopify_synced;not null;default:false"`
	ShopifyOrderID     *int64                   `gorm:"column:shopify_order_id"`
	FulfillmentStatus  *enums.FulfillmentStatus `gorm:"column:fulfillment_status"`
	TrackingNumber     *string                  `gorm:"column:tracking_number"`
	StatusChangedAt    *time.Time               `gorm:"column:status_changed_at"`
	Items              []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time                `gorm:"column:order_date;autoCreateTime"`
}

func (Order) TableName() string { return "orders" }
