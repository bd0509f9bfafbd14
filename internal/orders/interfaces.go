package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the orders and order_items tables.
//
// Order status is only ever written through TransitionToCompleted and
// TransitionToCancelled; both apply a guarded update that matches Pending rows only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, orderID int64) (*models.Order, error)
	ExistsByTxnID(ctx context.Context, txnID string) (bool, error)
	FindEmailByTxnID(ctx context.Context, txnID string) (*string, error)
	TransitionToCompleted(ctx context.Context, txnID string) (*models.Order, error)
	TransitionToCancelled(ctx context.Context, txnID string) (*models.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	RecordFulfillment(ctx context.Context, orderID int64, shopifyOrderID int64) error
	ClaimFulfillment(ctx context.Context, orderID int64) (bool, error)
	ReleaseFulfillment(ctx context.Context, orderID int64) error
	MarkFulfillmentInvalid(ctx context.Context, orderID int64) error
	FindUnsyncedCompleted(ctx context.Context, settledBefore time.Time, limit int) ([]models.Order, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error)
	ListOrders(ctx context.Context, filters ListFilters) (*OrderList, error)
	FindOrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error)
	ExportOrders(ctx context.Context, filters ExportFilters) ([]ExportRow, error)
}

// Service exposes checkout-time order creation.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
