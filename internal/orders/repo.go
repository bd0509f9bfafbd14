package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/humidityzone-backend/internal/repo"
	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	"github.com/angelmondragon/humidityzone-backend/pkg/pagination"
	"gorm.io/gorm"
)

const transitionQuery = `UPDATE orders SET status = ?, status_changed_at = ? WHERE txn_id = ? AND status = ? RETURNING id`

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{Base: repo.NewBase(tx)}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ExistsByTxnID(ctx context.Context, txnID string) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("txn_id = ?", txnID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEmailByTxnID returns nil when the txn id is unknown or the order has no email.
func (r *repository) FindEmailByTxnID(ctx context.Context, txnID string) (*string, error) {
	var emails []*string
	err := r.DB(ctx).
		Model(&models.Order{}).
		Where("txn_id = ?", txnID).
		Limit(1).
		Pluck("customer_email", &emails).Error
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 || emails[0] == nil || strings.TrimSpace(*emails[0]) == "" {
		return nil, nil
	}
	return emails[0], nil
}

func (r *repository) TransitionToCompleted(ctx context.Context, txnID string) (*models.Order, error) {
	return r.transition(ctx, txnID, enums.OrderStatusCompleted)
}

func (r *repository) TransitionToCancelled(ctx context.Context, txnID string) (*models.Order, error) {
	return r.transition(ctx, txnID, enums.OrderStatusCancelled)
}

// transition is a single conditional statement so that concurrent deliveries for
// the same txn id cannot both observe a Pending row.
func (r *repository) transition(ctx context.Context, txnID string, to enums.OrderStatus) (*models.Order, error) {
	var ids []int64
	err := r.DB(ctx).
		Raw(transitionQuery, string(to), time.Now().UTC(), txnID, string(enums.OrderStatusPending)).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("transition order to %s: %w", to, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return r.FindOrder(ctx, ids[0])
}

func (r *repository) ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.DB(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) RecordFulfillment(ctx context.Context, orderID int64, shopifyOrderID int64) error {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"shopify_synced":     true,
			"shopify_order_id":   shopifyOrderID,
			"fulfillment_status": string(enums.FulfillmentStatusReadyToShip),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClaimFulfillment marks an unsynced, unclaimed order as publishing. It reports
// false when the order is synced, claimed or marked invalid.
func (r *repository) ClaimFulfillment(ctx context.Context, orderID int64) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND shopify_synced = ? AND fulfillment_status IS NULL", orderID, false).
		Update("fulfillment_status", string(enums.FulfillmentStatusPublishing))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReleaseFulfillment clears a publishing claim after a failed create-order call.
func (r *repository) ReleaseFulfillment(ctx context.Context, orderID int64) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND shopify_synced = ? AND fulfillment_status = ?", orderID, false, string(enums.FulfillmentStatusPublishing)).
		Update("fulfillment_status", gorm.Expr("NULL")).Error
}

// MarkFulfillmentInvalid parks an order whose items can never be published.
// Clearing fulfillment_status puts it back in the sync queue.
func (r *repository) MarkFulfillmentInvalid(ctx context.Context, orderID int64) error {
	return r.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND shopify_synced = ?", orderID, false).
		Update("fulfillment_status", string(enums.FulfillmentStatusInvalidItems)).Error
}

// FindUnsyncedCompleted returns unclaimed Completed orders without a fulfillment
// order whose transition happened at or before settledBefore.
func (r *repository) FindUnsyncedCompleted(ctx context.Context, settledBefore time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	q := r.DB(ctx).
		Where("status = ? AND shopify_synced = ?", string(enums.OrderStatusCompleted), false).
		Where("fulfillment_status IS NULL").
		Where("status_changed_at IS NULL OR status_changed_at <= ?", settledBefore).
		Scopes(repo.Oldest("order_date", "id"))
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Where("tracking_number = ?", trackingNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context, filters ListFilters) (*OrderList, error) {
	page := pagination.New(filters.Page, ListPageSize)

	desc := !strings.EqualFold(filters.Sort, "asc")

	var total int64
	countQuery := applyFilters(r.DB(ctx).Model(&models.Order{}), "", filters.Email, filters.TxnID)
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []OrderSummary
	query := r.DB(ctx).
		Table("orders AS o").
		Select(`o.id, o.txn_id, o.status, o.currency, o.customer_name, o.customer_email,
			o.customer_country, o.shopify_synced, o.shopify_order_id, o.fulfillment_status,
			o.tracking_number, o.order_date,
			COALESCE(SUM(oi.total_price), 0) AS total_price,
			COUNT(oi.id) AS item_count`).
		Joins("LEFT JOIN order_items oi ON oi.order_id = o.id")
	query = applyFilters(query, "o.", filters.Email, filters.TxnID).
		Group("o.id").
		Scopes(repo.SortBy(desc, "o.order_date", "o.id"), repo.Paginate(page))
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []OrderSummary{}
	}

	return &OrderList{
		Orders: rows,
		Total:  total,
		Page:   page.Number,
		Limit:  page.Size,
	}, nil
}

func (r *repository) FindOrderDetail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return newOrderDetail(order), nil
}

func (r *repository) ExportOrders(ctx context.Context, filters ExportFilters) ([]ExportRow, error) {
	var orders []models.Order
	query := applyFilters(r.DB(ctx).Model(&models.Order{}), "", filters.Email, filters.TxnID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Scopes(repo.Newest("order_date", "id"))
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}

	rows := make([]ExportRow, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, newExportRow(order))
	}
	return rows, nil
}

func applyFilters(q *gorm.DB, alias, email, txnID string) *gorm.DB {
	if email = strings.TrimSpace(email); email != "" {
		q = q.Where(alias+"customer_email = ?", email)
	}
	if txnID = strings.TrimSpace(txnID); txnID != "" {
		q = q.Where(alias+"txn_id = ?", txnID)
	}
	return q
}

// IsNotFound reports whether err means the requested order does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
