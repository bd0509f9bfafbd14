package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/humidityzone-backend/pkg/db"
	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const defaultCurrency = "USD"

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds the checkout order service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// CreateOrder persists a Pending order and its valid cart lines in one transaction.
// Lines with a non-positive quantity or a negative price are skipped; when none
// remain the transaction is rolled back.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	txnID := strings.TrimSpace(input.TxnID)
	if txnID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "txn_id is required")
	}
	rate := input.DiscountRate
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_rate must be between 0 and 1")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	items, skipped := buildItems(input.CartItems, rate)
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no valid items").
			WithDetails(map[string]any{"skipped_items": skipped})
	}

	order := &models.Order{
		TxnID:              &txnID,
		Status:             enums.OrderStatusPending,
		Currency:           currency,
		CustomerName:       optional(input.ShippingInfo.Name),
		CustomerEmail:      optional(input.ShippingInfo.Email),
		CustomerPhone:      optional(input.ShippingInfo.Phone),
		CustomerAddress:    optional(input.ShippingInfo.Address),
		CustomerCity:       optional(input.ShippingInfo.City),
		CustomerPostalCode: optional(input.ShippingInfo.PostalCode),
		CustomerCountry:    optional(input.ShippingInfo.Country),
		Items:              items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.ExistsByTxnID(ctx, txnID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check txn id")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "an order with this txn_id already exists")
		}
		if _, err := repo.CreateOrder(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "orders_txn_id_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an order with this txn_id already exists")
			}
			if db.IsCheckViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order violates a data constraint")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CreateOrderResult{
		OrderID:      order.ID,
		TxnID:        txnID,
		Status:       order.Status,
		ItemCount:    len(items),
		SkippedItems: skipped,
		TotalPrice:   decimal.Zero,
		CustomerPaid: decimal.Zero,
	}
	for _, item := range items {
		result.TotalPrice = result.TotalPrice.Add(item.TotalPrice)
		result.CustomerPaid = result.CustomerPaid.Add(item.CustomerPaid)
	}
	return result, nil
}

func buildItems(cart []CartItemInput, rate decimal.Decimal) ([]models.OrderItem, int) {
	items := make([]models.OrderItem, 0, len(cart))
	skipped := 0
	keep := decimal.NewFromInt(1).Sub(rate)
	for _, line := range cart {
		if line.Quantity <= 0 || line.Price.IsNegative() || strings.TrimSpace(line.Title) == "" {
			skipped++
			continue
		}
		total := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		items = append(items, models.OrderItem{
			VariantID:    line.VariantID,
			ProductName:  strings.TrimSpace(line.Title),
			VariantName:  line.VariantName,
			UnitPrice:    line.Price.Round(2),
			Quantity:     line.Quantity,
			DiscountRate: rate,
			TotalPrice:   total,
			CustomerPaid: total.Mul(keep).Round(2),
			SKU:          line.SKU,
			Color:        line.Color,
		})
	}
	return items, skipped
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
