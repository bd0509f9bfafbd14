package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
)

// ErrAlreadyClaimed means another caller holds or held the order's publish claim.
var ErrAlreadyClaimed = errors.New("fulfillment already claimed")

// Ledger stores the publish claim that keeps one order from reaching the
// commerce platform twice.
type Ledger interface {
	ClaimFulfillment(ctx context.Context, orderID int64) (bool, error)
	ReleaseFulfillment(ctx context.Context, orderID int64) error
	MarkFulfillmentInvalid(ctx context.Context, orderID int64) error
	RecordFulfillment(ctx context.Context, orderID int64, shopifyOrderID int64) error
}

type orderPublisher interface {
	Publish(ctx context.Context, order models.Order, items []models.OrderItem) (int64, error)
}

// RecordError means the platform order exists but the store does not know it.
// The claim stays in place so no later pass publishes the order again.
type RecordError struct {
	OrderID        int64
	ShopifyOrderID int64
	Err            error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record fulfillment %d for order %d: %v", e.ShopifyOrderID, e.OrderID, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Fulfill claims the order, publishes it and records the platform id.
// Orders with unpublishable items are marked invalid; any other publish
// failure releases the claim for the next sync pass.
func Fulfill(ctx context.Context, ledger Ledger, pub orderPublisher, order models.Order, items []models.OrderItem) (int64, error) {
	claimed, err := ledger.ClaimFulfillment(ctx, order.ID)
	if err != nil {
		return 0, fmt.Errorf("claim fulfillment: %w", err)
	}
	if !claimed {
		return 0, ErrAlreadyClaimed
	}

	shopifyOrderID, err := pub.Publish(ctx, order, items)
	if err != nil {
		if IsInvalidItems(err) {
			return 0, multierr.Append(err, ledger.MarkFulfillmentInvalid(ctx, order.ID))
		}
		return 0, multierr.Append(err, ledger.ReleaseFulfillment(ctx, order.ID))
	}

	if err := ledger.RecordFulfillment(ctx, order.ID, shopifyOrderID); err != nil {
		return shopifyOrderID, &RecordError{OrderID: order.ID, ShopifyOrderID: shopifyOrderID, Err: err}
	}
	return shopifyOrderID, nil
}

// IsInvalidItems reports whether err can only be fixed by editing the order.
func IsInvalidItems(err error) bool {
	return errors.Is(err, ErrMissingVariant) || errors.Is(err, ErrNoItems)
}
