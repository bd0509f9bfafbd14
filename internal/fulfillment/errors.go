package fulfillment

import (
	"errors"
	"fmt"

	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
)

var (
	// ErrNoItems means the order has nothing to fulfill.
	ErrNoItems = errors.New("order has no items")
	// ErrMissingVariant means at least one item has no commerce-platform variant id.
	ErrMissingVariant = errors.New("order item missing variant id")
	// ErrNotConfigured means the commerce platform endpoint or token is absent.
	ErrNotConfigured = errors.New("fulfillment platform not configured")
)

func invalidItems(cause error, orderID, itemID int64) error {
	details := map[string]any{"order_id": orderID}
	if itemID != 0 {
		details["item_id"] = itemID
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, cause.Error()).WithDetails(details)
}

func notConfigured() error {
	return pkgerrors.Wrap(pkgerrors.CodeInternal, ErrNotConfigured, "fulfillment configuration error")
}

// PublishError reports a failed or unusable create-order call.
type PublishError struct {
	OrderID int64
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish order %d: %v", e.OrderID, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// APIError converts a publish failure into the typed HTTP error.
func (e *PublishError) APIError() *pkgerrors.Error {
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, e, "failed to create fulfillment order").
		WithDetails(map[string]any{"order_id": e.OrderID})
}

// AsPublishError extracts a *PublishError from err.
func AsPublishError(err error) (*PublishError, bool) {
	var pubErr *PublishError
	if errors.As(err, &pubErr) {
		return pubErr, true
	}
	return nil, false
}
