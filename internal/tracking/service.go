package tracking

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/shopify"
)

const unknownEventStatus = "unknown"

// OrderFinder resolves an order by the carrier tracking number.
type OrderFinder interface {
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Order, error)
}

// FulfillmentSource reads fulfillment orders from the commerce platform.
type FulfillmentSource interface {
	FulfillmentOrders(ctx context.Context, orderID int64) ([]shopify.FulfillmentOrder, error)
}

// Event is one carrier scan.
type Event struct {
	Status   string     `json:"status"`
	Date     *time.Time `json:"date"`
	Location *string    `json:"location"`
}

// Result is what the storefront tracking page renders.
type Result struct {
	TrackingNumber string  `json:"tracking_number"`
	Carrier        *string `json:"carrier"`
	TrackingURL    *string `json:"tracking_url"`
	Events         []Event `json:"events"`
}

type Service struct {
	orders OrderFinder
	source FulfillmentSource
}

func NewService(orders OrderFinder, source FulfillmentSource) (*Service, error) {
	if orders == nil {
		return nil, errors.New("order finder required")
	}
	if source == nil {
		return nil, errors.New("fulfillment source required")
	}
	return &Service{orders: orders, source: source}, nil
}

// Lookup returns the shipment progress for a tracking number. Orders that
// were never published to the commerce platform have nothing to report.
func (s *Service) Lookup(ctx context.Context, trackingNumber string) (*Result, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Tracking number is required.")
	}

	order, err := s.orders.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "No tracking information available.")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup tracking number")
	}
	if order.ShopifyOrderID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "No tracking information available.")
	}

	fulfillments, err := s.source.FulfillmentOrders(ctx, *order.ShopifyOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "fetch fulfillment orders")
	}
	if len(fulfillments) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "No fulfillment data available.")
	}

	return buildResult(trackingNumber, fulfillments[0]), nil
}

func buildResult(trackingNumber string, fo shopify.FulfillmentOrder) *Result {
	var info shopify.TrackingInfo
	if len(fo.Fulfillments) > 0 {
		info = fo.Fulfillments[0].TrackingInfo
	}

	result := &Result{
		TrackingNumber: trackingNumber,
		Carrier:        nonEmpty(info.Company),
		TrackingURL:    nonEmpty(info.URL),
		Events:         make([]Event, 0, len(fo.TrackingEvents)),
	}
	if info.Number != "" {
		result.TrackingNumber = info.Number
	}

	for _, ev := range fo.TrackingEvents {
		status := ev.Status
		if status == "" {
			status = unknownEventStatus
		}
		result.Events = append(result.Events, Event{
			Status:   status,
			Date:     ev.CreatedAt,
			Location: ev.Location,
		})
	}
	return result
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
