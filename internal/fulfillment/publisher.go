package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/angelmondragon/humidityzone-backend/pkg/shopify"
)

// OrderCreator is the commerce-platform call the publisher depends on.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req shopify.OrderRequest) (*shopify.CreatedOrder, error)
}

type publishObserver interface {
	ObservePublish(duration time.Duration, err error)
}

// Publisher turns a Completed order into a fulfillment order on the commerce platform.
type Publisher struct {
	client  OrderCreator
	metrics publishObserver
	logg    *logger.Logger
}

// NewPublisher builds a publisher. A nil client yields a publisher that reports
// ErrNotConfigured so callers can fail before mutating state.
func NewPublisher(client OrderCreator, metrics publishObserver, logg *logger.Logger) *Publisher {
	return &Publisher{client: client, metrics: metrics, logg: logg}
}

// Configured reports whether Publish can reach the platform at all.
func (p *Publisher) Configured() bool {
	return p != nil && p.client != nil
}

// CheckConfigured returns an internal error wrapping ErrNotConfigured when no client is wired.
func (p *Publisher) CheckConfigured() error {
	if !p.Configured() {
		return notConfigured()
	}
	return nil
}

// Publish validates the items, then issues exactly one create-order call and
// returns the platform order id. It never retries.
func (p *Publisher) Publish(ctx context.Context, order models.Order, items []models.OrderItem) (int64, error) {
	req, err := BuildOrderRequest(order, items)
	if err != nil {
		return 0, err
	}
	if err := p.CheckConfigured(); err != nil {
		return 0, err
	}

	start := time.Now()
	created, err := p.client.CreateOrder(ctx, req)
	if created == nil && err == nil {
		err = errors.New("empty create order response")
	}
	if p.metrics != nil {
		p.metrics.ObservePublish(time.Since(start), err)
	}
	if err != nil {
		if p.logg != nil {
			p.logg.Error(p.logg.WithOrderID(ctx, order.ID), "fulfillment publish failed", err)
		}
		return 0, &PublishError{OrderID: order.ID, Err: err}
	}

	if p.logg != nil {
		p.logg.Info(p.logg.WithField(p.logg.WithOrderID(ctx, order.ID), "shopify_order_id", created.ID), "fulfillment order created")
	}
	return created.ID, nil
}
