package ipn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/humidityzone-backend/internal/fulfillment"
	"github.com/angelmondragon/humidityzone-backend/internal/notifications"
	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
)

// OrderStore is the slice of the orders repository reconciliation needs.
type OrderStore interface {
	FindEmailByTxnID(ctx context.Context, txnID string) (*string, error)
	TransitionToCompleted(ctx context.Context, txnID string) (*models.Order, error)
	TransitionToCancelled(ctx context.Context, txnID string) (*models.Order, error)
	ListItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	fulfillment.Ledger
}

// Publisher creates the fulfillment order for a Completed order.
type Publisher interface {
	CheckConfigured() error
	Publish(ctx context.Context, order models.Order, items []models.OrderItem) (int64, error)
}

// StatusNotifier emails the buyer about the outcome.
type StatusNotifier interface {
	SendStatusEmail(ctx context.Context, to, txnID string, status notifications.StatusUpdate) error
}

type outcomeRecorder interface {
	IncOutcome(outcome string)
}

// Outcome describes what a notification did to the stored order.
type Outcome string

const (
	OutcomeCompleted    Outcome = "completed"
	OutcomeCancelled    Outcome = "cancelled"
	OutcomeAcknowledged Outcome = "acknowledged"
	OutcomeIgnored      Outcome = "ignored"
)

// Result is returned for every notification that ends in a 200.
type Result struct {
	TxnID          string  `json:"txn_id"`
	Outcome        Outcome `json:"outcome"`
	OrderID        int64   `json:"order_id,omitempty"`
	ShopifyOrderID int64   `json:"shopify_order_id,omitempty"`
	Message        string  `json:"message"`
}

// Service reconciles verified payment notifications against stored orders.
type Service struct {
	store     OrderStore
	publisher Publisher
	notifier  StatusNotifier
	metrics   outcomeRecorder
	logg      *logger.Logger
}

// NewService wires the reconciliation dependencies.
func NewService(store OrderStore, publisher Publisher, notifier StatusNotifier, metrics outcomeRecorder, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("fulfillment publisher required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		metrics:   metrics,
		logg:      logg,
	}, nil
}

// Handle applies one verified notification. Each call is independent; duplicate
// deliveries are resolved by the guarded transition in the store.
func (s *Service) Handle(ctx context.Context, n Notification) (*Result, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{"txn_id": n.TxnID, "payment_status": int(n.Status)})

	var (
		res *Result
		err error
	)
	switch n.Status.Action() {
	case enums.PaymentActionComplete:
		res, err = s.complete(ctx, n)
	case enums.PaymentActionCancel:
		res, err = s.cancel(ctx, n)
	default:
		s.logg.Info(ctx, "payment still in progress; acknowledged")
		res = &Result{TxnID: n.TxnID, Outcome: OutcomeAcknowledged, Message: "IPN processed"}
	}

	s.record(res, err)
	return res, err
}

func (s *Service) complete(ctx context.Context, n Notification) (*Result, error) {
	if err := s.publisher.CheckConfigured(); err != nil {
		return nil, err
	}

	order, err := s.store.TransitionToCompleted(ctx, n.TxnID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete order")
	}
	if order == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "No order found for txn_id: %s", n.TxnID)
	}
	ctx = s.logg.WithOrderID(ctx, order.ID)
	s.logg.Info(ctx, "order completed")

	items, err := s.store.ListItems(ctx, order.ID)
	if err != nil {
		s.notify(ctx, n, order, notifications.StatusPaymentReceived)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list order items")
	}

	shopifyOrderID, err := fulfillment.Fulfill(ctx, s.store, s.publisher, *order, items)
	var recErr *fulfillment.RecordError
	switch {
	case errors.As(err, &recErr):
		s.logg.Error(s.logg.WithField(ctx, "shopify_order_id", recErr.ShopifyOrderID), "fulfillment created but not recorded", err)
		s.notify(ctx, n, order, notifications.StatusFulfilled)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record fulfillment")
	case errors.Is(err, fulfillment.ErrAlreadyClaimed):
		s.logg.Warn(ctx, "fulfillment already claimed by another pass")
		return &Result{TxnID: n.TxnID, Outcome: OutcomeCompleted, OrderID: order.ID, Message: "IPN processed"}, nil
	case err != nil:
		s.notify(ctx, n, order, notifications.StatusPaymentReceived)
		if pubErr, ok := fulfillment.AsPublishError(err); ok {
			return nil, pubErr.APIError()
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fulfill order")
	}

	s.notify(ctx, n, order, notifications.StatusFulfilled)
	return &Result{
		TxnID:          n.TxnID,
		Outcome:        OutcomeCompleted,
		OrderID:        order.ID,
		ShopifyOrderID: shopifyOrderID,
		Message:        "IPN processed",
	}, nil
}

func (s *Service) cancel(ctx context.Context, n Notification) (*Result, error) {
	order, err := s.store.TransitionToCancelled(ctx, n.TxnID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "cancel order")
	}
	if order == nil {
		s.logg.Info(ctx, "no pending order to cancel")
		return &Result{TxnID: n.TxnID, Outcome: OutcomeIgnored, Message: "IPN processed"}, nil
	}

	ctx = s.logg.WithOrderID(ctx, order.ID)
	s.logg.Info(ctx, "order cancelled")
	s.notify(ctx, n, order, notifications.StatusCancelled)
	return &Result{TxnID: n.TxnID, Outcome: OutcomeCancelled, OrderID: order.ID, Message: "IPN processed"}, nil
}

// notify is best effort; failures are logged and never change the response.
func (s *Service) notify(ctx context.Context, n Notification, order *models.Order, status notifications.StatusUpdate) {
	to := s.resolveEmail(ctx, n, order)
	if to == "" {
		s.logg.Warn(ctx, "no buyer email resolved; skipping status email")
		return
	}
	if err := s.notifier.SendStatusEmail(ctx, to, n.TxnID, status); err != nil {
		s.logg.WarnErr(ctx, "status email failed", err)
	}
}

func (s *Service) resolveEmail(ctx context.Context, n Notification, order *models.Order) string {
	if n.BuyerEmail != "" {
		return n.BuyerEmail
	}
	if order != nil && order.CustomerEmail != nil && strings.TrimSpace(*order.CustomerEmail) != "" {
		return strings.TrimSpace(*order.CustomerEmail)
	}
	email, err := s.store.FindEmailByTxnID(ctx, n.TxnID)
	if err != nil {
		s.logg.Error(ctx, "buyer email lookup failed", err)
		return ""
	}
	if email == nil {
		return ""
	}
	return strings.TrimSpace(*email)
}

func (s *Service) record(res *Result, err error) {
	if s.metrics == nil {
		return
	}
	if err == nil && res != nil {
		s.metrics.IncOutcome(string(res.Outcome))
		return
	}
	typed := pkgerrors.As(err)
	switch {
	case typed == nil:
		s.metrics.IncOutcome("error")
	case errors.Is(err, fulfillment.ErrMissingVariant), errors.Is(err, fulfillment.ErrNoItems):
		s.metrics.IncOutcome("invalid_items")
	default:
		s.metrics.IncOutcome(strings.ToLower(string(typed.Code())))
	}
}
