package fulfillment

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/humidityzone-backend/pkg/db/models"
	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/shopify"
	"github.com/shopspring/decimal"
)

type stubCreator struct {
	requests []shopify.OrderRequest
	resp     *shopify.CreatedOrder
	err      error
}

func (s *stubCreator) CreateOrder(ctx context.Context, req shopify.OrderRequest) (*shopify.CreatedOrder, error) {
	s.requests = append(s.requests, req)
	return s.resp, s.err
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func completedOrder() models.Order {
	return models.Order{
		ID:            7,
		TxnID:         strPtr("T1"),
		Status:        enums.OrderStatusCompleted,
		Currency:      "USD",
		CustomerName:  strPtr("Jane Q Doe"),
		CustomerEmail: strPtr("a@x.com"),
		CustomerPhone: strPtr("15551234567"),
	}
}

func TestBuildOrderRequest_ScenarioLine(t *testing.T) {
	items := []models.OrderItem{{
		ID:         1,
		VariantID:  int64Ptr(111),
		Quantity:   2,
		TotalPrice: decimal.RequireFromString("20.00"),
	}}

	req, err := BuildOrderRequest(completedOrder(), items)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	line := req.Order.LineItems[0]
	if line.VariantID != 111 || line.Quantity != 2 || line.Price != "10.00" {
		t.Fatalf("unexpected line item %+v", line)
	}
	if req.Order.TotalPrice != "20.00" || req.Order.FinancialStatus != "paid" || req.Order.SourceName != "web" {
		t.Fatalf("unexpected order fields %+v", req.Order)
	}
	if req.Order.Customer.FirstName != "Jane" || req.Order.Customer.LastName != "Q Doe" {
		t.Fatalf("unexpected name split %+v", req.Order.Customer)
	}
	if req.Order.Customer.Phone != "+15551234567" {
		t.Fatalf("expected phone to be prefixed with +, got %q", req.Order.Customer.Phone)
	}
	if req.Order.Note != "Order synced from custom checkout. Txn ID: T1" {
		t.Fatalf("unexpected note %q", req.Order.Note)
	}
}

func TestBuildOrderRequest_Placeholders(t *testing.T) {
	order := models.Order{ID: 8, TxnID: strPtr("T9")}
	items := []models.OrderItem{{VariantID: int64Ptr(1), Quantity: 1, TotalPrice: decimal.NewFromInt(5)}}

	req, err := BuildOrderRequest(order, items)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	addr := req.Order.ShippingAddress
	if addr.Address1 != "Unknown" || addr.City != "Unknown" || addr.Zip != "00000" || addr.Country != "Unknown" {
		t.Fatalf("expected placeholders, got %+v", addr)
	}
	if req.Order.Customer.Email != "no-email@example.com" || req.Order.Customer.FirstName != "Unknown" {
		t.Fatalf("unexpected customer %+v", req.Order.Customer)
	}
	if req.Order.Customer.Phone != "" || req.Order.Currency != "USD" {
		t.Fatalf("unexpected phone/currency %+v", req.Order)
	}
}

func TestBuildOrderRequest_TotalRoundedOnce(t *testing.T) {
	items := []models.OrderItem{
		{VariantID: int64Ptr(1), Quantity: 3, TotalPrice: decimal.RequireFromString("10.005")},
		{VariantID: int64Ptr(2), Quantity: 3, TotalPrice: decimal.RequireFromString("10.005")},
	}
	req, err := BuildOrderRequest(completedOrder(), items)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if req.Order.TotalPrice != "20.01" {
		t.Fatalf("expected raw sum rounded once to 20.01, got %s", req.Order.TotalPrice)
	}
}

func TestUnitPriceRoundTrip(t *testing.T) {
	one := decimal.RequireFromString("0.01")
	for _, price := range []string{"0.01", "9.99", "10.00", "33.33", "1234.56"} {
		for _, qty := range []int{1, 2, 3, 7, 13} {
			unit := decimal.RequireFromString(price)
			total := unit.Mul(decimal.NewFromInt(int64(qty)))
			got := decimal.RequireFromString(UnitPrice(total, qty))
			if got.Sub(unit).Abs().GreaterThan(one) {
				t.Fatalf("price %s qty %d reconstructed as %s", price, qty, got)
			}
		}
	}
}

func TestPublish_MissingVariantMakesNoCall(t *testing.T) {
	creator := &stubCreator{resp: &shopify.CreatedOrder{ID: 1}}
	pub := NewPublisher(creator, nil, nil)

	_, err := pub.Publish(context.Background(), completedOrder(), []models.OrderItem{{ID: 3, Quantity: 1, TotalPrice: decimal.NewFromInt(1)}})
	if !errors.Is(err, ErrMissingVariant) || !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected missing variant validation error, got %v", err)
	}
	if len(creator.requests) != 0 {
		t.Fatalf("expected no create call, got %d", len(creator.requests))
	}

	_, err = pub.Publish(context.Background(), completedOrder(), nil)
	if !errors.Is(err, ErrNoItems) {
		t.Fatalf("expected no items error, got %v", err)
	}
}

func TestPublish_NotConfigured(t *testing.T) {
	pub := NewPublisher(nil, nil, nil)
	if pub.Configured() {
		t.Fatal("expected unconfigured publisher")
	}
	items := []models.OrderItem{{VariantID: int64Ptr(1), Quantity: 1, TotalPrice: decimal.NewFromInt(1)}}
	_, err := pub.Publish(context.Background(), completedOrder(), items)
	if !errors.Is(err, ErrNotConfigured) || !pkgerrors.Is(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected not configured error, got %v", err)
	}
}

func TestPublish_SingleCallAndFailure(t *testing.T) {
	items := []models.OrderItem{{VariantID: int64Ptr(111), Quantity: 2, TotalPrice: decimal.RequireFromString("20.00")}}

	creator := &stubCreator{resp: &shopify.CreatedOrder{ID: 987654}}
	id, err := NewPublisher(creator, nil, nil).Publish(context.Background(), completedOrder(), items)
	if err != nil || id != 987654 {
		t.Fatalf("expected id 987654, got %d err=%v", id, err)
	}
	if len(creator.requests) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(creator.requests))
	}

	failing := &stubCreator{err: &shopify.APIError{Op: "create order", StatusCode: 422, Body: "invalid"}}
	_, err = NewPublisher(failing, nil, nil).Publish(context.Background(), completedOrder(), items)
	pubErr, ok := AsPublishError(err)
	if !ok || pubErr.OrderID != 7 {
		t.Fatalf("expected publish error for order 7, got %v", err)
	}
	if len(failing.requests) != 1 {
		t.Fatalf("expected no retries, got %d calls", len(failing.requests))
	}
	if !pkgerrors.Is(pubErr.APIError(), pkgerrors.CodeUpstream) {
		t.Fatalf("expected upstream code")
	}
}
