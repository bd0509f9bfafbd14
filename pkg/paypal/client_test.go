package paypal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestCreatePayment(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://paypal.test/v1/payments/payment" {
			t.Fatalf("unexpected url %s", req.URL)
		}
		user, pass, ok := req.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			t.Fatalf("expected basic auth credentials")
		}
		var body paymentRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Transactions[0].Amount.Total != "25.00" || body.RedirectURLs.ReturnURL != "https://shop.test/success" {
			t.Fatalf("unexpected payload %+v", body)
		}
		return &http.Response{
			StatusCode: http.StatusCreated,
			Body: io.NopCloser(strings.NewReader(`{"id":"PAY-1","state":"created","links":[
				{"href":"https://paypal.test/self","rel":"self"},
				{"href":"https://paypal.test/approve","rel":"approval_url"}]}`)),
			Header: http.Header{},
		}, nil
	})

	client, err := NewClient("id", "secret",
		WithHTTPClient(&http.Client{Transport: rt}),
		WithAPIBase("http://paypal.test/"),
		WithRedirectURLs("https://shop.test/success", "https://shop.test/cancel"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	payment, err := client.CreatePayment(context.Background(), decimal.NewFromInt(25), "")
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if payment.ID != "PAY-1" || payment.ApprovalURL != "https://paypal.test/approve" {
		t.Fatalf("unexpected payment %+v", payment)
	}
}

func TestCreatePaymentUpstreamFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(`{"error":"invalid_client"}`)),
			Header:     http.Header{},
		}, nil
	})
	client, _ := NewClient("id", "secret", WithHTTPClient(&http.Client{Transport: rt}))

	_, err := client.CreatePayment(context.Background(), decimal.NewFromInt(5), "USD")
	if !pkgerrors.Is(err, pkgerrors.CodeUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
