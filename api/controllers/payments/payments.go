package payments

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/humidityzone-backend/api/responses"
	"github.com/angelmondragon/humidityzone-backend/api/validators"
	"github.com/angelmondragon/humidityzone-backend/pkg/coinpayments"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/angelmondragon/humidityzone-backend/pkg/paypal"
)

// TransactionCreator opens a CoinPayments payment session.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, req coinpayments.TransactionRequest) (*coinpayments.Transaction, error)
}

// PaymentCreator opens a PayPal sale.
type PaymentCreator interface {
	CreatePayment(ctx context.Context, total decimal.Decimal, currency string) (*paypal.Payment, error)
}

type coinPaymentsRequest struct {
	Amount     decimal.Decimal `json:"amount" validate:"money_positive"`
	BuyerEmail string          `json:"buyer_email" validate:"omitempty,email"`
	Currency2  string          `json:"currency2"`
}

type payPalRequest struct {
	Amount   decimal.Decimal `json:"amount" validate:"money_positive"`
	Currency string          `json:"currency" validate:"omitempty,currency"`
}

// CoinPayments creates a crypto checkout session. The returned txn_id is the
// key the storefront stores with the order and later IPNs reference.
func CoinPayments(creator TransactionCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coinpayments unavailable"))
			return
		}

		var req coinPaymentsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := creator.CreateTransaction(r.Context(), coinpayments.TransactionRequest{
			Amount:     req.Amount,
			BuyerEmail: req.BuyerEmail,
			Currency2:  req.Currency2,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithTxnID(r.Context(), txn.TxnID), "payments.coinpayments.created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, txn)
	}
}

// PayPal creates a PayPal sale and returns the approval link.
func PayPal(creator PaymentCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if creator == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paypal unavailable"))
			return
		}

		var req payPalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := creator.CreatePayment(r.Context(), req.Amount, req.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payment)
	}
}
