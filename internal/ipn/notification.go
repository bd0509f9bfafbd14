package ipn

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/humidityzone-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
)

// Notification is the subset of a CoinPayments IPN form the service acts on.
type Notification struct {
	TxnID      string
	Status     enums.PaymentStatusCode
	StatusText string
	BuyerEmail string
	Amount1    string
	Currency1  string
	IPNType    string
}

// ParseNotification decodes an already verified form body.
func ParseNotification(rawBody []byte) (Notification, error) {
	form, err := url.ParseQuery(string(rawBody))
	if err != nil {
		return Notification{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed notification body")
	}

	n := Notification{
		TxnID:      strings.TrimSpace(form.Get("txn_id")),
		StatusText: form.Get("status_text"),
		BuyerEmail: strings.TrimSpace(form.Get("buyer_email")),
		Amount1:    form.Get("amount1"),
		Currency1:  form.Get("currency1"),
		IPNType:    form.Get("ipn_type"),
	}
	if n.TxnID == "" {
		return Notification{}, pkgerrors.New(pkgerrors.CodeValidation, "Missing txn_id")
	}

	rawStatus := strings.TrimSpace(form.Get("status"))
	if rawStatus == "" {
		return Notification{}, pkgerrors.New(pkgerrors.CodeValidation, "Missing status")
	}
	status, err := strconv.Atoi(rawStatus)
	if err != nil {
		return Notification{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "status must be an integer").
			WithDetails(map[string]any{"status": rawStatus})
	}
	n.Status = enums.PaymentStatusCode(status)
	return n, nil
}
