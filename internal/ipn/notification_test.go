package ipn

import (
	"testing"

	pkgerrors "github.com/angelmondragon/humidityzone-backend/pkg/errors"
)

func TestParseNotification(t *testing.T) {
	n, err := ParseNotification([]byte("txn_id=T1&status=105&buyer_email=a%40x.com&amount1=20.00&currency1=USD&status_text=Complete"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if n.TxnID != "T1" || n.Status != 105 || n.BuyerEmail != "a@x.com" || n.Currency1 != "USD" {
		t.Fatalf("unexpected notification %+v", n)
	}

	n, err = ParseNotification([]byte("txn_id=T2&status=-1"))
	if err != nil || n.Status != -1 {
		t.Fatalf("expected negative status, got %+v err=%v", n, err)
	}
}

func TestParseNotification_Invalid(t *testing.T) {
	for _, body := range []string{
		"status=100",
		"txn_id=&status=100",
		"txn_id=T1",
		"txn_id=T1&status=abc",
	} {
		if _, err := ParseNotification([]byte(body)); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			t.Fatalf("%q: expected validation error, got %v", body, err)
		}
	}
}
