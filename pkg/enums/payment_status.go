package enums

// PaymentStatusCode is the numeric status CoinPayments reports in an IPN.
//
// Codes >= 100 (and the PayPal-pending code 2) mean the funds were received,
// -1 means the payment was cancelled or timed out, anything else is still in flight.
type PaymentStatusCode int

const (
	PaymentStatusCancelled       PaymentStatusCode = -1
	PaymentStatusQueuedForPayout PaymentStatusCode = 2
	PaymentStatusComplete        PaymentStatusCode = 100
)

// PaymentAction is the store transition a status code asks for.
type PaymentAction string

const (
	PaymentActionComplete    PaymentAction = "complete"
	PaymentActionCancel      PaymentAction = "cancel"
	PaymentActionAcknowledge PaymentAction = "acknowledge"
)

// Action classifies the status code.
func (c PaymentStatusCode) Action() PaymentAction {
	switch {
	case c >= PaymentStatusComplete || c == PaymentStatusQueuedForPayout:
		return PaymentActionComplete
	case c == PaymentStatusCancelled:
		return PaymentActionCancel
	default:
		return PaymentActionAcknowledge
	}
}
