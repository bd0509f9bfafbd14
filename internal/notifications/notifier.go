package notifications

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
)

// StatusUpdate is the buyer-facing outcome of a payment notification.
type StatusUpdate string

const (
	// StatusFulfilled means the payment cleared and the fulfillment order exists.
	StatusFulfilled StatusUpdate = "fulfilled"
	// StatusPaymentReceived means the payment cleared but fulfillment is still pending.
	StatusPaymentReceived StatusUpdate = "payment_received"
	// StatusCancelled means the payment was cancelled or timed out.
	StatusCancelled StatusUpdate = "cancelled"
)

// Message is a rendered transactional email.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier sends status emails to buyers.
type Notifier struct {
	mailer Mailer
	logg   *logger.Logger
}

// NewNotifier wraps the mailer used for buyer emails.
func NewNotifier(mailer Mailer, logg *logger.Logger) (*Notifier, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	return &Notifier{mailer: mailer, logg: logg}, nil
}

// SendStatusEmail renders and sends the email for status. A blank address is a no-op.
func (n *Notifier) SendStatusEmail(ctx context.Context, to, txnID string, status StatusUpdate) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil
	}
	msg, err := Render(to, txnID, status)
	if err != nil {
		return err
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s email: %w", status, err)
	}
	if n.logg != nil {
		n.logg.Info(n.logg.WithFields(ctx, map[string]any{"txn_id": txnID, "email_status": string(status)}), "status email sent")
	}
	return nil
}

// Render builds the subject and bodies for status.
func Render(to, txnID string, status StatusUpdate) (Message, error) {
	msg := Message{To: to}
	switch status {
	case StatusFulfilled:
		msg.Subject = "Payment Confirmation"
		msg.Text = fmt.Sprintf("Your payment with transaction ID %s has been successfully processed. Your order is being prepared for shipping.", txnID)
	case StatusPaymentReceived:
		msg.Subject = "Payment Confirmation"
		msg.Text = fmt.Sprintf("Your payment with transaction ID %s has been received. We will email you again once your order is prepared for shipping.", txnID)
	case StatusCancelled:
		msg.Subject = "Payment Status Update"
		msg.Text = fmt.Sprintf("Your payment with transaction ID %s was cancelled and your order will not be shipped. Contact support if this is unexpected.", txnID)
	default:
		return Message{}, fmt.Errorf("unknown status update %q", status)
	}
	msg.HTML = "<p>" + html.EscapeString(msg.Text) + "</p>"
	return msg, nil
}
