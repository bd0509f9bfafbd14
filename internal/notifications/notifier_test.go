package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/humidityzone-backend/pkg/config"
)

type recordingMailer struct {
	sent []Message
	err  error
}

func (r *recordingMailer) Send(ctx context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestSendStatusEmail(t *testing.T) {
	mailer := &recordingMailer{}
	n, err := NewNotifier(mailer, nil)
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	if err := n.SendStatusEmail(context.Background(), "a@x.com", "T1", StatusFulfilled); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "a@x.com" || msg.Subject != "Payment Confirmation" || !strings.Contains(msg.Text, "T1") {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestSendStatusEmail_SkipsBlankAddress(t *testing.T) {
	mailer := &recordingMailer{}
	n, _ := NewNotifier(mailer, nil)

	if err := n.SendStatusEmail(context.Background(), "  ", "T1", StatusCancelled); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("expected no email")
	}
}

func TestSendStatusEmail_PropagatesMailerError(t *testing.T) {
	n, _ := NewNotifier(&recordingMailer{err: errors.New("smtp down")}, nil)
	if err := n.SendStatusEmail(context.Background(), "a@x.com", "T1", StatusCancelled); err == nil {
		t.Fatal("expected error from mailer")
	}
}

func TestRenderVariants(t *testing.T) {
	cancelled, err := Render("a@x.com", "T2", StatusCancelled)
	if err != nil || cancelled.Subject != "Payment Status Update" {
		t.Fatalf("unexpected cancelled render %+v err=%v", cancelled, err)
	}
	received, err := Render("a@x.com", "T3", StatusPaymentReceived)
	if err != nil || !strings.Contains(received.Text, "has been received") {
		t.Fatalf("unexpected payment received render %+v err=%v", received, err)
	}
	if _, err := Render("a@x.com", "T4", StatusUpdate("bogus")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	msg, err := Render("a@x.com", `<script>alert("x")</script>`, StatusFulfilled)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Fatalf("expected escaped html body, got %q", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;") {
		t.Fatalf("expected escaped txn id, got %q", msg.HTML)
	}
	if !strings.Contains(msg.Text, `<script>alert("x")</script>`) {
		t.Fatalf("expected plain text unchanged, got %q", msg.Text)
	}
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	if _, ok := NewMailer(config.SendgridConfig{}, nil).(*LogMailer); !ok {
		t.Fatal("expected log mailer without sendgrid config")
	}
	if _, ok := NewMailer(config.SendgridConfig{APIKey: "SG.x", DefaultFrom: "shop@example.com"}, nil).(*SendgridMailer); !ok {
		t.Fatal("expected sendgrid mailer with config")
	}
}
