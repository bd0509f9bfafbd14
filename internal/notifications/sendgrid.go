package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/humidityzone-backend/pkg/config"
	"github.com/angelmondragon/humidityzone-backend/pkg/logger"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendgridMailer delivers messages through the SendGrid v3 mail API.
type SendgridMailer struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendgridMailer builds a SendGrid mailer from config.
func NewSendgridMailer(cfg config.SendgridConfig) (*SendgridMailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, fmt.Errorf("sendgrid api key and sender are required")
	}
	return &SendgridMailer{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     cfg.DefaultFrom,
		fromName: cfg.FromName,
	}, nil
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.from),
		msg.Subject,
		mail.NewEmail("", msg.To),
		msg.Text,
		msg.HTML,
	)
	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	return nil
}

// LogMailer only logs messages; used when SendGrid is not configured.
type LogMailer struct {
	logg *logger.Logger
}

func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if m.logg != nil {
		m.logg.Warn(m.logg.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject}), "email delivery disabled; message logged only")
	}
	return nil
}

// NewMailer picks SendGrid when configured and falls back to LogMailer.
func NewMailer(cfg config.SendgridConfig, logg *logger.Logger) Mailer {
	if mailer, err := NewSendgridMailer(cfg); err == nil {
		return mailer
	}
	return NewLogMailer(logg)
}
