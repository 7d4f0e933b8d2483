package notify

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// DefaultFromName is the display name on confirmations when EMAIL_FROM_NAME is unset.
const DefaultFromName = "Clinic Scheduling"

// EmailSender delivers one message to one patient.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a rendered email. HTML is optional.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// From is the clinic's sending identity.
type From struct {
	Address string
	Name    string
}

func newFrom(address, name string) From {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultFromName
	}
	return From{Address: strings.TrimSpace(address), Name: name}
}

// Header renders the identity for a From header, quoting the name as needed.
func (f From) Header() string {
	return (&netmail.Address{Name: f.Name, Address: f.Address}).String()
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridSender posts confirmations through the SendGrid v3 mail API.
type SendGridSender struct {
	client *sendgrid.Client
	from   From
	logger *logging.Logger
}

// NewSendGridSender returns nil without an API key, letting provider selection
// move on to SES.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   newFrom(cfg.FromEmail, cfg.FromName),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid sender has no client")
	}

	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(s.from.Name, s.from.Address),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		html,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("sendgrid rejected confirmation", "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("notify: sendgrid: status %d", resp.StatusCode)
	}
	s.logger.Info("confirmation email sent", "provider", "sendgrid", "subject", msg.Subject)
	return nil
}

// StubEmailSender only logs. BuildEmailSender falls back to it when no provider
// is configured so bookings still succeed in development.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("confirmation email not sent; no provider", "subject", msg.Subject)
	return nil
}
