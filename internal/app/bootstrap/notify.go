package bootstrap

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/wolfman30/clinic-scheduler/internal/bookings"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/notify"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const (
	emailProviderAuto     = "auto"
	emailProviderSendGrid = "sendgrid"
	emailProviderSES      = "ses"
	emailProviderStub     = "stub"
)

// BuildEmailSender selects the confirmation email provider. "auto" prefers
// SendGrid when an API key is set, then SES when a sender address and AWS
// config are available, and logs messages otherwise.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	sendgridCfg := notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFromAddress,
		FromName:  cfg.EmailFromName,
	}
	sesCfg := notify.SESConfig{FromEmail: cfg.EmailFromAddress, FromName: cfg.EmailFromName}

	switch cfg.EmailProvider {
	case emailProviderSendGrid:
		if s := notify.NewSendGridSender(sendgridCfg, logger); s != nil {
			return s, nil
		}
		return nil, fmt.Errorf("bootstrap: sendgrid email provider requires SENDGRID_API_KEY")
	case emailProviderSES:
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: ses email provider requires aws config")
		}
		if s := notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), sesCfg, logger); s != nil {
			return s, nil
		}
		return nil, fmt.Errorf("bootstrap: ses email provider requires EMAIL_FROM_ADDRESS")
	case emailProviderStub:
		return notify.NewStubEmailSender(logger), nil
	case emailProviderAuto, "":
		if s := notify.NewSendGridSender(sendgridCfg, logger); s != nil {
			logger.Info("confirmation email via sendgrid")
			return s, nil
		}
		if awsCfg != nil {
			if s := notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), sesCfg, logger); s != nil {
				logger.Info("confirmation email via ses")
				return s, nil
			}
		}
		logger.Warn("no email provider configured; confirmations are logged only")
		return notify.NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

// BuildNotifier returns the booking confirmation hook. With NOTIFY_QUEUE_URL
// set, confirmations are queued for the notify worker; otherwise they are
// emailed inline.
func BuildNotifier(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (bookings.Notifier, error) {
	if queueURL := strings.TrimSpace(cfg.NotifyQueueURL); queueURL != "" {
		queue, err := BuildNotifyQueue(cfg, awsCfg)
		if err != nil {
			return nil, err
		}
		return notify.NewQueueNotifier(queue), nil
	}
	sender, err := BuildEmailSender(cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}
	return notify.NewBookingNotifier(sender, cfg.ClinicDisplayName, logger), nil
}

// BuildNotifyQueue opens the booking-confirmation SQS queue.
func BuildNotifyQueue(cfg *appconfig.Config, awsCfg *aws.Config) (*notify.SQSQueue, error) {
	queueURL := strings.TrimSpace(cfg.NotifyQueueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("bootstrap: NOTIFY_QUEUE_URL is required")
	}
	if awsCfg == nil {
		return nil, fmt.Errorf("bootstrap: notify queue requires aws config")
	}
	return notify.NewSQSQueue(sqs.NewFromConfig(*awsCfg), queueURL), nil
}
