package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const sesCharset = "UTF-8"

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESConfig struct {
	FromEmail string
	FromName  string
}

// SESSender sends confirmations with the SES v2 SendEmail API. The from address
// must be a verified SES identity.
type SESSender struct {
	client sesAPI
	from   From
	logger *logging.Logger
}

// NewSESSender returns nil when there is no client or sending address.
func NewSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil || strings.TrimSpace(cfg.FromEmail) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESSender{client: client, from: newFrom(cfg.FromEmail, cfg.FromName), logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: ses sender has no client")
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from.Header()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: sesContent(msg.Subject),
				Body: &types.Body{
					Text: sesContent(msg.Body),
					Html: sesContent(msg.HTML),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: ses: %w", err)
	}
	s.logger.Info("confirmation email sent", "provider", "ses", "subject", msg.Subject, "message_id", aws.ToString(out.MessageId))
	return nil
}

// sesContent returns nil for empty parts; SES rejects empty body content.
func sesContent(data string) *types.Content {
	if data == "" {
		return nil
	}
	return &types.Content{Data: aws.String(data), Charset: aws.String(sesCharset)}
}

var _ EmailSender = (*SESSender)(nil)
