package mail

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const senderName = "Bike Market"

// SendGridMailer 帳號啟用信
type SendGridMailer struct {
	client *sendgrid.Client
	from   string
}

func NewSendGridMailer(apiKey, from string) (*SendGridMailer, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is empty")
	}
	if from == "" {
		return nil, errors.New("from address is empty")
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   from,
	}, nil
}

func buildMessage(from, to, subject, body string) *sgmail.SGMailV3 {
	return sgmail.NewSingleEmail(
		sgmail.NewEmail(senderName, from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return errors.New("to address is empty")
	}
	response, err := m.client.SendWithContext(ctx, buildMessage(m.from, to, subject, body))
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		log.Error().Int("status", response.StatusCode).Str("body", response.Body).Msg("sendgrid rejected mail")
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}
	log.Info().Int("status", response.StatusCode).Str("to", to).Str("subject", subject).Msg("mail sent")
	return nil
}
