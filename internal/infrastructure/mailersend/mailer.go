package mailersend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-homeservices-api/internal/config"
	"github.com/mailersend/mailersend-go"
)

const sendTimeout = 10 * time.Second

// Mailer delivers email through the MailerSend HTTP API.
type Mailer struct {
	client *mailersend.Mailersend
	from   mailersend.From
}

// NewMailer returns nil when MailerSend is not configured so the caller can
// fall back to SMTP.
func NewMailer(cfg *config.Config) *Mailer {
	if cfg.MailerSendAPIKey == "" || cfg.MailerSendFromEmail == "" {
		return nil
	}
	return &Mailer{
		client: mailersend.NewMailersend(cfg.MailerSendAPIKey),
		from: mailersend.From{
			Name:  cfg.MailerSendFromName,
			Email: cfg.MailerSendFromEmail,
		},
	}
}

func (m *Mailer) SendEmail(ctx context.Context, to, subject, html, text string) error {
	if m == nil || m.client == nil {
		return errors.New("mailersend not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: strings.TrimSpace(to)}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
