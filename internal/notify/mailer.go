package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Mailer envoie les emails transactionnels via SMTP.
type Mailer struct {
	client *mail.Client
	from   string
}

type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewMailer(cfg MailerConfig) (*Mailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("client SMTP: %w", err)
	}
	return &Mailer{client: client, from: cfg.From}, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("adresse expéditeur: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("adresse destinataire: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	return m.client.DialAndSendWithContext(ctx, msg)
}
