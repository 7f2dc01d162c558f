package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/salesdeck/crm-api/internal/config"
	"github.com/salesdeck/crm-api/pkg/logger"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewSMTPService sends mail through the configured SMTP relay.
func NewSMTPService(cfg config.SMTPConfig, log *logger.Logger) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: log,
	}
}

func (s *smtpService) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.logger.Debug("email sent", "to", to, "subject", subject)
	return nil
}
