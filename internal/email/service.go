package email

import (
	"context"

	"github.com/salesdeck/crm-api/internal/config"
	"github.com/salesdeck/crm-api/pkg/logger"
)

// Service is the transactional email sink. Implementations are
// best-effort; callers on the sweep path log failures and move on.
type Service interface {
	Send(ctx context.Context, to, subject, html string) error
}

// NewService returns the SMTP sender when SMTP is configured, otherwise
// a stub that logs instead of failing.
func NewService(cfg config.SMTPConfig, log *logger.Logger) Service {
	if cfg.Host == "" {
		log.Warn("SMTP not configured, email falls back to log output")
		return NewStubService(log)
	}
	return NewSMTPService(cfg, log)
}
