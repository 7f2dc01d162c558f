package email

import (
	"context"

	"github.com/salesdeck/crm-api/pkg/logger"
)

type stubService struct {
	logger *logger.Logger
}

// NewStubService logs outbound mail instead of sending it. Used in
// development and whenever SMTP is unconfigured.
func NewStubService(log *logger.Logger) Service {
	return &stubService{logger: log}
}

func (s *stubService) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info("email suppressed (no SMTP configured)", "to", to, "subject", subject)
	return nil
}
