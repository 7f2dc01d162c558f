package automation

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/salesdeck/crm-api/internal/config"
	"github.com/salesdeck/crm-api/internal/email"
	"github.com/salesdeck/crm-api/internal/repository"
	"github.com/salesdeck/crm-api/internal/service/notification"
	"github.com/salesdeck/crm-api/pkg/logger"
	"github.com/salesdeck/crm-api/pkg/metrics"
)

// TxBeginner opens transactions; satisfied by *sqlx.DB.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Engine runs the lead lifecycle sweeps: round-robin assignment,
// stale/cold-pool escalation and follow-up reminders. All state lives
// in the store; the engine is stateless between runs.
type Engine struct {
	db         TxBeginner
	deals      repository.DealRepository
	users      repository.UserRepository
	activities repository.ActivityRepository
	notifier   notification.Service
	emails     email.Service
	cfg        config.AutomationConfig
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func NewEngine(
	db TxBeginner,
	deals repository.DealRepository,
	users repository.UserRepository,
	activities repository.ActivityRepository,
	notifier notification.Service,
	emails email.Service,
	cfg config.AutomationConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *Engine {
	if cfg.AssignmentBatch <= 0 {
		cfg.AssignmentBatch = 50
	}
	return &Engine{
		db:         db,
		deals:      deals,
		users:      users,
		activities: activities,
		notifier:   notifier,
		emails:     emails,
		cfg:        cfg,
		logger:     log,
		metrics:    m,
	}
}

func (e *Engine) countItem(job, result string) {
	if e.metrics != nil {
		e.metrics.SweepItems.WithLabelValues(job, result).Inc()
	}
}

func (e *Engine) sendEmail(ctx context.Context, to, subject, html string) {
	if err := e.emails.Send(ctx, to, subject, html); err != nil {
		if e.metrics != nil {
			e.metrics.EmailsFailed.Inc()
		}
		e.logger.Error(err, "failed to send email", "to", to, "subject", subject)
		return
	}
	if e.metrics != nil {
		e.metrics.EmailsSent.Inc()
	}
}
