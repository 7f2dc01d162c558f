package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salesdeck/crm-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles CRM user rows
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error)
		// ListAssignable returns active reps and managers ordered by
		// last_assigned_at ascending, never-assigned users first.
		ListAssignable(ctx context.Context) ([]*model.User, error)
		TouchLastAssignedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) error
	}

	DealRepository interface {
		Create(ctx context.Context, deal *model.Deal) error
		Get(ctx context.Context, id uuid.UUID) (*model.Deal, error)
		Update(ctx context.Context, deal *model.Deal) error
		List(ctx context.Context, filters *model.DealFilters) ([]*model.Deal, error)
		UpdateScore(ctx context.Context, id uuid.UUID, score int, at time.Time) error

		// Sweep selections. Each query excludes terminal stages and rows
		// already past the relevant flag so a transition fires once.
		ListUnassignedLeads(ctx context.Context, limit int) ([]*model.Deal, error)
		ListStaleCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error)
		ListEscalationCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error)
		ListColdPoolCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error)
		ListDueFollowUps(ctx context.Context, now time.Time) ([]*model.Deal, error)

		AssignOwnerTx(ctx context.Context, tx *sqlx.Tx, dealID, ownerID uuid.UUID) error
		MarkStaleTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID) error
		StampEscalationTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID, at time.Time) error
		MoveToColdPoolTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID) error
		MarkFollowUpNotified(ctx context.Context, dealID uuid.UUID) error
	}

	// ActivityRepository handles the append-only activity log
	ActivityRepository interface {
		Create(ctx context.Context, activity *model.Activity) error
		CreateTx(ctx context.Context, tx *sqlx.Tx, activity *model.Activity) error
		ListByDeal(ctx context.Context, dealID uuid.UUID) ([]*model.Activity, error)
		ListByContact(ctx context.Context, contactID uuid.UUID) ([]*model.Activity, error)
	}

	WorkflowRuleRepository interface {
		Create(ctx context.Context, rule *model.WorkflowRule) error
		Get(ctx context.Context, id uuid.UUID) (*model.WorkflowRule, error)
		Update(ctx context.Context, rule *model.WorkflowRule) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.WorkflowRule, error)
		ListActive(ctx context.Context) ([]*model.WorkflowRule, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id uuid.UUID) error
		MarkAllRead(ctx context.Context, userID uuid.UUID) error
	}

	CompanyRepository interface {
		Create(ctx context.Context, company *model.Company) error
		Get(ctx context.Context, id uuid.UUID) (*model.Company, error)
		Update(ctx context.Context, company *model.Company) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Company, error)
	}

	ContactRepository interface {
		Create(ctx context.Context, contact *model.Contact) error
		Get(ctx context.Context, id uuid.UUID) (*model.Contact, error)
		Update(ctx context.Context, contact *model.Contact) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, companyID *uuid.UUID) ([]*model.Contact, error)
	}

	EmailRepository interface {
		CreateSend(ctx context.Context, send *model.EmailSend) error
		GetSend(ctx context.Context, id uuid.UUID) (*model.EmailSend, error)
		// RecordEvent inserts the tracking event and bumps the matching
		// counter on the send row.
		RecordEvent(ctx context.Context, event *model.TrackingEvent) error
	}
)
