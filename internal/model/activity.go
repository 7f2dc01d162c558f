package model

import (
	"time"

	"github.com/google/uuid"
)

// Activity type constants
const (
	ActivityTypeCall        = "CALL"
	ActivityTypeEmail       = "EMAIL"
	ActivityTypeNote        = "NOTE"
	ActivityTypeMeeting     = "MEETING"
	ActivityTypeSystem      = "SYSTEM"
	ActivityTypeStageChange = "STAGE_CHANGE"
	ActivityTypeAlert       = "ALERT"
	ActivityTypeEmailSent   = "EMAIL_SENT"
	ActivityTypeEmailOpened = "EMAIL_OPENED"
	ActivityTypeLinkClicked = "LINK_CLICKED"
	ActivityTypeFollowUp    = "FOLLOW_UP"
)

// Activity is one append-only audit-trail row. Rows are never updated or
// deleted; occurred_at ordering drives scoring and staleness.
type Activity struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	DealID     *uuid.UUID `json:"deal_id" db:"deal_id"`
	ContactID  *uuid.UUID `json:"contact_id" db:"contact_id"`
	Type       string     `json:"type" db:"type"`
	Content    string     `json:"content" db:"content"`
	ActorID    *uuid.UUID `json:"actor_id" db:"actor_id"`
	OccurredAt time.Time  `json:"occurred_at" db:"occurred_at"`
}

// CreateActivityRequest represents activity creation parameters
type CreateActivityRequest struct {
	DealID    *uuid.UUID `json:"deal_id"`
	ContactID *uuid.UUID `json:"contact_id"`
	Type      string     `json:"type" binding:"required,activitytype"`
	Content   string     `json:"content"`
}
