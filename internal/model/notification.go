package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type constants
const (
	NotificationTypeLeadAssigned  = "lead_assigned"
	NotificationTypeDealStale     = "deal_stale"
	NotificationTypeDealColdPool  = "deal_cold_pool"
	NotificationTypeFollowUpDue   = "follow_up_due"
	NotificationTypeWorkflowMatch = "workflow_match"
)

// Notification is one in-app notification row.
type Notification struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Type      string     `json:"type" db:"type"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	DealID    *uuid.UUID `json:"deal_id" db:"deal_id"`
	Read      bool       `json:"read" db:"read"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// NotificationEvent is the payload published to the in-app fan-out
// channel when a notification row is written.
type NotificationEvent struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	DealID    *uuid.UUID `json:"deal_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
