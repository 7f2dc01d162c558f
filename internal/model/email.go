package model

import (
	"time"

	"github.com/google/uuid"
)

// Tracking event kinds
const (
	TrackingKindOpen  = "open"
	TrackingKindClick = "click"
)

// EmailSend is one outbound tracked email.
type EmailSend struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	DealID     *uuid.UUID `json:"deal_id" db:"deal_id"`
	ContactID  *uuid.UUID `json:"contact_id" db:"contact_id"`
	Recipient  string     `json:"recipient" db:"recipient"`
	Subject    string     `json:"subject" db:"subject"`
	BodyHTML   string     `json:"body_html" db:"body_html"`
	OpenCount  int        `json:"open_count" db:"open_count"`
	ClickCount int        `json:"click_count" db:"click_count"`
	SentAt     time.Time  `json:"sent_at" db:"sent_at"`
}

// TrackingEvent is one pixel-open or link-click callback hit.
type TrackingEvent struct {
	ID          uuid.UUID `json:"id" db:"id"`
	EmailSendID uuid.UUID `json:"email_send_id" db:"email_send_id"`
	Kind        string    `json:"kind" db:"kind"`
	URL         *string   `json:"url" db:"url"`
	OccurredAt  time.Time `json:"occurred_at" db:"occurred_at"`
}
