package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Pipeline stage constants. Stage is free text; these are the labels the
// automation cares about.
const (
	StageLead   = "Lead"
	StageClosed = "Closed"
	StageLost   = "Lost"
	StagePaid   = "Paid"
)

// Deal represents a pipeline deal.
type Deal struct {
	Base
	Name             string     `json:"name" db:"name"`
	Value            float64    `json:"value" db:"value"`
	Stage            string     `json:"stage" db:"stage"`
	Probability      int        `json:"probability" db:"probability"`
	CompanyID        *uuid.UUID `json:"company_id" db:"company_id"`
	ContactID        *uuid.UUID `json:"contact_id" db:"contact_id"`
	OwnerID          *uuid.UUID `json:"owner_id" db:"owner_id"`
	LastActivityAt   time.Time  `json:"last_activity_at" db:"last_activity_at"`
	IsStale          bool       `json:"is_stale" db:"is_stale"`
	ColdPool         bool       `json:"cold_pool" db:"cold_pool"`
	EscalationSentAt *time.Time `json:"escalation_sent_at" db:"escalation_sent_at"`
	LeadScore        *int       `json:"lead_score" db:"lead_score"`
	ScoreUpdatedAt   *time.Time `json:"score_updated_at" db:"score_updated_at"`
	NextFollowUpAt   *time.Time `json:"next_follow_up_at" db:"next_follow_up_at"`
	FollowUpNotified bool       `json:"follow_up_notified" db:"follow_up_notified"`
}

// IsTerminalStage reports whether a stage label marks a deal the sweeps
// must never touch.
func IsTerminalStage(stage string) bool {
	switch strings.ToLower(strings.TrimSpace(stage)) {
	case "closed", "lost", "paid":
		return true
	}
	return false
}

// CreateDealRequest represents deal creation parameters
type CreateDealRequest struct {
	Name           string     `json:"name" binding:"required"`
	Value          float64    `json:"value" binding:"gte=0"`
	Stage          string     `json:"stage"`
	Probability    int        `json:"probability" binding:"gte=0,lte=100"`
	CompanyID      *uuid.UUID `json:"company_id"`
	ContactID      *uuid.UUID `json:"contact_id"`
	OwnerID        *uuid.UUID `json:"owner_id"`
	NextFollowUpAt *time.Time `json:"next_follow_up_at"`
}

// UpdateDealRequest represents deal update parameters. Nil fields are
// left untouched.
type UpdateDealRequest struct {
	Name           *string    `json:"name"`
	Value          *float64   `json:"value" binding:"omitempty,gte=0"`
	Stage          *string    `json:"stage"`
	Probability    *int       `json:"probability" binding:"omitempty,gte=0,lte=100"`
	CompanyID      *uuid.UUID `json:"company_id"`
	ContactID      *uuid.UUID `json:"contact_id"`
	OwnerID        *uuid.UUID `json:"owner_id"`
	NextFollowUpAt *time.Time `json:"next_follow_up_at"`
}

// DealFilters represents deal search parameters
type DealFilters struct {
	Stage    string     `json:"stage" form:"stage"`
	OwnerID  *uuid.UUID `json:"owner_id" form:"owner_id"`
	ColdPool *bool      `json:"cold_pool" form:"cold_pool"`
	IsStale  *bool      `json:"is_stale" form:"is_stale"`
}
