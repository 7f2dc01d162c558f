package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	"github.com/salesdeck/crm-api/pkg/logger"
)

// Point values per activity type.
const (
	pointsEmailOpened = 5
	pointsLinkClicked = 10
	pointsTouch       = 2

	decayPenalty = 20
	decayAfter   = 5 * 24 * time.Hour

	minScore = 0
	maxScore = 100
)

// Subject selects which scoring variant applies. Deal scoring counts
// engagement signals only; contact scoring additionally credits manual
// touches (calls, meetings, notes).
type Subject int

const (
	SubjectDeal Subject = iota
	SubjectContact
)

// Result is a computed score and the most recent activity timestamp
// that produced it.
type Result struct {
	Score    int        `json:"score"`
	LatestAt *time.Time `json:"latest_at"`
}

// Compute derives a bounded engagement score from an activity history.
// Pure function: no I/O, evaluation instant passed in as now.
func Compute(activities []*model.Activity, subject Subject, now time.Time) Result {
	score := 0
	var latest *time.Time

	for _, a := range activities {
		switch a.Type {
		case model.ActivityTypeEmailOpened:
			score += pointsEmailOpened
		case model.ActivityTypeLinkClicked:
			score += pointsLinkClicked
		case model.ActivityTypeCall, model.ActivityTypeMeeting, model.ActivityTypeNote:
			if subject == SubjectContact {
				score += pointsTouch
			}
		case model.ActivityTypeSystem:
			// Migration shim: rows written before tracking events got
			// dedicated types carry the signal in free text.
			content := strings.ToLower(a.Content)
			if strings.Contains(content, "email opened") {
				score += pointsEmailOpened
			}
			if strings.Contains(content, "link clicked") {
				score += pointsLinkClicked
			}
		}

		if latest == nil || a.OccurredAt.After(*latest) {
			t := a.OccurredAt
			latest = &t
		}
	}

	// Flat one-time penalty for gone-quiet subjects, not compounding.
	if latest != nil && now.Sub(*latest) > decayAfter {
		score -= decayPenalty
	}

	if score < minScore {
		score = minScore
	}
	if score > maxScore {
		score = maxScore
	}

	return Result{Score: score, LatestAt: latest}
}

// Service wraps the pure computation with persistence.
type Service struct {
	deals      repository.DealRepository
	activities repository.ActivityRepository
	logger     *logger.Logger
}

func NewService(deals repository.DealRepository, activities repository.ActivityRepository, log *logger.Logger) *Service {
	return &Service{
		deals:      deals,
		activities: activities,
		logger:     log,
	}
}

// RecalculateDeal recomputes and persists a deal's lead score. Query
// errors surface to the caller; the HTTP layer maps them to a 500.
func (s *Service) RecalculateDeal(ctx context.Context, dealID uuid.UUID) (*Result, error) {
	activities, err := s.activities.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to load deal activities: %w", err)
	}

	result := Compute(activities, SubjectDeal, time.Now())

	if err := s.deals.UpdateScore(ctx, dealID, result.Score, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to persist deal score: %w", err)
	}

	return &result, nil
}

// RefreshDeal is the fire-and-forget variant used after tracking
// callbacks: failures are logged and a zero score returned, never an
// error, so the callback path cannot break on scoring.
func (s *Service) RefreshDeal(ctx context.Context, dealID uuid.UUID) Result {
	result, err := s.RecalculateDeal(ctx, dealID)
	if err != nil {
		s.logger.Error(err, "lead score refresh failed", "deal_id", dealID.String())
		return Result{Score: 0}
	}
	return *result
}

// ScoreContact computes the contact-keyed variant. Contacts carry no
// persisted score column; the result is returned to the caller only.
func (s *Service) ScoreContact(ctx context.Context, contactID uuid.UUID) (*Result, error) {
	activities, err := s.activities.ListByContact(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact activities: %w", err)
	}

	result := Compute(activities, SubjectContact, time.Now())
	return &result, nil
}
