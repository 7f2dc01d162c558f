package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
)

const activityInsert = `
	INSERT INTO activities (
		id, deal_id, contact_id, type, content, actor_id, occurred_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type activityRepository struct {
	BaseRepository
}

func NewActivityRepository(base BaseRepository) repository.ActivityRepository {
	return &activityRepository{base}
}

func (r *activityRepository) Create(ctx context.Context, activity *model.Activity) error {
	prepare(activity)

	_, err := r.db.ExecContext(ctx, activityInsert,
		activity.ID,
		activity.DealID,
		activity.ContactID,
		activity.Type,
		activity.Content,
		activity.ActorID,
		activity.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *activityRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, activity *model.Activity) error {
	prepare(activity)

	_, err := tx.ExecContext(ctx, activityInsert,
		activity.ID,
		activity.DealID,
		activity.ContactID,
		activity.Type,
		activity.Content,
		activity.ActorID,
		activity.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *activityRepository) ListByDeal(ctx context.Context, dealID uuid.UUID) ([]*model.Activity, error) {
	query := `
		SELECT * FROM activities
		WHERE deal_id = $1
		ORDER BY occurred_at ASC
	`

	var activities []*model.Activity
	if err := r.db.SelectContext(ctx, &activities, query, dealID); err != nil {
		return nil, fmt.Errorf("failed to list deal activities: %w", err)
	}

	return activities, nil
}

func (r *activityRepository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]*model.Activity, error) {
	query := `
		SELECT * FROM activities
		WHERE contact_id = $1
		ORDER BY occurred_at ASC
	`

	var activities []*model.Activity
	if err := r.db.SelectContext(ctx, &activities, query, contactID); err != nil {
		return nil, fmt.Errorf("failed to list contact activities: %w", err)
	}

	return activities, nil
}

func prepare(activity *model.Activity) {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	if activity.OccurredAt.IsZero() {
		activity.OccurredAt = time.Now()
	}
}
