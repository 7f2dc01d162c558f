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

// terminalStages is inlined in every sweep query so closed business is
// never selected, whatever flags it carries.
const terminalStages = `('closed', 'lost', 'paid')`

type dealRepository struct {
	BaseRepository
}

func NewDealRepository(base BaseRepository) repository.DealRepository {
	return &dealRepository{base}
}

func (r *dealRepository) Create(ctx context.Context, deal *model.Deal) error {
	query := `
		INSERT INTO deals (
			id, name, value, stage, probability, company_id, contact_id,
			owner_id, last_activity_at, is_stale, cold_pool,
			escalation_sent_at, lead_score, score_updated_at,
			next_follow_up_at, follow_up_notified, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18
		)
	`

	deal.ID = uuid.New()
	deal.CreatedAt = time.Now()
	deal.UpdatedAt = time.Now()
	if deal.LastActivityAt.IsZero() {
		deal.LastActivityAt = deal.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, query,
		deal.ID,
		deal.Name,
		deal.Value,
		deal.Stage,
		deal.Probability,
		deal.CompanyID,
		deal.ContactID,
		deal.OwnerID,
		deal.LastActivityAt,
		deal.IsStale,
		deal.ColdPool,
		deal.EscalationSentAt,
		deal.LeadScore,
		deal.ScoreUpdatedAt,
		deal.NextFollowUpAt,
		deal.FollowUpNotified,
		deal.CreatedAt,
		deal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

func (r *dealRepository) Get(ctx context.Context, id uuid.UUID) (*model.Deal, error) {
	query := `SELECT * FROM deals WHERE id = $1`

	var deal model.Deal
	if err := r.db.GetContext(ctx, &deal, query, id); err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}

	return &deal, nil
}

func (r *dealRepository) Update(ctx context.Context, deal *model.Deal) error {
	query := `
		UPDATE deals SET
			name = $1,
			value = $2,
			stage = $3,
			probability = $4,
			company_id = $5,
			contact_id = $6,
			owner_id = $7,
			last_activity_at = $8,
			is_stale = $9,
			cold_pool = $10,
			escalation_sent_at = $11,
			next_follow_up_at = $12,
			follow_up_notified = $13,
			updated_at = $14
		WHERE id = $15
	`

	result, err := r.db.ExecContext(ctx, query,
		deal.Name,
		deal.Value,
		deal.Stage,
		deal.Probability,
		deal.CompanyID,
		deal.ContactID,
		deal.OwnerID,
		deal.LastActivityAt,
		deal.IsStale,
		deal.ColdPool,
		deal.EscalationSentAt,
		deal.NextFollowUpAt,
		deal.FollowUpNotified,
		time.Now(),
		deal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deal not found")
	}

	return nil
}

func (r *dealRepository) List(ctx context.Context, filters *model.DealFilters) ([]*model.Deal, error) {
	query := `SELECT * FROM deals WHERE 1=1`
	args := []interface{}{}

	if filters != nil {
		if filters.Stage != "" {
			query += fmt.Sprintf(" AND stage = $%d", len(args)+1)
			args = append(args, filters.Stage)
		}
		if filters.OwnerID != nil {
			query += fmt.Sprintf(" AND owner_id = $%d", len(args)+1)
			args = append(args, *filters.OwnerID)
		}
		if filters.ColdPool != nil {
			query += fmt.Sprintf(" AND cold_pool = $%d", len(args)+1)
			args = append(args, *filters.ColdPool)
		}
		if filters.IsStale != nil {
			query += fmt.Sprintf(" AND is_stale = $%d", len(args)+1)
			args = append(args, *filters.IsStale)
		}
	}

	query += " ORDER BY created_at DESC"

	var deals []*model.Deal
	if err := r.db.SelectContext(ctx, &deals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	return deals, nil
}

func (r *dealRepository) UpdateScore(ctx context.Context, id uuid.UUID, score int, at time.Time) error {
	query := `
		UPDATE deals
		SET lead_score = $1, score_updated_at = $2, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, score, at, id)
	if err != nil {
		return fmt.Errorf("failed to update deal score: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deal not found")
	}

	return nil
}

func (r *dealRepository) ListUnassignedLeads(ctx context.Context, limit int) ([]*model.Deal, error) {
	query := `
		SELECT * FROM deals
		WHERE stage = 'Lead' AND owner_id IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`

	var deals []*model.Deal
	if err := r.db.SelectContext(ctx, &deals, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unassigned leads: %w", err)
	}

	return deals, nil
}

func (r *dealRepository) ListStaleCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error) {
	query := `
		SELECT * FROM deals
		WHERE last_activity_at < $1
		  AND is_stale = false
		  AND cold_pool = false
		  AND owner_id IS NOT NULL
		  AND lower(stage) NOT IN ` + terminalStages + `
		ORDER BY last_activity_at ASC
	`

	var deals []*model.Deal
	if err := r.db.SelectContext(ctx, &deals, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list stale candidates: %w", err)
	}

	return deals, nil
}

func (r *dealRepository) ListEscalationCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error) {
	query := `
		SELECT * FROM deals
		WHERE last_activity_at < $1
		  AND is_stale = true
		  AND cold_pool = false
		  AND escalation_sent_at IS NULL
		  AND owner_id IS NOT NULL
		  AND lower(stage) NOT IN ` + terminalStages + `
		ORDER BY last_activity_at ASC
	`

	var deals []*model.Deal
	if err := r.db.SelectContext(ctx, &deals, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list escalation candidates: %w", err)
	}

	return deals, nil
}

func (r *dealRepository) ListColdPoolCandidates(ctx context.Context, cutoff time.Time) ([]*model.Deal, error) {
	query := `
		SELECT * FROM deals
		WHERE last_activity_at < $1
		  AND cold_pool = false
		  AND lower(stage) NOT IN ` + terminalStages + `
		ORDER BY last_activity_at ASC
	`

	var deals []*model.Deal
	if err := r.db.SelectContext(ctx, &deals, query, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list cold pool candidates: %w", err)
	}

	return deals, nil
}

func (r *dealRepository) ListDueFollowUps(ctx context.Context, now time.Time) ([]*model.Deal, error) {
	query := `
		SELECT * FROM deals
		WHERE owner_id IS NOT NULL
		  AND next_follow_up_at IS NOT NULL
		  AND next_follow_up_at <= $1
		  AND follow_up_notified = false
		  AND lower(stage) NOT IN ` + terminalStages + `
		ORDER BY next_follow_up_at ASC
	`

	var deals []*model.Deal
	if err := r.db.SelectContext(ctx, &deals, query, now); err != nil {
		return nil, fmt.Errorf("failed to list due follow-ups: %w", err)
	}

	return deals, nil
}

func (r *dealRepository) AssignOwnerTx(ctx context.Context, tx *sqlx.Tx, dealID, ownerID uuid.UUID) error {
	query := `
		UPDATE deals
		SET owner_id = $1, updated_at = $2
		WHERE id = $3 AND owner_id IS NULL
	`

	result, err := tx.ExecContext(ctx, query, ownerID, time.Now(), dealID)
	if err != nil {
		return fmt.Errorf("failed to assign deal owner: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deal already assigned")
	}

	return nil
}

func (r *dealRepository) MarkStaleTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID) error {
	query := `
		UPDATE deals
		SET is_stale = true, updated_at = $1
		WHERE id = $2 AND is_stale = false
	`

	if _, err := tx.ExecContext(ctx, query, time.Now(), dealID); err != nil {
		return fmt.Errorf("failed to mark deal stale: %w", err)
	}
	return nil
}

func (r *dealRepository) StampEscalationTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID, at time.Time) error {
	query := `
		UPDATE deals
		SET escalation_sent_at = $1, updated_at = $1
		WHERE id = $2 AND escalation_sent_at IS NULL
	`

	if _, err := tx.ExecContext(ctx, query, at, dealID); err != nil {
		return fmt.Errorf("failed to stamp escalation: %w", err)
	}
	return nil
}

func (r *dealRepository) MoveToColdPoolTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID) error {
	query := `
		UPDATE deals
		SET cold_pool = true, is_stale = true, owner_id = NULL, updated_at = $1
		WHERE id = $2 AND cold_pool = false
	`

	if _, err := tx.ExecContext(ctx, query, time.Now(), dealID); err != nil {
		return fmt.Errorf("failed to move deal to cold pool: %w", err)
	}
	return nil
}

func (r *dealRepository) MarkFollowUpNotified(ctx context.Context, dealID uuid.UUID) error {
	query := `
		UPDATE deals
		SET follow_up_notified = true, updated_at = $1
		WHERE id = $2
	`

	if _, err := r.db.ExecContext(ctx, query, time.Now(), dealID); err != nil {
		return fmt.Errorf("failed to mark follow-up notified: %w", err)
	}
	return nil
}
