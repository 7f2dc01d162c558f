package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
)

type workflowRuleRepository struct {
	BaseRepository
}

func NewWorkflowRuleRepository(base BaseRepository) repository.WorkflowRuleRepository {
	return &workflowRuleRepository{base}
}

func (r *workflowRuleRepository) Create(ctx context.Context, rule *model.WorkflowRule) error {
	query := `
		INSERT INTO workflow_rules (
			id, name, active, trigger_field, trigger_op, trigger_value,
			action_type, action_value, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	rule.ID = uuid.New()
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.Name,
		rule.Active,
		rule.TriggerField,
		rule.TriggerOp,
		rule.TriggerValue,
		rule.ActionType,
		rule.ActionValue,
		rule.CreatedBy,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workflow rule: %w", err)
	}
	return nil
}

func (r *workflowRuleRepository) Get(ctx context.Context, id uuid.UUID) (*model.WorkflowRule, error) {
	query := `SELECT * FROM workflow_rules WHERE id = $1`

	var rule model.WorkflowRule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, fmt.Errorf("failed to get workflow rule: %w", err)
	}

	return &rule, nil
}

func (r *workflowRuleRepository) Update(ctx context.Context, rule *model.WorkflowRule) error {
	query := `
		UPDATE workflow_rules SET
			name = $1,
			active = $2,
			trigger_field = $3,
			trigger_op = $4,
			trigger_value = $5,
			action_type = $6,
			action_value = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		rule.Name,
		rule.Active,
		rule.TriggerField,
		rule.TriggerOp,
		rule.TriggerValue,
		rule.ActionType,
		rule.ActionValue,
		time.Now(),
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update workflow rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow rule not found")
	}

	return nil
}

func (r *workflowRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM workflow_rules WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow rule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("workflow rule not found")
	}

	return nil
}

func (r *workflowRuleRepository) List(ctx context.Context) ([]*model.WorkflowRule, error) {
	query := `SELECT * FROM workflow_rules ORDER BY created_at ASC`

	var rules []*model.WorkflowRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to list workflow rules: %w", err)
	}

	return rules, nil
}

func (r *workflowRuleRepository) ListActive(ctx context.Context) ([]*model.WorkflowRule, error) {
	query := `SELECT * FROM workflow_rules WHERE active = true ORDER BY created_at ASC`

	var rules []*model.WorkflowRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to list active workflow rules: %w", err)
	}

	return rules, nil
}
