package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/salesdeck/crm-api/internal/model"
)

const assignmentJob = "lead_assignment"

// AssignLeads distributes unowned leads across active reps and managers
// round-robin, oldest lead first, least-recently-assigned candidate
// first. Each assignment commits in its own transaction so one failure
// leaves earlier assignments intact.
func (e *Engine) AssignLeads(ctx context.Context) error {
	leads, err := e.deals.ListUnassignedLeads(ctx, e.cfg.AssignmentBatch)
	if err != nil {
		return fmt.Errorf("failed to load unassigned leads: %w", err)
	}
	if len(leads) == 0 {
		return nil
	}

	candidates, err := e.users.ListAssignable(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assignable users: %w", err)
	}
	if len(candidates) == 0 {
		e.logger.Warn("no active reps or managers, leaving leads unassigned", "leads", len(leads))
		return nil
	}

	for i, lead := range leads {
		candidate := candidates[i%len(candidates)]

		if err := e.assignLead(ctx, lead, candidate); err != nil {
			e.countItem(assignmentJob, "error")
			e.logger.Error(err, "lead assignment failed",
				"deal_id", lead.ID.String(), "user_id", candidate.ID.String())
			continue
		}
		e.countItem(assignmentJob, "assigned")

		e.notifier.Notify(ctx, candidate.ID,
			model.NotificationTypeLeadAssigned,
			"New lead assigned",
			fmt.Sprintf("Lead %q was assigned to you automatically.", lead.Name),
			&lead.ID,
		)
	}

	return nil
}

func (e *Engine) assignLead(ctx context.Context, lead *model.Deal, candidate *model.User) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	if err := e.deals.AssignOwnerTx(ctx, tx, lead.ID, candidate.ID); err != nil {
		return err
	}
	if err := e.users.TouchLastAssignedTx(ctx, tx, candidate.ID, now); err != nil {
		return err
	}

	activity := &model.Activity{
		DealID:     &lead.ID,
		Type:       model.ActivityTypeSystem,
		Content:    fmt.Sprintf("Lead automatically assigned to %s (round-robin)", candidate.Name),
		OccurredAt: now,
	}
	if err := e.activities.CreateTx(ctx, tx, activity); err != nil {
		return err
	}

	return tx.Commit()
}
