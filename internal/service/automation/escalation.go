package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salesdeck/crm-api/internal/model"
)

const escalationJob = "stale_escalation"

// EscalateStale runs the three-tier inactivity progression. Tiers are
// evaluated independently; per-tier queries exclude deals already past
// that tier's flag, so each transition fires at most once. A failure on
// one deal is logged and the sweep moves on.
func (e *Engine) EscalateStale(ctx context.Context) error {
	now := time.Now()

	if err := e.sweepStaleAlerts(ctx, now); err != nil {
		return err
	}
	if err := e.sweepEscalations(ctx, now); err != nil {
		return err
	}
	return e.sweepColdPool(ctx, now)
}

// Tier A: > stale_after without activity, owned, not yet stale.
func (e *Engine) sweepStaleAlerts(ctx context.Context, now time.Time) error {
	deals, err := e.deals.ListStaleCandidates(ctx, now.Add(-e.cfg.StaleAfter))
	if err != nil {
		return fmt.Errorf("failed to list stale candidates: %w", err)
	}

	for _, deal := range deals {
		days := int(now.Sub(deal.LastActivityAt).Hours() / 24)
		content := fmt.Sprintf("Deal flagged stale: no activity for %d days", days)

		err := e.withDealTx(ctx, func(tx *sqlx.Tx) error {
			if err := e.deals.MarkStaleTx(ctx, tx, deal.ID); err != nil {
				return err
			}
			return e.activities.CreateTx(ctx, tx, &model.Activity{
				DealID:     &deal.ID,
				Type:       model.ActivityTypeAlert,
				Content:    content,
				OccurredAt: now,
			})
		})
		if err != nil {
			e.countItem(escalationJob, "error")
			e.logger.Error(err, "stale alert failed", "deal_id", deal.ID.String())
			continue
		}
		e.countItem(escalationJob, "stale")

		e.notifier.Notify(ctx, *deal.OwnerID,
			model.NotificationTypeDealStale,
			"Deal going stale",
			fmt.Sprintf("Deal %q has had no activity for %d days.", deal.Name, days),
			&deal.ID,
		)

		if owner, err := e.users.Get(ctx, *deal.OwnerID); err != nil {
			e.logger.Error(err, "failed to load deal owner", "deal_id", deal.ID.String())
		} else {
			e.sendEmail(ctx, owner.Email,
				fmt.Sprintf("Stale deal: %s", deal.Name),
				fmt.Sprintf("<p>Deal <b>%s</b> has had no activity for %d days. Time to follow up.</p>", deal.Name, days),
			)
		}
	}

	return nil
}

// Tier B: already stale, > escalate_after without activity, escalation
// not yet sent. Deals whose owner has no manager are skipped silently.
func (e *Engine) sweepEscalations(ctx context.Context, now time.Time) error {
	deals, err := e.deals.ListEscalationCandidates(ctx, now.Add(-e.cfg.EscalateAfter))
	if err != nil {
		return fmt.Errorf("failed to list escalation candidates: %w", err)
	}

	for _, deal := range deals {
		days := int(now.Sub(deal.LastActivityAt).Hours() / 24)

		err := e.withDealTx(ctx, func(tx *sqlx.Tx) error {
			if err := e.deals.StampEscalationTx(ctx, tx, deal.ID, now); err != nil {
				return err
			}
			return e.activities.CreateTx(ctx, tx, &model.Activity{
				DealID:     &deal.ID,
				Type:       model.ActivityTypeAlert,
				Content:    fmt.Sprintf("Deal escalated to manager after %d days of inactivity", days),
				OccurredAt: now,
			})
		})
		if err != nil {
			e.countItem(escalationJob, "error")
			e.logger.Error(err, "escalation failed", "deal_id", deal.ID.String())
			continue
		}
		e.countItem(escalationJob, "escalated")

		owner, err := e.users.Get(ctx, *deal.OwnerID)
		if err != nil {
			e.logger.Error(err, "failed to load deal owner", "deal_id", deal.ID.String())
			continue
		}
		if owner.ManagerID == nil {
			continue
		}
		manager, err := e.users.Get(ctx, *owner.ManagerID)
		if err != nil {
			e.logger.Error(err, "failed to load owner's manager", "deal_id", deal.ID.String())
			continue
		}

		e.sendEmail(ctx, manager.Email,
			fmt.Sprintf("Escalation: deal %s is stalled", deal.Name),
			fmt.Sprintf("<p>Deal <b>%s</b> owned by %s has had no activity for %d days.</p>",
				deal.Name, owner.Name, days),
		)
	}

	return nil
}

// Tier C: > cold_pool_after without activity, regardless of stale or
// escalation state. Clears the owner for manual re-triage.
func (e *Engine) sweepColdPool(ctx context.Context, now time.Time) error {
	deals, err := e.deals.ListColdPoolCandidates(ctx, now.Add(-e.cfg.ColdPoolAfter))
	if err != nil {
		return fmt.Errorf("failed to list cold pool candidates: %w", err)
	}

	for _, deal := range deals {
		days := int(now.Sub(deal.LastActivityAt).Hours() / 24)
		var formerOwner *uuid.UUID
		if deal.OwnerID != nil {
			id := *deal.OwnerID
			formerOwner = &id
		}

		err := e.withDealTx(ctx, func(tx *sqlx.Tx) error {
			if err := e.deals.MoveToColdPoolTx(ctx, tx, deal.ID); err != nil {
				return err
			}
			return e.activities.CreateTx(ctx, tx, &model.Activity{
				DealID:     &deal.ID,
				Type:       model.ActivityTypeSystem,
				Content:    fmt.Sprintf("Deal moved to cold pool after %d days of inactivity", days),
				OccurredAt: now,
			})
		})
		if err != nil {
			e.countItem(escalationJob, "error")
			e.logger.Error(err, "cold pool transition failed", "deal_id", deal.ID.String())
			continue
		}
		e.countItem(escalationJob, "cold_pool")

		if formerOwner == nil {
			continue
		}

		e.notifier.Notify(ctx, *formerOwner,
			model.NotificationTypeDealColdPool,
			"Deal moved to cold pool",
			fmt.Sprintf("Deal %q was unassigned after %d days of inactivity.", deal.Name, days),
			&deal.ID,
		)

		if owner, err := e.users.Get(ctx, *formerOwner); err != nil {
			e.logger.Error(err, "failed to load former owner", "deal_id", deal.ID.String())
		} else {
			e.sendEmail(ctx, owner.Email,
				fmt.Sprintf("Deal moved to cold pool: %s", deal.Name),
				fmt.Sprintf("<p>Deal <b>%s</b> was unassigned after %d days of inactivity and needs re-triage.</p>", deal.Name, days),
			)
		}
	}

	return nil
}

func (e *Engine) withDealTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := e.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
