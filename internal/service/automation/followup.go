package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/salesdeck/crm-api/internal/model"
)

const followUpJob = "follow_up_reminders"

// SendFollowUpReminders notifies owners of due follow-ups, once per
// scheduled follow-up. Rescheduling resets the notified flag on the
// deal-update path, not here.
func (e *Engine) SendFollowUpReminders(ctx context.Context) error {
	deals, err := e.deals.ListDueFollowUps(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to list due follow-ups: %w", err)
	}

	for _, deal := range deals {
		e.notifier.Notify(ctx, *deal.OwnerID,
			model.NotificationTypeFollowUpDue,
			"Follow-up due",
			fmt.Sprintf("Follow-up for deal %q is due.", deal.Name),
			&deal.ID,
		)

		if owner, err := e.users.Get(ctx, *deal.OwnerID); err != nil {
			e.logger.Error(err, "failed to load deal owner", "deal_id", deal.ID.String())
		} else {
			e.sendEmail(ctx, owner.Email,
				fmt.Sprintf("Follow-up due: %s", deal.Name),
				fmt.Sprintf("<p>Your follow-up for deal <b>%s</b> is due.</p>", deal.Name),
			)
		}

		if err := e.deals.MarkFollowUpNotified(ctx, deal.ID); err != nil {
			e.countItem(followUpJob, "error")
			e.logger.Error(err, "failed to mark follow-up notified", "deal_id", deal.ID.String())
			continue
		}
		e.countItem(followUpJob, "notified")
	}

	return nil
}
