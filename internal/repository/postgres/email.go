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

type emailRepository struct {
	BaseRepository
}

func NewEmailRepository(base BaseRepository) repository.EmailRepository {
	return &emailRepository{base}
}

func (r *emailRepository) CreateSend(ctx context.Context, send *model.EmailSend) error {
	query := `
		INSERT INTO email_sends (
			id, deal_id, contact_id, recipient, subject, body_html,
			open_count, click_count, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7)
	`

	send.ID = uuid.New()
	if send.SentAt.IsZero() {
		send.SentAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		send.ID,
		send.DealID,
		send.ContactID,
		send.Recipient,
		send.Subject,
		send.BodyHTML,
		send.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create email send: %w", err)
	}
	return nil
}

func (r *emailRepository) GetSend(ctx context.Context, id uuid.UUID) (*model.EmailSend, error) {
	query := `SELECT * FROM email_sends WHERE id = $1`

	var send model.EmailSend
	if err := r.db.GetContext(ctx, &send, query, id); err != nil {
		return nil, fmt.Errorf("failed to get email send: %w", err)
	}

	return &send, nil
}

func (r *emailRepository) RecordEvent(ctx context.Context, event *model.TrackingEvent) error {
	event.ID = uuid.New()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	counter := "open_count"
	if event.Kind == model.TrackingKindClick {
		counter = "click_count"
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO tracking_events (id, email_send_id, kind, url, occurred_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, insert,
			event.ID,
			event.EmailSendID,
			event.Kind,
			event.URL,
			event.OccurredAt,
		); err != nil {
			return fmt.Errorf("failed to insert tracking event: %w", err)
		}

		bump := fmt.Sprintf(`UPDATE email_sends SET %s = %s + 1 WHERE id = $1`, counter, counter)
		if _, err := tx.ExecContext(ctx, bump, event.EmailSendID); err != nil {
			return fmt.Errorf("failed to bump tracking counter: %w", err)
		}
		return nil
	})
}
