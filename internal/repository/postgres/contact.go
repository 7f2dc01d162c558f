package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
)

type contactRepository struct {
	BaseRepository
}

func NewContactRepository(base BaseRepository) repository.ContactRepository {
	return &contactRepository{base}
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) error {
	query := `
		INSERT INTO contacts (
			id, company_id, name, email, phone, title, owner_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	contact.ID = uuid.New()
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		contact.ID,
		contact.CompanyID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Title,
		contact.OwnerID,
		contact.CreatedAt,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *contactRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	query := `SELECT * FROM contacts WHERE id = $1`

	var contact model.Contact
	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &contact, nil
}

func (r *contactRepository) Update(ctx context.Context, contact *model.Contact) error {
	query := `
		UPDATE contacts SET
			company_id = $1,
			name = $2,
			email = $3,
			phone = $4,
			title = $5,
			owner_id = $6,
			updated_at = $7
		WHERE id = $8
	`

	result, err := r.db.ExecContext(ctx, query,
		contact.CompanyID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Title,
		contact.OwnerID,
		time.Now(),
		contact.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("contact not found")
	}

	return nil
}

func (r *contactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM contacts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("contact not found")
	}

	return nil
}

func (r *contactRepository) List(ctx context.Context, companyID *uuid.UUID) ([]*model.Contact, error) {
	query := `SELECT * FROM contacts`
	args := []interface{}{}

	if companyID != nil {
		query += ` WHERE company_id = $1`
		args = append(args, *companyID)
	}

	query += ` ORDER BY name ASC`

	var contacts []*model.Contact
	if err := r.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return contacts, nil
}
