package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
)

type companyRepository struct {
	BaseRepository
}

func NewCompanyRepository(base BaseRepository) repository.CompanyRepository {
	return &companyRepository{base}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	query := `
		INSERT INTO companies (id, name, domain, industry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	company.ID = uuid.New()
	company.CreatedAt = time.Now()
	company.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		company.ID,
		company.Name,
		company.Domain,
		company.Industry,
		company.CreatedAt,
		company.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *companyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	query := `SELECT * FROM companies WHERE id = $1`

	var company model.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return &company, nil
}

func (r *companyRepository) Update(ctx context.Context, company *model.Company) error {
	query := `
		UPDATE companies SET name = $1, domain = $2, industry = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		company.Name,
		company.Domain,
		company.Industry,
		time.Now(),
		company.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("company not found")
	}

	return nil
}

func (r *companyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM companies WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("company not found")
	}

	return nil
}

func (r *companyRepository) List(ctx context.Context) ([]*model.Company, error) {
	query := `SELECT * FROM companies ORDER BY name ASC`

	var companies []*model.Company
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	return companies, nil
}
