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

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, name, role, active, manager_id,
			last_assigned_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		user.Active,
		user.ManagerID,
		user.LastAssignedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			email = $1,
			name = $2,
			role = $3,
			active = $4,
			manager_id = $5,
			updated_at = $6
		WHERE id = $7
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Name,
		user.Role,
		user.Active,
		user.ManagerID,
		time.Now(),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

func (r *userRepository) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	query := `SELECT * FROM users WHERE 1=1`
	args := []interface{}{}

	if filters != nil {
		if filters.Role != "" {
			query += fmt.Sprintf(" AND role = $%d", len(args)+1)
			args = append(args, filters.Role)
		}
		if filters.Active != nil {
			query += fmt.Sprintf(" AND active = $%d", len(args)+1)
			args = append(args, *filters.Active)
		}
	}

	query += " ORDER BY created_at DESC"

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *userRepository) ListAssignable(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT * FROM users
		WHERE active = true AND role IN ('rep', 'manager')
		ORDER BY last_assigned_at ASC NULLS FIRST, created_at ASC
	`

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list assignable users: %w", err)
	}

	return users, nil
}

func (r *userRepository) TouchLastAssignedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_assigned_at = $1, updated_at = $1 WHERE id = $2`

	if _, err := tx.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to update last_assigned_at: %w", err)
	}
	return nil
}
