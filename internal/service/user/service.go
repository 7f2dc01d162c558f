package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	apperrors "github.com/salesdeck/crm-api/pkg/errors"
)

type Service struct {
	users repository.UserRepository
}

func NewService(users repository.UserRepository) *Service {
	return &Service{users: users}
}

func (s *Service) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if req.ManagerID != nil {
		manager, err := s.users.Get(ctx, *req.ManagerID)
		if err != nil {
			return nil, apperrors.BadRequest("manager not found", err)
		}
		// One level of hierarchy only.
		if manager.ManagerID != nil && manager.Role != model.UserRoleManager && manager.Role != model.UserRoleAdmin {
			return nil, apperrors.BadRequest("manager must have a manager or admin role", nil)
		}
	}

	user := &model.User{
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		Active:    true,
		ManagerID: req.ManagerID,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("user", err)
	}
	return user, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("user", err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if req.ManagerID != nil {
		user.ManagerID = req.ManagerID
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, filters *model.UserFilters) ([]*model.User, error) {
	return s.users.List(ctx, filters)
}
