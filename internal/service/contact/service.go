package contact

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	apperrors "github.com/salesdeck/crm-api/pkg/errors"
)

type Service struct {
	contacts repository.ContactRepository
}

func NewService(contacts repository.ContactRepository) *Service {
	return &Service{contacts: contacts}
}

func (s *Service) Create(ctx context.Context, req *model.CreateContactRequest) (*model.Contact, error) {
	contact := &model.Contact{
		CompanyID: req.CompanyID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
		OwnerID:   req.OwnerID,
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	contact, err := s.contacts.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("contact", err)
	}
	return contact, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateContactRequest) (*model.Contact, error) {
	contact, err := s.contacts.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("contact", err)
	}

	if req.CompanyID != nil {
		contact.CompanyID = req.CompanyID
	}
	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Title != nil {
		contact.Title = *req.Title
	}
	if req.OwnerID != nil {
		contact.OwnerID = req.OwnerID
	}

	if err := s.contacts.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return contact, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.contacts.Delete(ctx, id); err != nil {
		return apperrors.NotFound("contact", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, companyID *uuid.UUID) ([]*model.Contact, error) {
	return s.contacts.List(ctx, companyID)
}
