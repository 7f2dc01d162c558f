package company

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/repository"
	apperrors "github.com/salesdeck/crm-api/pkg/errors"
)

type Service struct {
	companies repository.CompanyRepository
}

func NewService(companies repository.CompanyRepository) *Service {
	return &Service{companies: companies}
}

func (s *Service) Create(ctx context.Context, req *model.CreateCompanyRequest) (*model.Company, error) {
	company := &model.Company{
		Name:     req.Name,
		Domain:   req.Domain,
		Industry: req.Industry,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return company, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	company, err := s.companies.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("company", err)
	}
	return company, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateCompanyRequest) (*model.Company, error) {
	company, err := s.companies.Get(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("company", err)
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Domain != nil {
		company.Domain = *req.Domain
	}
	if req.Industry != nil {
		company.Industry = *req.Industry
	}

	if err := s.companies.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return company, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.companies.Delete(ctx, id); err != nil {
		return apperrors.NotFound("company", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]*model.Company, error) {
	return s.companies.List(ctx)
}
