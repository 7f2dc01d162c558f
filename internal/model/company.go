package model

import "github.com/google/uuid"

// Company represents an account a deal or contact belongs to.
type Company struct {
	Base
	Name     string `json:"name" db:"name"`
	Domain   string `json:"domain" db:"domain"`
	Industry string `json:"industry" db:"industry"`
}

// CreateCompanyRequest represents company creation parameters
type CreateCompanyRequest struct {
	Name     string `json:"name" binding:"required"`
	Domain   string `json:"domain"`
	Industry string `json:"industry"`
}

// UpdateCompanyRequest represents company update parameters
type UpdateCompanyRequest struct {
	Name     *string `json:"name"`
	Domain   *string `json:"domain"`
	Industry *string `json:"industry"`
}

// Contact represents a person at a company.
type Contact struct {
	Base
	CompanyID *uuid.UUID `json:"company_id" db:"company_id"`
	Name      string     `json:"name" db:"name"`
	Email     string     `json:"email" db:"email"`
	Phone     string     `json:"phone" db:"phone"`
	Title     string     `json:"title" db:"title"`
	OwnerID   *uuid.UUID `json:"owner_id" db:"owner_id"`
}

// CreateContactRequest represents contact creation parameters
type CreateContactRequest struct {
	CompanyID *uuid.UUID `json:"company_id"`
	Name      string     `json:"name" binding:"required"`
	Email     string     `json:"email" binding:"omitempty,email"`
	Phone     string     `json:"phone"`
	Title     string     `json:"title"`
	OwnerID   *uuid.UUID `json:"owner_id"`
}

// UpdateContactRequest represents contact update parameters
type UpdateContactRequest struct {
	CompanyID *uuid.UUID `json:"company_id"`
	Name      *string    `json:"name"`
	Email     *string    `json:"email" binding:"omitempty,email"`
	Phone     *string    `json:"phone"`
	Title     *string    `json:"title"`
	OwnerID   *uuid.UUID `json:"owner_id"`
}
