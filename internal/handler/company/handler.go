package company

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/service/company"
	"github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/httputil"
)

type Handler struct {
	service *company.Service
}

func NewHandler(service *company.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	companies := r.Group("/companies")
	{
		companies.POST("", h.CreateCompany)
		companies.GET("", h.ListCompanies)
		companies.GET("/:id", h.GetCompany)
		companies.PUT("/:id", h.UpdateCompany)
		companies.DELETE("/:id", h.DeleteCompany)
	}
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var req model.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	company, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, company)
}

func (h *Handler) GetCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid company ID", err))
		return
	}

	company, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, company)
}

func (h *Handler) ListCompanies(c *gin.Context) {
	companies, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, companies)
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid company ID", err))
		return
	}

	var req model.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	company, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, company)
}

func (h *Handler) DeleteCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid company ID", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}
