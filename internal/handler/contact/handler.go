package contact

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/service/contact"
	"github.com/salesdeck/crm-api/internal/service/scoring"
	"github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/httputil"
)

type Handler struct {
	service *contact.Service
	scoring *scoring.Service
}

func NewHandler(service *contact.Service, scoringSvc *scoring.Service) *Handler {
	return &Handler{service: service, scoring: scoringSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	contacts := r.Group("/contacts")
	{
		contacts.POST("", h.CreateContact)
		contacts.GET("", h.ListContacts)
		contacts.GET("/:id", h.GetContact)
		contacts.PUT("/:id", h.UpdateContact)
		contacts.DELETE("/:id", h.DeleteContact)
		contacts.GET("/:id/score", h.GetScore)
	}
}

func (h *Handler) CreateContact(c *gin.Context) {
	var req model.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	contact, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, contact)
}

func (h *Handler) GetContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid contact ID", err))
		return
	}

	contact, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, contact)
}

func (h *Handler) ListContacts(c *gin.Context) {
	var companyID *uuid.UUID
	if raw := c.Query("company_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httputil.RespondWithError(c, errors.BadRequest("invalid company ID", err))
			return
		}
		companyID = &id
	}

	contacts, err := h.service.List(c.Request.Context(), companyID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, contacts)
}

func (h *Handler) UpdateContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid contact ID", err))
		return
	}

	var req model.UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	contact, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, contact)
}

func (h *Handler) DeleteContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid contact ID", err))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"deleted": true})
}

// GetScore computes the contact's engagement score on demand. Contact
// scores are derived from activity history and never persisted.
func (h *Handler) GetScore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid contact ID", err))
		return
	}

	result, err := h.scoring.ScoreContact(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}
