package activity

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/middleware"
	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/service/activity"
	"github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/httputil"
)

type Handler struct {
	service *activity.Service
}

func NewHandler(service *activity.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/activities", h.CreateActivity)
	r.GET("/deals/:id/activities", h.ListDealActivities)
	r.GET("/contacts/:id/activities", h.ListContactActivities)
}

func (h *Handler) CreateActivity(c *gin.Context) {
	var req model.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	var actorID *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		actorID = &id
	}

	a, err := h.service.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, a)
}

func (h *Handler) ListDealActivities(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid deal ID", err))
		return
	}

	activities, err := h.service.ListByDeal(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, activities)
}

func (h *Handler) ListContactActivities(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid contact ID", err))
		return
	}

	activities, err := h.service.ListByContact(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, activities)
}
