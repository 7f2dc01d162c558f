package deal

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/middleware"
	"github.com/salesdeck/crm-api/internal/model"
	"github.com/salesdeck/crm-api/internal/service/deal"
	"github.com/salesdeck/crm-api/internal/service/scoring"
	"github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/httputil"
)

type Handler struct {
	service *deal.Service
	scoring *scoring.Service
}

func NewHandler(service *deal.Service, scoringSvc *scoring.Service) *Handler {
	return &Handler{service: service, scoring: scoringSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	deals := r.Group("/deals")
	{
		deals.POST("", h.CreateDeal)
		deals.GET("", h.ListDeals)
		deals.GET("/:id", h.GetDeal)
		deals.PUT("/:id", h.UpdateDeal)
		deals.PATCH("/:id/stage", h.ChangeStage)
		deals.POST("/:id/score/recalculate", h.RecalculateScore)
	}
}

func (h *Handler) CreateDeal(c *gin.Context) {
	var req model.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	d, err := h.service.Create(c.Request.Context(), &req, actorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, d)
}

func (h *Handler) GetDeal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid deal ID", err))
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) ListDeals(c *gin.Context) {
	var filters model.DealFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	deals, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, deals)
}

func (h *Handler) UpdateDeal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid deal ID", err))
		return
	}

	var req model.UpdateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	d, err := h.service.Update(c.Request.Context(), id, &req, actorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

type changeStageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

func (h *Handler) ChangeStage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid deal ID", err))
		return
	}

	var req changeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	d, err := h.service.ChangeStage(c.Request.Context(), id, req.Stage, actorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

func (h *Handler) RecalculateScore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid deal ID", err))
		return
	}

	result, err := h.scoring.RecalculateDeal(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func actorID(c *gin.Context) *uuid.UUID {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	return nil
}
