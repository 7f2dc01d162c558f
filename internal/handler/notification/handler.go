package notification

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/middleware"
	"github.com/salesdeck/crm-api/internal/service/notification"
	"github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/httputil"
)

type Handler struct {
	service notification.Service
}

func NewHandler(service notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.POST("/read-all", h.MarkAllRead)
	}
}

// ListNotifications returns the caller's notifications, newest first.
// Pass unread=true to restrict to unread rows.
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.service.ListForUser(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, notifications)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid notification ID", err))
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}

func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		httputil.RespondWithError(c, errors.Unauthorized(nil))
		return
	}

	if err := h.service.MarkAllRead(c.Request.Context(), userID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"read": true})
}
