package tracking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salesdeck/crm-api/internal/service/tracking"
	"github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/httputil"
	"github.com/salesdeck/crm-api/pkg/logger"
)

// transparent 1x1 GIF served by the open pixel
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80,
	0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01,
	0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type Handler struct {
	service *tracking.Service
	logger  *logger.Logger
}

func NewHandler(service *tracking.Service, log *logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes mounts the authenticated send endpoint.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/emails/send", h.SendEmail)
}

// RegisterPublicRoutes mounts the pixel and click endpoints. These are
// hit by recipient mail clients and carry no credentials.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	track := r.Group("/track")
	{
		track.GET("/open/:sendID", h.TrackOpen)
		track.GET("/click/:sendID", h.TrackClick)
	}
}

func (h *Handler) SendEmail(c *gin.Context) {
	var req tracking.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return
	}

	send, err := h.service.Send(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, send)
}

// TrackOpen records the open and always serves the pixel. A broken or
// replayed tracking link must never surface an error to a mail client.
func (h *Handler) TrackOpen(c *gin.Context) {
	if sendID, err := uuid.Parse(c.Param("sendID")); err == nil {
		if err := h.service.RecordOpen(c.Request.Context(), sendID); err != nil {
			h.logger.WithFields(map[string]interface{}{
				"send_id": sendID,
				"error":   err.Error(),
			}).Warn("failed to record email open")
		}
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/gif", pixelGIF)
}

// TrackClick records the click and redirects to the wrapped URL.
func (h *Handler) TrackClick(c *gin.Context) {
	target := c.Query("url")

	if sendID, err := uuid.Parse(c.Param("sendID")); err == nil {
		resolved, err := h.service.RecordClick(c.Request.Context(), sendID, target)
		if err != nil {
			h.logger.WithFields(map[string]interface{}{
				"send_id": sendID,
				"error":   err.Error(),
			}).Warn("failed to record email click")
		} else {
			target = resolved
		}
	}

	if target == "" {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusFound, target)
}
