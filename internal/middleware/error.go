package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/salesdeck/crm-api/pkg/errors"
	"github.com/salesdeck/crm-api/pkg/logger"
)

// ErrorResponse is the envelope for errors raised before a handler
// runs (auth, rate limiting, panics). Handler errors go through
// httputil instead.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler drains gin's error chain after the handlers have run.
// Handlers respond through httputil themselves, so anything still on
// c.Errors here slipped past that path and is logged before the
// fallback response.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			log.Error(e.Err, "unhandled request error",
				"request_id", requestID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
		}

		if c.Writer.Written() {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"
		if appErr, ok := errors.AsAppError(c.Errors.Last().Err); ok {
			status = statusForCode(appErr.Code)
			message = appErr.Message
		}

		c.JSON(status, ErrorResponse{
			Code:    status,
			Message: message,
			TraceID: requestID,
		})
	}
}

func statusForCode(code errors.ErrorCode) int {
	switch code {
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrBadRequest:
		return http.StatusBadRequest
	case errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
