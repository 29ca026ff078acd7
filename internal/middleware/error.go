package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hms-api/internal/handler"
	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

// ErrorHandler logs errors attached with c.Error. Server errors are logged
// with their cause; client errors only at debug. If no response was written
// the last error is rendered.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		requestID := c.GetString(ContextRequestID)
		for _, e := range c.Errors {
			event := log.Error()
			if appErr, ok := apperrors.As(e.Err); ok && appErr.StatusCode() < http.StatusInternalServerError {
				event = log.Debug()
			}
			event.
				Err(e.Err).
				Str("request_id", requestID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		if !c.Writer.Written() {
			handler.RespondError(c, c.Errors.Last().Err)
		}
	}
}
