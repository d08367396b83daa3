package middlewares

import (
	"errors"
	"net/http"

	"ormperfapi/models"
	"ormperfapi/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorHandler answers for errors handlers pushed with c.Error and did not
// respond to themselves.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		if errors.Is(last.Err, store.ErrConcurrencyConflict) {
			c.JSON(http.StatusConflict, models.GenericResponse{Message: "concurrency-conflict"})
			return
		}

		logger.Error().Err(last.Err).Str("request_id", c.GetString(RequestIDKey)).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, models.GenericResponse{Message: last.Err.Error()})
	}
}
