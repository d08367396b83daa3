package middlewares

import (
	"io"
	"net/http"
	"runtime/debug"

	"ormperfapi/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into a 500 and logs it with the stack.
func Recovery(logger zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error().
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("url", c.Request.URL.String()).
			Interface("panic", recovered).
			Str("stack", string(debug.Stack())).
			Msg("panic recovered")

		c.AbortWithStatusJSON(http.StatusInternalServerError, models.GenericResponse{Message: "internal-server-error"})
	})
}
