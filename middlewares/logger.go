package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger writes one entry per request once the handlers are done.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var evt *zerolog.Event
		switch {
		case status >= 500:
			evt = logger.Error()
		case status >= 400:
			evt = logger.Warn()
		default:
			evt = logger.Info()
		}

		if err := c.Errors.Last(); err != nil {
			evt = evt.Err(err.Err)
		}

		evt.Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("url", c.Request.URL.String()).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("request completed")
	}
}
