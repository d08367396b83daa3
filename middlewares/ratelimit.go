package middlewares

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"ormperfapi/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Policy allows Permit requests per Window. Requests over the limit are
// rejected straight away, nothing is queued.
type Policy struct {
	Name   string
	Permit int
	Window time.Duration
}

type RateLimiter struct {
	policy  Policy
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewRateLimiter(p Policy, logger zerolog.Logger) *RateLimiter {
	if p.Permit < 1 {
		p.Permit = 1
	}
	return &RateLimiter{
		policy:  p,
		limiter: rate.NewLimiter(rate.Every(p.Window/time.Duration(p.Permit)), p.Permit),
		log:     logger,
	}
}

// Handler shares the limiter across every route it is attached to.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		r := l.limiter.Reserve()
		if !r.OK() {
			l.reject(c, l.policy.Window)
			return
		}

		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			l.reject(c, delay)
			return
		}

		c.Next()
	}
}

func (l *RateLimiter) reject(c *gin.Context, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}

	l.log.Warn().
		Str("policy", l.policy.Name).
		Str("request_id", c.GetString(RequestIDKey)).
		Str("url", c.Request.URL.String()).
		Int("retry_after", secs).
		Msg("rate limited")

	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, models.GenericResponse{Message: "too-many-requests"})
}
