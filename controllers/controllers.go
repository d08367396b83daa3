package controllers

import (
	"strconv"
	"time"

	"ormperfapi/events"
	"ormperfapi/models"
	"ormperfapi/middlewares"
	"ormperfapi/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultLongQueryDelay = 5 * time.Second

type API struct {
	Store          store.Repository
	Events         *events.Notifier
	Log            zerolog.Logger
	LongQueryDelay time.Duration
}

func NewAPI() *API {
	return &API{
		Events:         events.NewNotifier(zerolog.Nop()),
		Log:            zerolog.Nop(),
		LongQueryDelay: defaultLongQueryDelay,
	}
}

func sendError(c *gin.Context, code int, msg string) {
	c.JSON(code, models.GenericResponse{Message: msg})
}

func (api *API) requestLog(c *gin.Context) zerolog.Logger {
	return api.Log.With().Str("request_id", c.GetString(middlewares.RequestIDKey)).Logger()
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
