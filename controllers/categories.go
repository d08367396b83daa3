package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (api *API) GetCategories(c *gin.Context) {
	categories, err := api.Store.ListCategories(c.Request.Context())
	if err != nil {
		log := api.requestLog(c)
		log.Error().Err(err).Msg("list categories")
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, categories)
}
