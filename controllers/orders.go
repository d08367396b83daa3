package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"ormperfapi/models"
	"ormperfapi/store"

	"github.com/gin-gonic/gin"
)

func (api *API) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	order, err := api.Store.CreateOrder(c.Request.Context(), req.ProductIDs)
	if errors.Is(err, store.ErrInvalidReference) {
		sendError(c, http.StatusBadRequest, "invalid-product-id")
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	// committed; subscribers are told before the response goes out
	api.Events.PublishOrderCreated(c.Request.Context(), order)

	c.Header("Location", fmt.Sprintf("/api/orders/%d", order.ID))
	c.JSON(http.StatusCreated, order)
}
