package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ormperfapi/models"
	"ormperfapi/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

var productSummaries = []models.ProductSummary{
	{ID: 1, Name: "Product A"},
	{ID: 2, Name: "Product B"},
}

func (api *API) GetProducts(c *gin.Context) {
	query := store.ProductQuery{Include: true, Split: true}
	asExcel, _ := strconv.ParseBool(c.Query("export_as_excel"))

	if raw := c.Query("price_above"); raw != "" {
		above, err := decimal.NewFromString(raw)
		if err != nil {
			sendError(c, http.StatusBadRequest, "invalid-price-above")
			return
		}
		query.PriceAbove = &above
	}

	products, err := api.Store.ListProducts(c.Request.Context(), query)
	if err != nil {
		log := api.requestLog(c)
		log.Error().Err(err).Msg("list products")
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if asExcel {
		handleExcelProducts(c, products)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (api *API) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		sendError(c, http.StatusBadRequest, "invalid-id")
		return
	}

	product, err := api.Store.GetProduct(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		sendError(c, http.StatusNotFound, "not-found")
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (api *API) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := validateProduct(product); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	err := api.Store.CreateProduct(c.Request.Context(), &product)
	if errors.Is(err, store.ErrInvalidReference) {
		sendError(c, http.StatusBadRequest, "invalid-category-id")
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Location", fmt.Sprintf("/api/products/%d", product.ID))
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct replaces a product. RowVersion must be the token the client
// last read; a stale token is a conflict unless the row is gone.
func (api *API) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		sendError(c, http.StatusBadRequest, "invalid-id")
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if product.ID != id {
		sendError(c, http.StatusBadRequest, "id-mismatch")
		return
	}

	if len(product.RowVersion) == 0 {
		sendError(c, http.StatusBadRequest, "missing-row-version")
		return
	}

	if err := validateProduct(product); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	err := api.Store.UpdateProduct(ctx, &product)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, store.ErrConcurrencyConflict):
		exists, existsErr := api.Store.ProductExists(ctx, id)
		if existsErr != nil {
			c.Error(existsErr)
			return
		}
		if !exists {
			sendError(c, http.StatusNotFound, "not-found")
			return
		}
		log := api.requestLog(c)
		log.Warn().Int("product_id", id).Msg("stale row version")
		c.Error(fmt.Errorf("update product %d: %w", id, err))
	case errors.Is(err, store.ErrInvalidReference):
		sendError(c, http.StatusBadRequest, "invalid-category-id")
	default:
		c.Error(err)
	}
}

func (api *API) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		sendError(c, http.StatusBadRequest, "invalid-id")
		return
	}

	err := api.Store.DeleteProduct(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		sendError(c, http.StatusNotFound, "not-found")
		return
	}
	// a reference without ON DELETE CASCADE still blocks the delete
	if errors.Is(err, store.ErrInvalidReference) {
		sendError(c, http.StatusConflict, "product-in-use")
		return
	}
	if err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (api *API) GetProductSummaries(c *gin.Context) {
	c.JSON(http.StatusOK, productSummaries)
}

func validateProduct(product models.Product) error {
	if product.Price.IsNegative() {
		return errors.New("invalid-price")
	}

	if product.CategoryID < 1 {
		return errors.New("invalid-category-id")
	}

	return nil
}
