package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ormperfapi/models"
	"ormperfapi/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// StatusClientClosedRequest is best effort: the caller has usually gone by
// the time it is written.
const StatusClientClosedRequest = 499

var comparePriceAbove = decimal.NewFromInt(100)

// LongQuery waits LongQueryDelay and then lists every product with its
// category. A client disconnect during either step ends the request with 499.
func (api *API) LongQuery(c *gin.Context) {
	ctx := c.Request.Context()
	log := api.requestLog(c)

	log.Info().Bool("cancel_requested", ctx.Err() != nil).Msg("long query started")

	products, err := api.longQuery(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			log.Warn().Err(err).Msg("long query cancelled by client")
			c.String(StatusClientClosedRequest, "Query was cancelled by the client.")
			return
		}

		log.Error().Err(err).Msg("long query failed")
		c.Error(err)
		return
	}

	log.Info().Int("count", len(products)).Msg("long query finished normally")
	c.JSON(http.StatusOK, products)
}

func (api *API) longQuery(ctx context.Context) ([]models.Product, error) {
	if err := sleepContext(ctx, api.LongQueryDelay); err != nil {
		return nil, err
	}
	return api.Store.ListProducts(ctx, store.ProductQuery{Include: true, Split: true})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CompareQueries filters price > 100 once in memory and once in SQL.
func (api *API) CompareQueries(c *gin.Context) {
	ctx := c.Request.Context()
	log := api.requestLog(c)
	var result models.QueryComparison

	start := time.Now()
	all, err := api.Store.ListProducts(ctx, store.ProductQuery{})
	if err != nil {
		c.Error(err)
		return
	}

	for _, p := range all {
		if p.Price.GreaterThan(comparePriceAbove) {
			result.InMemoryCount++
		}
	}
	result.InMemoryMs = time.Since(start).Milliseconds()

	start = time.Now()
	filtered, err := api.Store.ListProducts(ctx, store.ProductQuery{PriceAbove: &comparePriceAbove})
	if err != nil {
		c.Error(err)
		return
	}
	result.DatabaseCount = len(filtered)
	result.DatabaseMs = time.Since(start).Milliseconds()

	log.Info().
		Int64("in_memory_ms", result.InMemoryMs).
		Int64("database_ms", result.DatabaseMs).
		Int("count", result.DatabaseCount).
		Msg("query comparison")

	c.JSON(http.StatusOK, result)
}

// CompareLoading loads categories through one joined query and through a
// separate query per relation.
func (api *API) CompareLoading(c *gin.Context) {
	ctx := c.Request.Context()
	log := api.requestLog(c)
	var result models.LoadingComparison

	start := time.Now()
	joined, err := api.Store.ListProducts(ctx, store.ProductQuery{Include: true})
	if err != nil {
		c.Error(err)
		return
	}
	result.JoinedMs = time.Since(start).Milliseconds()

	start = time.Now()
	split, err := api.Store.ListProducts(ctx, store.ProductQuery{Include: true, Split: true})
	if err != nil {
		c.Error(err)
		return
	}
	result.SplitMs = time.Since(start).Milliseconds()
	result.Count = len(split)

	if len(joined) != len(split) {
		log.Warn().Int("joined", len(joined)).Int("split", len(split)).Msg("loading strategies disagree")
	}

	log.Info().
		Int64("joined_ms", result.JoinedMs).
		Int64("split_ms", result.SplitMs).
		Msg("loading comparison")

	c.JSON(http.StatusOK, result)
}
