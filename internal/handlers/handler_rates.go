package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
	"github.com/valutatrade/valutatrade_hub/internal/dto"
	"github.com/valutatrade/valutatrade_hub/internal/middleware"
	"github.com/valutatrade/valutatrade_hub/internal/platform/config"
)

// rateHandler handles HTTP requests related to exchange rates.
type rateHandler struct {
	cfg        *config.Config
	resolver   ports.RateResolverSvcFacade
	aggregator ports.RateAggregatorSvcFacade
}

func newRateHandler(cfg *config.Config, resolver ports.RateResolverSvcFacade, aggregator ports.RateAggregatorSvcFacade) *rateHandler {
	return &rateHandler{cfg: cfg, resolver: resolver, aggregator: aggregator}
}

// registerRateRoutes registers routes related to exchange rates.
func registerRateRoutes(rg *gin.RouterGroup, cfg *config.Config, resolver ports.RateResolverSvcFacade, aggregator ports.RateAggregatorSvcFacade) {
	h := newRateHandler(cfg, resolver, aggregator)

	rates := rg.Group("/rates")
	{
		rates.GET("", h.listRates)
		rates.GET("/history", h.getHistory)
		rates.GET("/:from/:to", h.getRate)
		rates.POST("/refresh", h.refreshRates)
	}
}

// getRate resolves one currency pair.
func (h *rateHandler) getRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	from := c.Param("from")
	to := c.Param("to")

	quote, err := h.resolver.Resolve(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrRateUnavailable) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to resolve rate",
			slog.String("from", from), slog.String("to", to), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve rate"})
		return
	}

	fresh, err := h.resolver.IsFresh(c.Request.Context(), h.cfg.RatesTTL)
	if err != nil {
		logger.Warn("Failed to check snapshot freshness", slog.String("error", err.Error()))
		fresh = false
	}

	c.JSON(http.StatusOK, dto.ToRateResponse(quote, !fresh))
}

// listRates returns the current snapshot, optionally filtered to pairs
// containing ?currency= and truncated to ?top= entries.
func (h *rateHandler) listRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	currency := domain.NormalizeCurrencyCode(c.Query("currency"))
	top := 0
	if rawTop := c.Query("top"); rawTop != "" {
		parsed, err := strconv.Atoi(rawTop)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a positive integer"})
			return
		}
		top = parsed
	}

	snapshot, err := h.resolver.GetSnapshot(c.Request.Context())
	if err != nil {
		logger.Error("Failed to load snapshot", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rates"})
		return
	}

	fresh, err := h.resolver.IsFresh(c.Request.Context(), h.cfg.RatesTTL)
	if err != nil {
		fresh = false
	}

	c.JSON(http.StatusOK, dto.ToSnapshotResponse(snapshot, currency, top, !fresh))
}

// getHistory returns the most recent historical observations.
func (h *rateHandler) getHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit := 100
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := h.resolver.GetHistory(c.Request.Context(), limit)
	if err != nil {
		logger.Error("Failed to load rate history", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load rate history"})
		return
	}

	c.JSON(http.StatusOK, dto.ToHistoryResponse(records))
}

// refreshRates triggers one aggregation pass, optionally narrowed to a
// single source.
func (h *rateHandler) refreshRates(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	rates, err := h.aggregator.Refresh(c.Request.Context(), req.Source)
	if err != nil {
		logger.Error("Rates refresh failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rates refresh failed"})
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{Updated: len(rates), Rates: rates})
}
