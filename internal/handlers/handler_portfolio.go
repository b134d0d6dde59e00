package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/valutatrade/valutatrade_hub/internal/apperrors"
	"github.com/valutatrade/valutatrade_hub/internal/core/domain"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
	"github.com/valutatrade/valutatrade_hub/internal/dto"
	"github.com/valutatrade/valutatrade_hub/internal/middleware"
)

// portfolioHandler handles portfolio reads and trade execution.
type portfolioHandler struct {
	ledger   ports.WalletLedgerSvcFacade
	resolver ports.RateResolverSvcFacade
	trade    ports.TradeSvcFacade
}

func newPortfolioHandler(ledger ports.WalletLedgerSvcFacade, resolver ports.RateResolverSvcFacade, trade ports.TradeSvcFacade) *portfolioHandler {
	return &portfolioHandler{ledger: ledger, resolver: resolver, trade: trade}
}

// registerPortfolioRoutes registers routes related to portfolios and trades.
func registerPortfolioRoutes(rg *gin.RouterGroup, ledger ports.WalletLedgerSvcFacade, resolver ports.RateResolverSvcFacade, trade ports.TradeSvcFacade) {
	h := newPortfolioHandler(ledger, resolver, trade)

	portfolios := rg.Group("/portfolios")
	{
		portfolios.GET("/:userID", h.getPortfolio)
		portfolios.POST("/:userID/buy", h.buy)
		portfolios.POST("/:userID/sell", h.sell)
	}
}

// getPortfolio returns the user's wallets valued in ?base= (default USD).
// Wallets with no available rate are listed with rateAvailable=false and
// contribute nothing to the total.
func (h *portfolioHandler) getPortfolio(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID := c.Param("userID")

	baseCurrency := domain.NormalizeCurrencyCode(c.DefaultQuery("base", "USD"))
	if err := domain.ValidateCurrencyCode(baseCurrency); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	portfolio, err := h.ledger.GetPortfolio(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to load portfolio", slog.String("user_id", userID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load portfolio"})
		return
	}

	wallets := make([]dto.WalletValueResponse, 0, len(portfolio.Wallets))
	for _, wallet := range portfolio.Wallets {
		entry := dto.WalletValueResponse{
			CurrencyCode: wallet.CurrencyCode,
			Balance:      wallet.Balance,
			Value:        decimal.Zero,
		}
		quote, err := h.resolver.Resolve(c.Request.Context(), wallet.CurrencyCode, baseCurrency)
		if err == nil {
			rate := quote.Rate
			entry.Rate = &rate
			entry.Value = wallet.Balance.Mul(rate)
			entry.RateAvailable = true
		} else if !errors.Is(err, apperrors.ErrRateUnavailable) {
			logger.Warn("Failed to value wallet",
				slog.String("currency", wallet.CurrencyCode), slog.String("error", err.Error()))
		}
		wallets = append(wallets, entry)
	}

	c.JSON(http.StatusOK, dto.NewPortfolioResponse(portfolio, baseCurrency, wallets))
}

// buy credits currency to the user's portfolio.
func (h *portfolioHandler) buy(c *gin.Context) {
	h.executeTrade(c, domain.Buy)
}

// sell debits currency from the user's portfolio.
func (h *portfolioHandler) sell(c *gin.Context) {
	h.executeTrade(c, domain.Sell)
}

func (h *portfolioHandler) executeTrade(c *gin.Context, side domain.TradeSide) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID := c.Param("userID")

	var req dto.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind trade request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	var receipt *domain.TradeReceipt
	var err error
	switch side {
	case domain.Buy:
		receipt, err = h.trade.Buy(c.Request.Context(), userID, req.CurrencyCode, req.Amount)
	case domain.Sell:
		receipt, err = h.trade.Sell(c.Request.Context(), userID, req.CurrencyCode, req.Amount)
	}
	if err != nil {
		h.renderTradeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTradeReceiptResponse(receipt))
}

// renderTradeError maps the trade error taxonomy onto HTTP statuses,
// keeping the specific reason (currency, available vs required) in the
// response body.
func (h *portfolioHandler) renderTradeError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var insufficientFunds *apperrors.InsufficientFundsError
	if errors.As(err, &insufficientFunds) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":         insufficientFunds.Error(),
			"currency_code": insufficientFunds.CurrencyCode,
			"available":     insufficientFunds.Available,
			"required":      insufficientFunds.Required,
		})
		return
	}
	if errors.Is(err, apperrors.ErrCurrencyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, apperrors.ErrInvalidAmount) || errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger.Error("Trade execution failed", slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Trade execution failed"})
}
