package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradebridge/bridge"
	"github.com/rustyeddy/tradebridge/ledger"
	"github.com/rustyeddy/tradebridge/market"
)

type priceResponse struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   int64   `json:"time"`
}

func (s *Server) getPrice(c *gin.Context) {
	tick, err := s.quotes.GetQuote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		s.writeBridgeError(c, err)
		return
	}

	c.JSON(http.StatusOK, priceResponse{
		Symbol: tick.Symbol,
		Bid:    tick.Bid,
		Ask:    tick.Ask,
		Time:   tick.Time.Unix(),
	})
}

type openTradeRequest struct {
	AccountID string  `json:"account_id" binding:"required"`
	Symbol    string  `json:"symbol" binding:"required,min=2,max=20"`
	Volume    float64 `json:"volume" binding:"required,gt=0"`
	Side      string  `json:"side" binding:"required"`
}

type openTradeResponse struct {
	TradeID   string  `json:"trade_id"`
	Ticket    string  `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Volume    float64 `json:"volume"`
	Side      string  `json:"side"`
	OpenPrice float64 `json:"open_price"`
	Status    string  `json:"status"`
}

func (s *Server) openTrade(c *gin.Context) {
	var req openTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: err.Error()})
		return
	}

	user := currentUser(c)
	account, err := s.store.AccountOwnedBy(c.Request.Context(), req.AccountID, user.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		c.JSON(http.StatusNotFound, apiError{Code: "not_found", Message: "account not found"})
		return
	}
	if err != nil {
		s.log.Error("account lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiError{Code: "internal", Message: "internal server error"})
		return
	}

	trade, err := s.trades.OpenTrade(c.Request.Context(), account, bridge.OrderRequest{
		Symbol: req.Symbol,
		Volume: req.Volume,
		Side:   market.Side(req.Side),
	})
	if err != nil {
		s.writeBridgeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, openTradeResponse{
		TradeID:   trade.ID,
		Ticket:    trade.Ticket,
		Symbol:    trade.Symbol,
		Volume:    trade.Volume,
		Side:      string(trade.Side),
		OpenPrice: trade.OpenPrice,
		Status:    trade.Status,
	})
}

type adjustBalanceRequest struct {
	AccountID string          `json:"account_id" binding:"required"`
	Balance   decimal.Decimal `json:"balance"`
}

// adjustBalance sets an account balance directly, bypassing the bridge. It
// is guarded by a shared admin secret rather than a user token.
func (s *Server) adjustBalance(c *gin.Context) {
	if s.adminSecret == "" {
		c.JSON(http.StatusInternalServerError, apiError{Code: "internal", Message: "admin secret is not configured"})
		return
	}
	if c.GetHeader("X-Admin-Secret") != s.adminSecret {
		c.JSON(http.StatusForbidden, apiError{Code: "forbidden", Message: "invalid admin secret"})
		return
	}

	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: err.Error()})
		return
	}

	err := s.store.SetBalance(c.Request.Context(), req.AccountID, req.Balance)
	if errors.Is(err, ledger.ErrNotFound) {
		c.JSON(http.StatusNotFound, apiError{Code: "not_found", Message: "account not found"})
		return
	}
	if err != nil {
		s.log.Error("balance adjustment failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiError{Code: "internal", Message: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": req.AccountID,
		"balance":    req.Balance.StringFixed(2),
		"message":    "balance updated",
	})
}

// writeBridgeError maps a taxonomy error onto the HTTP surface. Validation
// failures are the client's fault; reconciliation failures are reported with
// the remote ticket so operators can follow up; every other remote failure
// collapses into one upstream-execution-failure shape that exposes only a
// diagnostic string.
func (s *Server) writeBridgeError(c *gin.Context, err error) {
	switch bridge.KindOf(err) {
	case bridge.KindValidation:
		c.JSON(http.StatusBadRequest, apiError{Code: "bad_request", Message: err.Error()})
	case bridge.KindReconciliation:
		var be *bridge.Error
		ticket := ""
		if errors.As(err, &be) {
			ticket = be.Comment
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "reconciliation_failure",
			"message": "trade executed remotely but not recorded locally; contact support",
			"ticket":  ticket,
		})
	default:
		c.JSON(http.StatusBadGateway, apiError{
			Code:    "upstream_execution_failure",
			Message: err.Error(),
		})
	}
}
