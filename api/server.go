// Package api exposes the bridge over HTTP: authenticated price lookups and
// trade opening, plus the administrative balance override.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/tradebridge/bridge"
	"github.com/rustyeddy/tradebridge/ledger"
)

// Store is the slice of the ledger the API reads and writes directly. Trade
// creation goes through the reconciler instead.
type Store interface {
	UserByEmail(ctx context.Context, email string) (ledger.User, error)
	AccountByID(ctx context.Context, accountID string) (ledger.Account, error)
	AccountOwnedBy(ctx context.Context, accountID, userID string) (ledger.Account, error)
	SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
}

// TradeOpener opens a trade against the venue and records it.
type TradeOpener interface {
	OpenTrade(ctx context.Context, account ledger.Account, req bridge.OrderRequest) (ledger.Trade, error)
}

type Server struct {
	router      *gin.Engine
	quotes      bridge.Quoter
	trades      TradeOpener
	store       Store
	log         *zap.Logger
	jwtSecret   string
	adminSecret string
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router, middleware, and routes.
func NewServer(quotes bridge.Quoter, trades TradeOpener, store Store, log *zap.Logger, jwtSecret, adminSecret string) *Server {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()

	s := &Server{
		router:      g,
		quotes:      quotes,
		trades:      trades,
		store:       store,
		log:         log,
		jwtSecret:   jwtSecret,
		adminSecret: adminSecret,
	}

	// Request logging
	g.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	})
	g.Use(gin.Recovery())

	g.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	authed := g.Group("/", s.authRequired())
	authed.GET("/price/:symbol", s.getPrice)
	authed.POST("/trade/open", s.openTrade)

	g.POST("/admin/adjust-balance", s.adjustBalance)

	return s
}

// Handler returns the http handler for mounting in an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}
