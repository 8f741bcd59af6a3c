// Package api exposes the ledger operations over HTTP with gin.
//
// Every response is an APIRespond envelope. Operation errors map to a
// status by their fault kind: validation 400, state 409, authorization 403,
// arithmetic and economic 422, missing records 404.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"launchpad-ledger/internal/observability"
	"launchpad-ledger/internal/platform"
	"launchpad-ledger/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures the router.
type Options struct {
	Platform *platform.Platform
	// Journal serves /v1/events; optional.
	Journal storage.EventJournal
	// Events is mounted at /ws/events; optional.
	Events http.Handler
	// Status serves /status; optional.
	Status func() interface{}
	// EnableFaucet exposes POST /v1/faucet.
	EnableFaucet bool
	Logger       *zap.Logger
}

type handler struct {
	p       *platform.Platform
	journal storage.EventJournal
	logger  *zap.Logger
}

// NewRouter builds the HTTP router.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{p: opts.Platform, journal: opts.Journal, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws", "/metrics"})))

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(observability.Handler()))
	if opts.Status != nil {
		r.GET("/status", func(c *gin.Context) { c.JSON(http.StatusOK, APIRespond{Result: opts.Status()}) })
	}
	if opts.Events != nil {
		r.GET("/ws/events", gin.WrapH(opts.Events))
	}

	v1 := r.Group("/v1")
	v1.POST("/launch", h.launch)
	v1.POST("/trade", h.trade)
	v1.GET("/quote", h.quote)
	v1.POST("/sweep", h.sweep)

	v1.GET("/pools/:mint", h.pool)
	v1.POST("/pools/:mint/liquidity", h.addLiquidity)
	v1.POST("/pools/:mint/withdraw", h.withdraw)

	v1.GET("/tokens", h.tokens)
	v1.GET("/tokens/:mint", h.tracker)
	v1.POST("/tokens/:mint/check", h.check)

	v1.GET("/vaults/:mint", h.vault)
	v1.POST("/vaults/:mint/liquidate", h.liquidate)
	v1.POST("/vaults/:mint/claims", h.claimHolderShare)

	v1.POST("/distributions", h.openDistribution)
	v1.GET("/distributions/:address", h.distribution)
	v1.POST("/distributions/:address/fund", h.fund)
	v1.POST("/distributions/:address/seal", h.seal)
	v1.POST("/distributions/:address/claims", h.claim)
	v1.GET("/distributions/:address/claims/:claimant", h.claimRecord)
	v1.POST("/distributions/:address/winners", h.recordWinner)
	v1.POST("/distributions/:address/prize-claims", h.claimPrize)

	v1.GET("/balances/:owner/:asset", h.balance)
	if opts.Journal != nil {
		v1.GET("/events", h.events)
	}
	if opts.EnableFaucet {
		v1.POST("/faucet", h.faucet)
	}
	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// bind decodes the JSON body into v, answering 400 on failure.
func bind(c *gin.Context, v interface{}) bool {
	if err := json.NewDecoder(c.Request.Body).Decode(v); err != nil {
		fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), buildGinErrorRespond(err))
}

func ok(c *gin.Context, result interface{}) {
	c.JSON(http.StatusOK, APIRespond{Result: result})
}

func queryUint(c *gin.Context, key string) (uint64, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errBadRequest, key, err)
	}
	return n, nil
}
