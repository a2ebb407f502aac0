package server

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/ai"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/quoter"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/schedules"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/units"
)

// QuoteService is the slice of *quoter.Service the handlers use
type QuoteService interface {
	Mode() quoter.Mode
	Pools() []registry.Pool
	Price(ctx context.Context, name string) (*quoter.PriceResult, error)
	MarketValue(ctx context.Context, name string, baseAmount *big.Int) (*big.Int, error)
	EffectiveFee(ctx context.Context, name string, dir engine.Direction, amount *big.Int) (uint32, error)
	SplitFee(ctx context.Context, name string, feeAmount *big.Int) (*engine.FeeSplit, error)
	Quote(ctx context.Context, req quoter.QuoteRequest) (*quoter.QuoteResult, error)
}

// ScheduleStore is the slice of *schedules.Store the handlers use
type ScheduleStore interface {
	Upsert(ctx context.Context, pool string, schedule engine.FeeSchedule) (*schedules.Override, error)
	Get(ctx context.Context, pool string) (*schedules.Override, error)
	List(ctx context.Context) ([]*schedules.Override, error)
	Delete(ctx context.Context, pool string) error
}

// RecentQuotes reads the recent quote feed
type RecentQuotes interface {
	GetRecentQuotes(ctx context.Context, limit int64) ([]*models.QuoteEvent, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Quoter       QuoteService   // Pricing, fees and quotes
	Schedules    ScheduleStore  // Redis-backed fee schedule overrides (optional)
	Recent       RecentQuotes   // Redis-backed recent quote feed (optional)
	AI           *ai.Agent      // AI agent for natural language queries (optional)
	AIBaseConfig ai.AgentConfig // Base configuration for AI agents
	Metrics      http.Handler   // Prometheus exposition handler (optional)
	DevMode      bool           // Enable detailed error responses in development
	Logger       *logrus.Logger // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// quoteErr maps service errors onto HTTP status codes
func (h *Handlers) quoteErr(c echo.Context, err error) error {
	var div *quoter.DivergenceError
	switch {
	case errors.Is(err, registry.ErrPoolNotFound):
		return h.err(c, http.StatusNotFound, "pool not found", nil)
	case errors.As(err, &div):
		return h.err(c, http.StatusConflict, "quote diverged from authoritative simulation", divergenceResponse(div))
	case errors.Is(err, quoter.ErrSimulationFailed):
		return h.err(c, http.StatusBadGateway, "authoritative simulation failed", map[string]any{"err": err.Error()})
	case errors.Is(err, chain.ErrAccountNotFound),
		errors.Is(err, chain.ErrBadDiscriminator),
		errors.Is(err, chain.ErrShortAccount):
		return h.err(c, http.StatusBadGateway, "failed to read pool state", map[string]any{"err": err.Error()})
	case isBadInput(err):
		return h.err(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		return h.err(c, http.StatusGatewayTimeout, "timed out", nil)
	}

	h.Logger.WithError(err).Error("request failed")
	return h.err(c, http.StatusInternalServerError, "internal server error", map[string]any{"err": err.Error()})
}

func isBadInput(err error) bool {
	for _, target := range []error{
		engine.ErrNegativeAmount,
		engine.ErrInvalidAmount,
		engine.ErrUnknownDirection,
		engine.ErrBpsOutOfRange,
		engine.ErrShareExceedsTotal,
		engine.ErrInconsistentSchedule,
		units.ErrTooPrecise,
		units.ErrInvalidDecimals,
		quoter.ErrSlippageTooHigh,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true, Mode: string(h.Quoter.Mode())})
}

// Pools lists configured pools
func (h *Handlers) Pools(c echo.Context) error {
	pools := h.Quoter.Pools()
	items := make([]PoolResponse, 0, len(pools))
	for _, p := range pools {
		items = append(items, poolResponse(p))
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Price returns the spot price of a pool
func (h *Handlers) Price(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Quoter.Price(ctx, name)
	if err != nil {
		return h.quoteErr(c, err)
	}
	return c.JSON(http.StatusOK, PriceResponse{
		Pool:         res.Pool,
		SpotPrice:    res.SpotPrice.String(),
		PriceDisplay: res.PriceDisplay,
		Slot:         res.Slot,
	})
}

// MarketValue values ?amount= base units of the pool's base asset at spot
func (h *Handlers) MarketValue(c echo.Context) error {
	name := strings.TrimSpace(c.Param("name"))
	amount, err := engine.ParseAmount(strings.TrimSpace(c.QueryParam("amount")))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "non-negative integer base units"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Quoter.MarketValue(ctx, name, amount)
	if err != nil {
		return h.quoteErr(c, err)
	}
	return c.JSON(http.StatusOK, MarketValueResponse{Pool: name, BaseAmount: amount.String(), Value: v.String()})
}

// RecentQuotes returns the most recent quotes with optional limit parameter
// Accepts limit query parameter (default: 50, range: 1-100)
func (h *Handlers) RecentQuotes(c echo.Context) error {
	if h.Recent == nil {
		return h.err(c, http.StatusServiceUnavailable, "quote feed is not configured", nil)
	}

	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 100 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Recent.GetRecentQuotes(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get quotes", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// AIAsk processes natural language questions about quote history using AI
// Supports optional model override for one-off requests
// Returns SQL query and answer with execution time
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	// Use default AI agent or create temporary one with custom model
	agent := h.AI
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		agent = a
		defer func() {
			_ = a.Close() // Clean up temporary agent
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}

// findPool looks a pool up in the configured list
func (h *Handlers) findPool(name string) (registry.Pool, bool) {
	for _, p := range h.Quoter.Pools() {
		if p.Name == name {
			return p, true
		}
	}
	return registry.Pool{}, false
}
