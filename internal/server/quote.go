package server

import (
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/quoter"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/units"
)

// Quote prices a buy or sell on a pool
func (h *Handlers) Quote(c echo.Context) error {
	var req QuoteRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Pool = strings.TrimSpace(req.Pool)

	dir, err := engine.ParseDirection(strings.TrimSpace(req.Direction))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid direction", map[string]any{"direction": "buy or sell"})
	}

	pool, ok := h.findPool(req.Pool)
	if !ok {
		return h.err(c, http.StatusNotFound, "pool not found", nil)
	}

	amount, err := h.inputAmount(req, dir, pool.BaseDecimals, pool.QuoteDecimals)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"err": err.Error()})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	res, err := h.Quoter.Quote(ctx, quoter.QuoteRequest{
		Pool:        req.Pool,
		Direction:   dir,
		InputAmount: amount,
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		return h.quoteErr(c, err)
	}

	outDecimals := pool.BaseDecimals
	if dir == engine.Sell {
		outDecimals = pool.QuoteDecimals
	}

	return c.JSON(http.StatusOK, QuoteResponse{
		ID:                    res.ID,
		Pool:                  res.Pool,
		Direction:             res.Direction,
		InputAmount:           res.InputAmount.String(),
		OutputAmount:          res.Quote.OutputAmount.String(),
		OutputUIAmount:        units.FromBaseUnits(res.Quote.OutputAmount, outDecimals),
		MinOutputAmount:       res.MinOutputAmount.String(),
		FeeAmount:             res.Quote.FeeAmount.String(),
		EffectiveFeeBps:       res.Quote.EffectiveFeeBps,
		SlippageBps:           res.SlippageBps,
		PriceImpactBps:        res.PriceImpactBps,
		ExceedsMaxPriceImpact: res.ExceedsMaxPriceImpact,
		Split:                 feeSplitResponse(res.Split),
		SpotPrice:             res.SpotPrice.String(),
		Slot:                  res.Slot,
		Source:                res.Source,
		Divergence:            divergenceResponse(res.Divergence),
	})
}

// inputAmount resolves the request's amount in base units. Buys spend the
// quote token and sells spend the base token.
func (h *Handlers) inputAmount(req QuoteRequest, dir engine.Direction, baseDecimals, quoteDecimals uint8) (*big.Int, error) {
	raw := strings.TrimSpace(req.InputAmount)
	ui := strings.TrimSpace(req.InputUIAmount)
	switch {
	case raw != "" && ui != "":
		return nil, engine.ErrInvalidAmount
	case raw != "":
		return engine.ParseAmount(raw)
	case ui != "":
		decimals := quoteDecimals
		if dir == engine.Sell {
			decimals = baseDecimals
		}
		return units.ToBaseUnits(ui, decimals)
	default:
		return nil, engine.ErrInvalidAmount
	}
}

// EffectiveFee returns the fee rate a trade would pay right now
func (h *Handlers) EffectiveFee(c echo.Context) error {
	var req EffectiveFeeRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	dir, err := engine.ParseDirection(strings.TrimSpace(req.Direction))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid direction", map[string]any{"direction": "buy or sell"})
	}
	amount, err := engine.ParseAmount(strings.TrimSpace(req.InputAmount))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"input_amount": "non-negative integer base units"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bps, err := h.Quoter.EffectiveFee(ctx, strings.TrimSpace(req.Pool), dir, amount)
	if err != nil {
		return h.quoteErr(c, err)
	}
	fee, err := engine.FeeAmount(amount, bps)
	if err != nil {
		return h.quoteErr(c, err)
	}

	return c.JSON(http.StatusOK, EffectiveFeeResponse{
		Pool:            strings.TrimSpace(req.Pool),
		Direction:       dir.String(),
		EffectiveFeeBps: bps,
		FeeAmount:       fee.String(),
	})
}

// SplitFee divides a collected fee between the prize pool and the treasury
func (h *Handlers) SplitFee(c echo.Context) error {
	var req FeeSplitRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	fee, err := engine.ParseAmount(strings.TrimSpace(req.FeeAmount))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"fee_amount": "non-negative integer base units"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	split, err := h.Quoter.SplitFee(ctx, strings.TrimSpace(req.Pool), fee)
	if err != nil {
		return h.quoteErr(c, err)
	}
	return c.JSON(http.StatusOK, feeSplitResponse(*split))
}
