package server

import (
	"time"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/quoter"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
)

// Amounts cross the wire as base-10 strings so clients never lose precision.

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK   bool   `json:"ok"`   // Service health status
	Mode string `json:"mode"` // Quote mode: local or authoritative
}

// PoolResponse is one configured pool
type PoolResponse struct {
	Name          string `json:"name"`
	Account       string `json:"account"`
	BaseSymbol    string `json:"base_symbol"`
	QuoteSymbol   string `json:"quote_symbol"`
	BaseDecimals  uint8  `json:"base_decimals"`
	QuoteDecimals uint8  `json:"quote_decimals"`
}

func poolResponse(p registry.Pool) PoolResponse {
	return PoolResponse{
		Name:          p.Name,
		Account:       p.Account.String(),
		BaseSymbol:    p.BaseSymbol,
		QuoteSymbol:   p.QuoteSymbol,
		BaseDecimals:  p.BaseDecimals,
		QuoteDecimals: p.QuoteDecimals,
	}
}

// PriceResponse represents a pool's spot price
type PriceResponse struct {
	Pool         string `json:"pool"`
	SpotPrice    string `json:"spot_price"`    // Quote units per base unit, scaled by 1e9
	PriceDisplay string `json:"price_display"` // Quote tokens per base token
	Slot         uint64 `json:"slot"`
}

// MarketValueResponse values a base asset position at spot
type MarketValueResponse struct {
	Pool       string `json:"pool"`
	BaseAmount string `json:"base_amount"`
	Value      string `json:"value"` // Quote base units
}

// QuoteRequest asks for a buy or sell quote. Exactly one of InputAmount (base
// units) or InputUIAmount (human units of the input token) is set.
type QuoteRequest struct {
	Pool          string  `json:"pool"`
	Direction     string  `json:"direction"` // "buy" or "sell"
	InputAmount   string  `json:"input_amount,omitempty"`
	InputUIAmount string  `json:"input_ui_amount,omitempty"`
	SlippageBps   *uint32 `json:"slippage_bps,omitempty"`
}

// QuoteResponse is a served quote
type QuoteResponse struct {
	ID                    string              `json:"id"`
	Pool                  string              `json:"pool"`
	Direction             string              `json:"direction"`
	InputAmount           string              `json:"input_amount"`
	OutputAmount          string              `json:"output_amount"`
	OutputUIAmount        string              `json:"output_ui_amount"`
	MinOutputAmount       string              `json:"min_output_amount"`
	FeeAmount             string              `json:"fee_amount"`
	EffectiveFeeBps       uint32              `json:"effective_fee_bps"`
	SlippageBps           uint32              `json:"slippage_bps"`
	PriceImpactBps        uint32              `json:"price_impact_bps"`
	ExceedsMaxPriceImpact bool                `json:"exceeds_max_price_impact"`
	Split                 FeeSplitResponse    `json:"split"`
	SpotPrice             string              `json:"spot_price"`
	Slot                  uint64              `json:"slot"`
	Source                string              `json:"source"`
	Divergence            *DivergenceResponse `json:"divergence,omitempty"`
}

// DivergenceResponse reports a local/authoritative mismatch
type DivergenceResponse struct {
	LocalOutput         string `json:"local_output"`
	AuthoritativeOutput string `json:"authoritative_output"`
	LocalFeeBps         uint32 `json:"local_fee_bps"`
	AuthoritativeFeeBps uint32 `json:"authoritative_fee_bps"`
	DiffBps             uint32 `json:"diff_bps"`
}

func divergenceResponse(d *quoter.DivergenceError) *DivergenceResponse {
	if d == nil {
		return nil
	}
	return &DivergenceResponse{
		LocalOutput:         d.Local.OutputAmount.String(),
		AuthoritativeOutput: d.Authoritative.OutputAmount.String(),
		LocalFeeBps:         d.Local.EffectiveFeeBps,
		AuthoritativeFeeBps: d.Authoritative.EffectiveFeeBps,
		DiffBps:             d.DiffBps,
	}
}

// EffectiveFeeRequest asks what fee rate a trade would pay now
type EffectiveFeeRequest struct {
	Pool        string `json:"pool"`
	Direction   string `json:"direction"`
	InputAmount string `json:"input_amount"`
}

// EffectiveFeeResponse is the fee rate and amount for a trade
type EffectiveFeeResponse struct {
	Pool            string `json:"pool"`
	Direction       string `json:"direction"`
	EffectiveFeeBps uint32 `json:"effective_fee_bps"`
	FeeAmount       string `json:"fee_amount"`
}

// FeeSplitRequest asks how a collected fee is divided
type FeeSplitRequest struct {
	Pool      string `json:"pool"`
	FeeAmount string `json:"fee_amount"`
}

// FeeSplitResponse is the prize pool / treasury division of a fee
type FeeSplitResponse struct {
	PrizePoolShare string `json:"prize_pool_share"`
	TreasuryShare  string `json:"treasury_share"`
}

func feeSplitResponse(s engine.FeeSplit) FeeSplitResponse {
	return FeeSplitResponse{
		PrizePoolShare: s.PrizePoolShare.String(),
		TreasuryShare:  s.TreasuryShare.String(),
	}
}

// ScheduleResponse is a stored fee schedule override
type ScheduleResponse struct {
	Pool      string             `json:"pool"`
	Schedule  engine.FeeSchedule `json:"schedule"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about quote history
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
