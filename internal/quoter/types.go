package quoter

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
)

// Mode selects whether quotes are checked against the authoritative program.
type Mode string

const (
	// ModeLocal computes quotes locally only.
	ModeLocal Mode = "local"
	// ModeAuthoritative computes locally, simulates remotely and serves the
	// simulated result.
	ModeAuthoritative Mode = "authoritative"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLocal, "":
		return ModeLocal, nil
	case ModeAuthoritative:
		return ModeAuthoritative, nil
	default:
		return "", fmt.Errorf("unknown quote mode %q", s)
	}
}

var (
	ErrSlippageTooHigh   = errors.New("slippage exceeds maximum")
	ErrSimulationFailed  = errors.New("authoritative simulation failed")
	ErrSimulatorRequired = errors.New("authoritative mode requires a simulator")
)

// Limits bound what callers may ask for.
type Limits struct {
	DefaultSlippageBps uint32
	MaxSlippageBps     uint32
	// Quotes above this impact are served but flagged.
	MaxPriceImpactBps uint32
}

// DefaultLimits returns conservative limits
func DefaultLimits() Limits {
	return Limits{
		DefaultSlippageBps: 100,  // 1%
		MaxSlippageBps:     1000, // 10%
		MaxPriceImpactBps:  500,  // 5%
	}
}

// PoolView is a pool's registry entry with its state as the engine sees it:
// reserves from chain (or cache) and the schedule after any override.
type PoolView struct {
	Pool       registry.Pool
	State      chain.PoolState
	Overridden bool
}

// PriceResult is a pool's spot price in fixed point and human units.
type PriceResult struct {
	Pool         string   `json:"pool"`
	SpotPrice    *big.Int `json:"spot_price"`
	PriceDisplay string   `json:"price_display"`
	Slot         uint64   `json:"slot"`
}

// QuoteRequest asks for a quote on a named pool.
type QuoteRequest struct {
	Pool        string
	Direction   engine.Direction
	InputAmount *big.Int
	// Nil means Limits.DefaultSlippageBps.
	SlippageBps *uint32
}

// QuoteResult is a served quote with everything a client needs to build the
// transaction and show the fee breakdown.
type QuoteResult struct {
	ID                    string           `json:"id"`
	Pool                  string           `json:"pool"`
	Direction             string           `json:"direction"`
	InputAmount           *big.Int         `json:"input_amount"`
	Quote                 engine.Quote     `json:"quote"`
	MinOutputAmount       *big.Int         `json:"min_output_amount"`
	SlippageBps           uint32           `json:"slippage_bps"`
	PriceImpactBps        uint32           `json:"price_impact_bps"`
	ExceedsMaxPriceImpact bool             `json:"exceeds_max_price_impact"`
	Split                 engine.FeeSplit  `json:"split"`
	SpotPrice             *big.Int         `json:"spot_price"`
	Slot                  uint64           `json:"slot"`
	Source                string           `json:"source"`
	Divergence            *DivergenceError `json:"divergence,omitempty"`
}

// DivergenceError reports a local quote that disagrees with the
// authoritative simulation. Any divergence is a formula bug.
type DivergenceError struct {
	Pool          string       `json:"pool"`
	Direction     string       `json:"direction"`
	InputAmount   *big.Int     `json:"input_amount"`
	Local         engine.Quote `json:"local"`
	Authoritative engine.Quote `json:"authoritative"`
	DiffBps       uint32       `json:"diff_bps"`
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("quote divergence on %s %s %s: local %s @ %d bps, authoritative %s @ %d bps (%d bps apart)",
		e.Pool, e.Direction, e.InputAmount,
		e.Local.OutputAmount, e.Local.EffectiveFeeBps,
		e.Authoritative.OutputAmount, e.Authoritative.EffectiveFeeBps,
		e.DiffBps)
}
