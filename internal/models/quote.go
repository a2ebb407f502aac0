// ============================================================================
// models/quote.go
// ============================================================================
package models

import "time"

// Quote sources
const (
	SourceLocal         = "local"
	SourceAuthoritative = "authoritative"
)

// QuoteEvent is one priced trade as published to subscribers and stored for
// analytics. Amounts are base-10 strings in base units.
type QuoteEvent struct {
	ID              string    `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	Pool            string    `json:"pool"`
	Direction       string    `json:"direction"` // "buy" or "sell"
	InputAmount     string    `json:"input_amount"`
	OutputAmount    string    `json:"output_amount"`
	MinOutputAmount string    `json:"min_output_amount"`
	FeeAmount       string    `json:"fee_amount"`
	EffectiveFeeBps uint32    `json:"effective_fee_bps"`
	PriceImpactBps  uint32    `json:"price_impact_bps"`
	PrizePoolShare  string    `json:"prize_pool_share"`
	TreasuryShare   string    `json:"treasury_share"`
	SpotPrice       string    `json:"spot_price"`
	Slot            uint64    `json:"slot"`
	Source          string    `json:"source"`
}

// Divergence records a local quote that disagreed with the authoritative
// simulation by more than the configured tolerance.
type Divergence struct {
	Timestamp           time.Time `json:"timestamp"`
	Pool                string    `json:"pool"`
	Direction           string    `json:"direction"`
	InputAmount         string    `json:"input_amount"`
	LocalOutput         string    `json:"local_output"`
	AuthoritativeOutput string    `json:"authoritative_output"`
	LocalFeeBps         uint32    `json:"local_fee_bps"`
	AuthoritativeFeeBps uint32    `json:"authoritative_fee_bps"`
	DiffBps             uint32    `json:"diff_bps"`
}
