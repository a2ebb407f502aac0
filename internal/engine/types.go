// Package engine holds the pool trading math: spot pricing from reserves,
// constant-product quoting, the anti-dump/surge fee schedule and fee splits.
//
// Every quantity is a non-negative *big.Int in base units and every division
// truncates toward zero. Nothing in this package reads a clock, performs I/O
// or keeps state between calls.
package engine

import "math/big"

const (
	// BpsDenominator is 100% expressed in basis points.
	BpsDenominator = 10_000

	// DefaultPriceScaleExp is the power of ten used as the fixed-point scale
	// for spot prices.
	DefaultPriceScaleExp = 9
)

var (
	bpsDenom = big.NewInt(BpsDenominator)

	defaultPriceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(DefaultPriceScaleExp), nil)
)

// DefaultPriceScale returns a fresh copy of 10^9.
func DefaultPriceScale() *big.Int {
	return new(big.Int).Set(defaultPriceScale)
}

// Direction is the side of a trade from the trader's point of view.
type Direction uint8

const (
	DirectionUnknown Direction = iota
	// Buy spends the quote asset to receive the base asset.
	Buy
	// Sell spends the base asset to receive the quote asset.
	Sell
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseDirection accepts "buy" or "sell" (case-sensitive, as sent by clients).
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return DirectionUnknown, ErrUnknownDirection
	}
}

// ReserveState is a point-in-time snapshot of one pool. Callers build a new
// snapshot per query; the engine never mutates one.
type ReserveState struct {
	BaseAssetReserve  *big.Int `json:"base_asset_reserve"`
	QuoteAssetReserve *big.Int `json:"quote_asset_reserve"`
	CirculatingSupply *big.Int `json:"circulating_supply"`
}

// Validate reports ErrNegativeAmount for any negative field and
// ErrMissingReserve for any nil one.
func (r ReserveState) Validate() error {
	for _, v := range []*big.Int{r.BaseAssetReserve, r.QuoteAssetReserve, r.CirculatingSupply} {
		if v == nil {
			return ErrMissingReserve
		}
		if v.Sign() < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// FeeSchedule is the per-pool fee configuration. All *Bps fields are basis
// points; SurgeFeeExpiryMs is a unix timestamp in milliseconds.
type FeeSchedule struct {
	BaseFeeBps        uint32 `json:"base_fee_bps"`
	DumpThresholdBps  uint32 `json:"dump_threshold_bps"`
	DumpSlopeBps      uint32 `json:"dump_slope_bps"`
	MaxDumpFeeBps     uint32 `json:"max_dump_fee_bps"`
	SurgeFeeBps       uint32 `json:"surge_fee_bps"`
	SurgeFeeExpiryMs  uint64 `json:"surge_fee_expiry_ms"`
	PrizePoolShareBps uint32 `json:"prize_pool_share_bps"`
}

// TradeRequest is one buy or sell of InputAmount base units of the asset
// being spent.
type TradeRequest struct {
	Direction   Direction
	InputAmount *big.Int
}

// Quote is the result of pricing a TradeRequest.
type Quote struct {
	OutputAmount    *big.Int `json:"output_amount"`
	FeeAmount       *big.Int `json:"fee_amount"`
	EffectiveFeeBps uint32   `json:"effective_fee_bps"`
}

// FeeSplit divides a collected fee between the prize pool and the treasury.
// PrizePoolShare + TreasuryShare always equals the fee that was split.
type FeeSplit struct {
	PrizePoolShare *big.Int `json:"prize_pool_share"`
	TreasuryShare  *big.Int `json:"treasury_share"`
}
