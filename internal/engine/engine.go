package engine

import "math/big"

// Engine bundles the pricer, fee engine and quote engine behind one value so
// callers can carry a configured price scale around. The zero value uses
// DefaultPriceScale. Engine holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	PriceScale *big.Int
}

// New returns an Engine with the default price scale.
func New() *Engine {
	return &Engine{PriceScale: DefaultPriceScale()}
}

// Price is Price at the engine's scale.
func (e *Engine) Price(r ReserveState) (*big.Int, error) {
	return Price(r, e.scale())
}

// Quote prices req against r using the schedule's effective fee at nowMs.
func (e *Engine) Quote(r ReserveState, s FeeSchedule, req TradeRequest, nowMs uint64) (*Quote, error) {
	return QuoteTrade(r, s, req, nowMs)
}

// Fee returns the effective fee rate for req at nowMs.
func (e *Engine) Fee(r ReserveState, s FeeSchedule, req TradeRequest, nowMs uint64) (uint32, error) {
	return EffectiveFeeBps(s, req.Direction, req.InputAmount, r.CirculatingSupply, nowMs)
}

// Split divides feeAmount per the schedule's prize pool share.
func (e *Engine) Split(s FeeSchedule, feeAmount *big.Int) (*FeeSplit, error) {
	return SplitFee(feeAmount, s.PrizePoolShareBps)
}

func (e *Engine) scale() *big.Int {
	if e == nil || e.PriceScale == nil {
		return defaultPriceScale
	}
	return e.PriceScale
}
