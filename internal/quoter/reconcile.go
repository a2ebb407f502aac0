package quoter

import (
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
)

// reconcile compares the local quote with the authoritative one and returns
// a DivergenceError when they disagree. The divergence is logged and counted
// here; persistence happens with the quote record.
func (s *Service) reconcile(view *PoolView, req QuoteRequest, local, auth engine.Quote) *DivergenceError {
	diff := diffBps(local.OutputAmount, auth.OutputAmount)
	if diff <= s.tolerance && local.EffectiveFeeBps == auth.EffectiveFeeBps {
		return nil
	}

	d := &DivergenceError{
		Pool:          view.Pool.Name,
		Direction:     req.Direction.String(),
		InputAmount:   new(big.Int).Set(req.InputAmount),
		Local:         local,
		Authoritative: auth,
		DiffBps:       diff,
	}

	s.metrics.Divergence(d.Pool, d.Direction)
	s.logger.WithFields(logrus.Fields{
		"pool":                  d.Pool,
		"direction":             d.Direction,
		"input":                 d.InputAmount.String(),
		"local_output":          local.OutputAmount.String(),
		"authoritative_output":  auth.OutputAmount.String(),
		"local_fee_bps":         local.EffectiveFeeBps,
		"authoritative_fee_bps": auth.EffectiveFeeBps,
		"diff_bps":              diff,
		"schedule_overridden":   view.Overridden,
		"slot":                  view.State.Slot,
	}).Error("local quote diverged from authoritative simulation")

	return d
}

// diffBps is ceil(|a - b| * 10000 / b), so any nonzero difference is at
// least 1 bps. A zero reference reports 0 when both are zero and 10000
// otherwise. The result saturates at math.MaxUint32.
func diffBps(a, b *big.Int) uint32 {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	delta := new(big.Int).Sub(a, b)
	delta.Abs(delta)
	if delta.Sign() == 0 {
		return 0
	}
	if b.Sign() == 0 {
		return engine.BpsDenominator
	}

	ref := new(big.Int).Abs(b)
	num := delta.Mul(delta, big.NewInt(engine.BpsDenominator))
	num.Add(num, new(big.Int).Sub(ref, big.NewInt(1)))
	num.Quo(num, ref)
	if !num.IsUint64() || num.Uint64() > 1<<32-1 {
		return 1<<32 - 1
	}
	return uint32(num.Uint64())
}
