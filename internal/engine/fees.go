package engine

import "math/big"

// Validate checks a schedule once at load time so that per-trade calls never
// see an ill-defined configuration. DumpSlopeBps is a multiplier on the
// excess over the threshold and may legitimately exceed 100%.
func (s FeeSchedule) Validate() error {
	for _, bps := range []uint32{s.BaseFeeBps, s.DumpThresholdBps, s.MaxDumpFeeBps, s.SurgeFeeBps} {
		if bps > BpsDenominator {
			return ErrBpsOutOfRange
		}
	}
	if s.PrizePoolShareBps > BpsDenominator {
		return ErrShareExceedsTotal
	}
	if s.MaxDumpFeeBps < s.BaseFeeBps {
		return ErrInconsistentSchedule
	}
	return nil
}

// SurgeActive reports whether the surge override is still live at nowMs.
func (s FeeSchedule) SurgeActive(nowMs uint64) bool {
	return s.SurgeFeeExpiryMs > nowMs
}

// EffectiveFeeBps returns the fee rate charged on a trade:
//
//  1. start at BaseFeeBps;
//  2. for a non-empty sell against a non-empty supply, once the sell's share
//     of supply (in bps) passes DumpThresholdBps, add
//     floor(excess * DumpSlopeBps / 10000) and cap at MaxDumpFeeBps;
//  3. while the surge window is open, raise the result to SurgeFeeBps if that
//     is higher.
//
// Buys never pay the anti-dump term but are subject to surge.
func EffectiveFeeBps(s FeeSchedule, dir Direction, inputAmount, circulatingSupply *big.Int, nowMs uint64) (uint32, error) {
	if dir != Buy && dir != Sell {
		return 0, ErrUnknownDirection
	}
	input, err := nonNegative(inputAmount)
	if err != nil {
		return 0, err
	}
	supply, err := nonNegative(circulatingSupply)
	if err != nil {
		return 0, err
	}

	effective := s.BaseFeeBps

	if dir == Sell && input.Sign() > 0 && supply.Sign() > 0 {
		effective = antiDumpFeeBps(s, input, supply)
	}

	if s.SurgeActive(nowMs) && s.SurgeFeeBps > effective {
		effective = s.SurgeFeeBps
	}
	return effective, nil
}

// antiDumpFeeBps applies step 2 of EffectiveFeeBps. Intermediate values are
// big.Int because a sell many times larger than supply overflows uint32.
func antiDumpFeeBps(s FeeSchedule, input, supply *big.Int) uint32 {
	shareBps := new(big.Int).Mul(input, bpsDenom)
	shareBps.Quo(shareBps, supply)

	threshold := new(big.Int).SetUint64(uint64(s.DumpThresholdBps))
	if shareBps.Cmp(threshold) <= 0 {
		return s.BaseFeeBps
	}

	excess := shareBps.Sub(shareBps, threshold)
	extra := bpsOf(excess, s.DumpSlopeBps)

	total := extra.Add(extra, new(big.Int).SetUint64(uint64(s.BaseFeeBps)))
	if total.Cmp(new(big.Int).SetUint64(uint64(s.MaxDumpFeeBps))) >= 0 {
		return s.MaxDumpFeeBps
	}
	return uint32(total.Uint64())
}

// FeeAmount returns floor(inputAmount * feeBps / 10000), the part of the
// input withheld as fee. feeBps above 10000 is treated as 10000.
func FeeAmount(inputAmount *big.Int, feeBps uint32) (*big.Int, error) {
	input, err := nonNegative(inputAmount)
	if err != nil {
		return nil, err
	}
	return bpsOf(input, clampBps(feeBps)), nil
}

// SplitFee divides feeAmount into floor(feeAmount * prizePoolShareBps / 10000)
// for the prize pool and the remainder for the treasury, so rounding dust
// always lands in the treasury and nothing is lost.
func SplitFee(feeAmount *big.Int, prizePoolShareBps uint32) (*FeeSplit, error) {
	if prizePoolShareBps > BpsDenominator {
		return nil, ErrShareExceedsTotal
	}
	fee, err := nonNegative(feeAmount)
	if err != nil {
		return nil, err
	}

	prize := bpsOf(fee, prizePoolShareBps)
	treasury := new(big.Int).Sub(fee, prize)
	return &FeeSplit{PrizePoolShare: prize, TreasuryShare: treasury}, nil
}

func clampBps(bps uint32) uint32 {
	if bps > BpsDenominator {
		return BpsDenominator
	}
	return bps
}
