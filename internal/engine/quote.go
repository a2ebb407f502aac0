package engine

import "math/big"

// QuoteBuy returns the base units received for spending usdcIn quote units:
//
//	afterFee = usdcIn - floor(usdcIn * feeBps / 10000)
//	baseOut  = floor(baseReserve * afterFee / (quoteReserve + afterFee))
func QuoteBuy(r ReserveState, usdcIn *big.Int, feeBps uint32) (*big.Int, error) {
	return quoteConstantProduct(r, Buy, usdcIn, feeBps)
}

// QuoteSell returns the quote units received for selling baseIn base units:
//
//	afterFee = baseIn - floor(baseIn * feeBps / 10000)
//	quoteOut = floor(quoteReserve * afterFee / (baseReserve + afterFee))
func QuoteSell(r ReserveState, baseIn *big.Int, feeBps uint32) (*big.Int, error) {
	return quoteConstantProduct(r, Sell, baseIn, feeBps)
}

// quoteConstantProduct holds x*y=k with the fee taken off the input before it
// enters the pool. The output is always strictly below the output reserve.
// Pools with zero circulating supply quote zero.
func quoteConstantProduct(r ReserveState, dir Direction, amountIn *big.Int, feeBps uint32) (*big.Int, error) {
	in, err := nonNegative(amountIn)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut, err := sides(r, dir)
	if err != nil {
		return nil, err
	}
	supply, err := nonNegative(r.CirculatingSupply)
	if err != nil {
		return nil, err
	}
	// An empty or fully redeemed pool has nothing to trade against.
	if in.Sign() == 0 || supply.Sign() == 0 {
		return new(big.Int), nil
	}

	fee := bpsOf(in, clampBps(feeBps))
	afterFee := new(big.Int).Sub(in, fee)

	denominator := new(big.Int).Add(reserveIn, afterFee)
	if denominator.Sign() == 0 {
		return new(big.Int), nil
	}

	out := new(big.Int).Mul(reserveOut, afterFee)
	return out.Quo(out, denominator), nil
}

// QuoteTrade prices req against the pool: the fee rate comes from the
// schedule at nowMs and is then applied on the constant-product curve.
func QuoteTrade(r ReserveState, s FeeSchedule, req TradeRequest, nowMs uint64) (*Quote, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	feeBps, err := EffectiveFeeBps(s, req.Direction, req.InputAmount, r.CirculatingSupply, nowMs)
	if err != nil {
		return nil, err
	}

	var out *big.Int
	switch req.Direction {
	case Buy:
		out, err = QuoteBuy(r, req.InputAmount, feeBps)
	case Sell:
		out, err = QuoteSell(r, req.InputAmount, feeBps)
	}
	if err != nil {
		return nil, err
	}

	// Nothing trades against an empty pool, so nothing is charged.
	if r.CirculatingSupply.Sign() == 0 {
		return &Quote{OutputAmount: out, FeeAmount: new(big.Int), EffectiveFeeBps: feeBps}, nil
	}

	fee, err := FeeAmount(req.InputAmount, feeBps)
	if err != nil {
		return nil, err
	}

	return &Quote{OutputAmount: out, FeeAmount: fee, EffectiveFeeBps: feeBps}, nil
}

// ApplySlippage returns floor(amountOut * (10000 - slippageBps) / 10000), the
// minimum output a caller should accept. Slippage of 100% or more yields 0.
func ApplySlippage(amountOut *big.Int, slippageBps uint32) (*big.Int, error) {
	out, err := nonNegative(amountOut)
	if err != nil {
		return nil, err
	}
	if slippageBps >= BpsDenominator {
		return new(big.Int), nil
	}
	return bpsOf(out, BpsDenominator-slippageBps), nil
}
