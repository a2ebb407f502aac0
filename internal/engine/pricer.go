package engine

import "math/big"

// Price returns floor(quoteAssetReserve * scale / circulatingSupply): the
// quote-asset value of one circulating base unit, in fixed point. A nil scale
// means DefaultPriceScale. A pool with zero supply prices at zero.
func Price(r ReserveState, scale *big.Int) (*big.Int, error) {
	if scale == nil {
		scale = defaultPriceScale
	}
	if scale.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	quote, err := nonNegative(r.QuoteAssetReserve)
	if err != nil {
		return nil, err
	}
	supply, err := nonNegative(r.CirculatingSupply)
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return new(big.Int), nil
	}

	out := new(big.Int).Mul(quote, scale)
	return out.Quo(out, supply), nil
}

// SpotPrice is Price at DefaultPriceScale.
func SpotPrice(r ReserveState) (*big.Int, error) {
	return Price(r, defaultPriceScale)
}

// MarketValue values baseAmount at the current spot price:
// floor(baseAmount * Price(r, scale) / scale). It truncates twice, once in
// the price and once here, matching how positions are valued client-side.
func MarketValue(r ReserveState, baseAmount *big.Int) (*big.Int, error) {
	amount, err := nonNegative(baseAmount)
	if err != nil {
		return nil, err
	}
	price, err := SpotPrice(r)
	if err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(amount, price)
	return out.Quo(out, defaultPriceScale), nil
}

// PriceImpactBps compares amountOut to the output the trade would have
// received at the pre-trade reserve ratio and returns the shortfall in basis
// points (floor). Empty pools and zero-sized trades report zero impact.
func PriceImpactBps(r ReserveState, dir Direction, amountIn, amountOut *big.Int) (uint32, error) {
	in, err := nonNegative(amountIn)
	if err != nil {
		return 0, err
	}
	out, err := nonNegative(amountOut)
	if err != nil {
		return 0, err
	}
	reserveIn, reserveOut, err := sides(r, dir)
	if err != nil {
		return 0, err
	}
	if reserveIn.Sign() == 0 || in.Sign() == 0 {
		return 0, nil
	}

	// ideal = in * reserveOut / reserveIn
	ideal := new(big.Int).Mul(in, reserveOut)
	ideal.Quo(ideal, reserveIn)
	if ideal.Sign() == 0 || out.Cmp(ideal) >= 0 {
		return 0, nil
	}

	shortfall := new(big.Int).Sub(ideal, out)
	shortfall.Mul(shortfall, bpsDenom)
	shortfall.Quo(shortfall, ideal)
	return uint32(shortfall.Uint64()), nil
}

// sides orders the reserves as (in, out) for a trade direction.
func sides(r ReserveState, dir Direction) (reserveIn, reserveOut *big.Int, err error) {
	base, err := nonNegative(r.BaseAssetReserve)
	if err != nil {
		return nil, nil, err
	}
	quote, err := nonNegative(r.QuoteAssetReserve)
	if err != nil {
		return nil, nil, err
	}
	switch dir {
	case Buy:
		return quote, base, nil
	case Sell:
		return base, quote, nil
	default:
		return nil, nil, ErrUnknownDirection
	}
}
