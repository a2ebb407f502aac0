package engine

import (
	"math/big"
	"strings"
)

// ParseAmount parses a base-10 integer numeral into base units. A leading
// minus sign yields ErrNegativeAmount; anything else unparsable yields
// ErrInvalidAmount.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidAmount
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ErrInvalidAmount
	}
	if v.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	return v, nil
}

// nonNegative returns v, or zero when v is nil, rejecting negatives.
func nonNegative(v *big.Int) (*big.Int, error) {
	if v == nil {
		return new(big.Int), nil
	}
	if v.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	return v, nil
}

// bpsOf returns floor(amount * bps / 10000).
func bpsOf(amount *big.Int, bps uint32) *big.Int {
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(uint64(bps)))
	return out.Quo(out, bpsDenom)
}
