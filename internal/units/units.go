// Package units converts between human-readable token amounts ("1.25") and
// integer base units for a token with a fixed number of decimals.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/shopspring/decimal"
)

// MaxDecimals bounds the decimals a token may declare.
const MaxDecimals = 36

var (
	ErrTooPrecise      = errors.New("amount has more fractional digits than the token supports")
	ErrInvalidDecimals = errors.New("token decimals out of range")
)

// ToBaseUnits parses a human amount and scales it by 10^decimals. Negative
// amounts return engine.ErrNegativeAmount so callers see one error for both
// entry points.
func ToBaseUnits(human string, decimals uint8) (*big.Int, error) {
	if decimals > MaxDecimals {
		return nil, ErrInvalidDecimals
	}
	d, err := decimal.NewFromString(strings.TrimSpace(human))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrInvalidAmount, err)
	}
	if d.IsNegative() {
		return nil, engine.ErrNegativeAmount
	}

	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrTooPrecise
	}
	return scaled.BigInt(), nil
}

// FromBaseUnits renders base units as a human amount with trailing zeros
// trimmed, e.g. 1500000 with 6 decimals is "1.5".
func FromBaseUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// PriceToDecimal renders a fixed-point spot price (scaled by
// engine.DefaultPriceScale) as a decimal quote-per-base figure, adjusting for
// the two tokens' decimals.
func PriceToDecimal(price *big.Int, baseDecimals, quoteDecimals uint8) decimal.Decimal {
	if price == nil {
		return decimal.Zero
	}
	exp := -int32(engine.DefaultPriceScaleExp) - int32(quoteDecimals) + int32(baseDecimals)
	return decimal.NewFromBigInt(price, exp)
}
