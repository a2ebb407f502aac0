package units

import (
	"math/big"
	"testing"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"1", 6, "1000000"},
		{"1.5", 6, "1500000"},
		{"0.000001", 6, "1"},
		{"0", 9, "0"},
		{"123456789.123456789", 9, "123456789123456789"},
		{" 2 ", 0, "2"},
	}
	for _, tt := range tests {
		got, err := ToBaseUnits(tt.in, tt.decimals)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got.String(), tt.in)
	}
}

func TestToBaseUnits_Errors(t *testing.T) {
	_, err := ToBaseUnits("-1", 6)
	assert.ErrorIs(t, err, engine.ErrNegativeAmount)

	_, err = ToBaseUnits("0.0000001", 6)
	assert.ErrorIs(t, err, ErrTooPrecise)

	_, err = ToBaseUnits("abc", 6)
	assert.ErrorIs(t, err, engine.ErrInvalidAmount)

	_, err = ToBaseUnits("1", MaxDecimals+1)
	assert.ErrorIs(t, err, ErrInvalidDecimals)
}

func TestFromBaseUnits(t *testing.T) {
	assert.Equal(t, "1.5", FromBaseUnits(big.NewInt(1_500_000), 6))
	assert.Equal(t, "0.000001", FromBaseUnits(big.NewInt(1), 6))
	assert.Equal(t, "42", FromBaseUnits(big.NewInt(42), 0))
	assert.Equal(t, "0", FromBaseUnits(nil, 6))
}

func TestPriceToDecimal(t *testing.T) {
	// 1e8 quote per 1e9 base units at scale 1e9 -> 0.1 quote unit per base unit.
	// With base 9 decimals and quote 6 decimals one whole base token is 100 whole quote tokens.
	d := PriceToDecimal(big.NewInt(100_000_000), 9, 6)
	assert.Equal(t, "100", d.String())
}
