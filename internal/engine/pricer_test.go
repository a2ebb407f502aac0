package engine

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reserves(base, quote, supply int64) ReserveState {
	return ReserveState{
		BaseAssetReserve:  big.NewInt(base),
		QuoteAssetReserve: big.NewInt(quote),
		CirculatingSupply: big.NewInt(supply),
	}
}

func TestPrice(t *testing.T) {
	p, err := SpotPrice(reserves(1_000_000_000, 100_000_000, 1_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, "100000000", p.String())

	// floor, not round: 2 * 1e9 / 3
	p, err = SpotPrice(reserves(0, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, "666666666", p.String())

	p, err = Price(reserves(0, 7, 2), big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "3", p.String())
}

func TestPrice_ZeroCases(t *testing.T) {
	p, err := SpotPrice(reserves(10, 0, 1_000))
	require.NoError(t, err)
	assert.Zero(t, p.Sign())

	p, err = SpotPrice(reserves(10, 1_000, 0))
	require.NoError(t, err)
	assert.Zero(t, p.Sign())

	p, err = SpotPrice(ReserveState{})
	require.NoError(t, err)
	assert.Zero(t, p.Sign())
}

func TestPrice_Negative(t *testing.T) {
	_, err := SpotPrice(reserves(0, -1, 10))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = SpotPrice(reserves(0, 1, -10))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = Price(reserves(0, 1, 10), big.NewInt(-1))
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestPrice_DefaultScaleWhenNil(t *testing.T) {
	r := reserves(0, 5, 2)
	a, err := Price(r, nil)
	require.NoError(t, err)
	b, err := SpotPrice(r)
	require.NoError(t, err)
	assert.Equal(t, 0, a.Cmp(b))
}

func TestDefaultPriceScale_ReturnsCopy(t *testing.T) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	before, err := SpotPrice(r)
	require.NoError(t, err)

	scale := DefaultPriceScale()
	scale.SetInt64(1)
	New().PriceScale.SetInt64(7)

	assert.Equal(t, "1000000000", DefaultPriceScale().String())
	after, err := SpotPrice(r)
	require.NoError(t, err)
	assert.Equal(t, 0, before.Cmp(after))
}

func TestPrice_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		quote := rng.Int63n(1 << 50)
		supply := rng.Int63n(1<<50) + 1
		dq := rng.Int63n(1 << 40)
		ds := rng.Int63n(1 << 40)

		base, err := SpotPrice(reserves(0, quote, supply))
		require.NoError(t, err)

		moreQuote, err := SpotPrice(reserves(0, quote+dq, supply))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, moreQuote.Cmp(base), 0, "price must not fall as quote reserve grows")

		moreSupply, err := SpotPrice(reserves(0, quote, supply+ds))
		require.NoError(t, err)
		assert.LessOrEqual(t, moreSupply.Cmp(base), 0, "price must not rise as supply grows")
	}
}

func TestPrice_LargeValuesDoNotOverflow(t *testing.T) {
	huge, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10) // 2^128-1
	r := ReserveState{BaseAssetReserve: huge, QuoteAssetReserve: huge, CirculatingSupply: big.NewInt(1)}
	p, err := SpotPrice(r)
	require.NoError(t, err)
	want := new(big.Int).Mul(huge, DefaultPriceScale())
	assert.Equal(t, 0, p.Cmp(want))
}

func TestMarketValue(t *testing.T) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	v, err := MarketValue(r, big.NewInt(5_000))
	require.NoError(t, err)
	// price 0.1 quote per base
	assert.Equal(t, "500", v.String())

	v, err = MarketValue(reserves(1, 1, 0), big.NewInt(5_000))
	require.NoError(t, err)
	assert.Zero(t, v.Sign())

	_, err = MarketValue(r, big.NewInt(-1))
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestPriceImpactBps(t *testing.T) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)

	// ideal out = 1_000_000 * 1e9 / 1e8 = 10_000_000; actual 9_410_599
	impact, err := PriceImpactBps(r, Buy, big.NewInt(1_000_000), big.NewInt(9_410_599))
	require.NoError(t, err)
	assert.Equal(t, uint32(589), impact)

	impact, err = PriceImpactBps(r, Sell, big.NewInt(0), big.NewInt(0))
	require.NoError(t, err)
	assert.Zero(t, impact)

	_, err = PriceImpactBps(r, DirectionUnknown, big.NewInt(1), big.NewInt(1))
	assert.ErrorIs(t, err, ErrUnknownDirection)
}
