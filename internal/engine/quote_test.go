package engine

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteBuy_ReferenceScenario(t *testing.T) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	out, err := QuoteBuy(r, big.NewInt(1_000_000), 500)
	require.NoError(t, err)
	// afterFee = 950_000; 1e9 * 950_000 / (1e8 + 950_000)
	assert.Equal(t, "9410599", out.String())
}

func TestQuoteSell_ReferenceScenario(t *testing.T) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	out, err := QuoteSell(r, big.NewInt(50_000), 1_100)
	require.NoError(t, err)
	// afterFee = 44_500; 1e8 * 44_500 / (1e9 + 44_500)
	assert.Equal(t, "4449", out.String())
}

func TestQuote_ZeroInput(t *testing.T) {
	r := reserves(1_000, 1_000, 1_000)
	out, err := QuoteBuy(r, big.NewInt(0), 500)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())

	out, err = QuoteSell(r, nil, 500)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())
}

func TestQuote_EmptyPool(t *testing.T) {
	out, err := QuoteBuy(reserves(1_000, 1_000, 0), big.NewInt(100), 0)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())

	out, err = QuoteSell(reserves(0, 0, 1_000), big.NewInt(100), 0)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())
}

func TestQuote_FullFeeYieldsNothing(t *testing.T) {
	r := reserves(1_000, 1_000, 1_000)
	for _, bps := range []uint32{BpsDenominator, BpsDenominator + 1, 4_000_000_000} {
		out, err := QuoteBuy(r, big.NewInt(100), bps)
		require.NoError(t, err)
		assert.Zero(t, out.Sign(), "bps %d", bps)
	}
}

func TestQuote_NegativeInputs(t *testing.T) {
	r := reserves(1_000, 1_000, 1_000)
	_, err := QuoteBuy(r, big.NewInt(-1), 0)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = QuoteSell(reserves(-1, 1_000, 1_000), big.NewInt(1), 0)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestQuote_NeverDrainsPool(t *testing.T) {
	huge, _ := new(big.Int).SetString("1000000000000000000000000000000000000", 10)
	r := reserves(1_000_000, 2_000_000, 1_000_000)

	buy, err := QuoteBuy(r, huge, 0)
	require.NoError(t, err)
	assert.Equal(t, -1, buy.Cmp(r.BaseAssetReserve))

	sell, err := QuoteSell(r, huge, 0)
	require.NoError(t, err)
	assert.Equal(t, -1, sell.Cmp(r.QuoteAssetReserve))

	rng := rand.New(rand.NewSource(13))
	for i := 0; i < 1_000; i++ {
		rr := reserves(rng.Int63n(1<<50)+1, rng.Int63n(1<<50)+1, rng.Int63n(1<<50)+1)
		in := new(big.Int).Rand(rng, new(big.Int).Lsh(big.NewInt(1), 80))
		fee := uint32(rng.Intn(BpsDenominator))

		out, err := QuoteBuy(rr, in, fee)
		require.NoError(t, err)
		require.Equal(t, -1, out.Cmp(rr.BaseAssetReserve))

		out, err = QuoteSell(rr, in, fee)
		require.NoError(t, err)
		require.Equal(t, -1, out.Cmp(rr.QuoteAssetReserve))
	}
}

func TestQuote_RoundTripNeverProfits(t *testing.T) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	bought, err := QuoteBuy(r, big.NewInt(1_000_000), 500)
	require.NoError(t, err)
	back, err := QuoteSell(r, bought, 500)
	require.NoError(t, err)
	assert.Equal(t, "886085", back.String())

	rng := rand.New(rand.NewSource(17))
	for i := 0; i < 2_000; i++ {
		rr := reserves(rng.Int63n(1<<55)+1, rng.Int63n(1<<55)+1, rng.Int63n(1<<55)+1)
		x := big.NewInt(rng.Int63n(1<<50) + 1)
		fee := uint32(rng.Intn(BpsDenominator + 1))

		out, err := QuoteBuy(rr, x, fee)
		require.NoError(t, err)
		back, err := QuoteSell(rr, out, fee)
		require.NoError(t, err)
		require.LessOrEqual(t, back.Cmp(x), 0, "reserves=%v x=%s fee=%d", rr, x, fee)
	}
}

func TestQuoteTrade(t *testing.T) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	s := dumpSchedule()

	q, err := QuoteTrade(r, s, TradeRequest{Direction: Buy, InputAmount: big.NewInt(1_000_000)}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(500), q.EffectiveFeeBps)
	assert.Equal(t, "9410599", q.OutputAmount.String())
	assert.Equal(t, "50000", q.FeeAmount.String())

	// 50_000_000 of 1e9 supply is 500 bps: same anti-dump outcome as the small pool
	q, err = QuoteTrade(r, s, TradeRequest{Direction: Sell, InputAmount: big.NewInt(50_000_000)}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1_100), q.EffectiveFeeBps)
	assert.Equal(t, "5500000", q.FeeAmount.String())
	want, err := QuoteSell(r, big.NewInt(50_000_000), 1_100)
	require.NoError(t, err)
	assert.Equal(t, 0, q.OutputAmount.Cmp(want))
}

func TestQuoteTrade_EmptyPoolChargesNoFee(t *testing.T) {
	r := reserves(1_000, 1_000, 0)
	for _, dir := range []Direction{Buy, Sell} {
		q, err := QuoteTrade(r, dumpSchedule(), TradeRequest{Direction: dir, InputAmount: big.NewInt(1_000_000)}, 0)
		require.NoError(t, err)
		assert.Zero(t, q.OutputAmount.Sign(), dir.String())
		assert.Zero(t, q.FeeAmount.Sign(), dir.String())
	}
}

func TestQuoteTrade_Errors(t *testing.T) {
	s := dumpSchedule()
	_, err := QuoteTrade(ReserveState{}, s, TradeRequest{Direction: Buy, InputAmount: big.NewInt(1)}, 0)
	assert.ErrorIs(t, err, ErrMissingReserve)

	_, err = QuoteTrade(reserves(1, 1, 1), s, TradeRequest{InputAmount: big.NewInt(1)}, 0)
	assert.ErrorIs(t, err, ErrUnknownDirection)

	_, err = QuoteTrade(reserves(1, 1, 1), s, TradeRequest{Direction: Sell, InputAmount: big.NewInt(-5)}, 0)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestApplySlippage(t *testing.T) {
	out, err := ApplySlippage(big.NewInt(1_000), 100)
	require.NoError(t, err)
	assert.Equal(t, "990", out.String())

	out, err = ApplySlippage(big.NewInt(999), 1)
	require.NoError(t, err)
	assert.Equal(t, "998", out.String())

	out, err = ApplySlippage(big.NewInt(1_000), BpsDenominator)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" 123456789012345678901234567890 ")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", v.String())

	_, err = ParseAmount("-1")
	assert.ErrorIs(t, err, ErrNegativeAmount)

	for _, bad := range []string{"", "1.5", "abc", "0x10"} {
		_, err = ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", bad)
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("sell")
	require.NoError(t, err)
	assert.Equal(t, Sell, d)
	assert.Equal(t, "sell", d.String())

	_, err = ParseDirection("hold")
	assert.ErrorIs(t, err, ErrUnknownDirection)
}
