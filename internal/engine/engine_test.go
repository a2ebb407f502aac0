package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ComposesFeeAndQuote(t *testing.T) {
	e := New()
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	s := FeeSchedule{BaseFeeBps: 500, MaxDumpFeeBps: 2500, PrizePoolShareBps: 5000}

	q, err := e.Quote(r, s, TradeRequest{Direction: Buy, InputAmount: big.NewInt(1_000_000)}, 0)
	require.NoError(t, err)
	assert.Equal(t, "9410599", q.OutputAmount.String())
	assert.Equal(t, "50000", q.FeeAmount.String())
	assert.Equal(t, uint32(500), q.EffectiveFeeBps)

	split, err := e.Split(s, q.FeeAmount)
	require.NoError(t, err)
	assert.Equal(t, "25000", split.PrizePoolShare.String())
	assert.Equal(t, "25000", split.TreasuryShare.String())

	p, err := e.Price(r)
	require.NoError(t, err)
	assert.Equal(t, "100000000", p.String())
}

func TestEngine_Fee(t *testing.T) {
	var e Engine
	r := reserves(0, 0, 1_000_000)

	fee, err := e.Fee(r, dumpSchedule(), TradeRequest{Direction: Sell, InputAmount: big.NewInt(50_000)}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1100), fee)
}

func TestEngine_CustomScale(t *testing.T) {
	e := &Engine{PriceScale: big.NewInt(1_000_000)}
	p, err := e.Price(reserves(0, 100_000_000, 1_000_000_000))
	require.NoError(t, err)
	assert.Equal(t, "100000", p.String())
}
