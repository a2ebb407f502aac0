package engine

import (
	"math/big"
	"testing"
)

func BenchmarkQuoteTrade(b *testing.B) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	s := dumpSchedule()
	req := TradeRequest{Direction: Sell, InputAmount: big.NewInt(50_000_000)}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = QuoteTrade(r, s, req, 0)
	}
}

func BenchmarkSpotPrice(b *testing.B) {
	r := reserves(1_000_000_000, 100_000_000, 1_000_000_000)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = SpotPrice(r)
	}
}
