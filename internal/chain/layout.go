package chain

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
)

// PoolAccountDiscriminator prefixes every trading pool account:
// sha256("account:TradingPool")[:8].
var PoolAccountDiscriminator = accountDiscriminator("TradingPool")

// PoolAccountSize is the borsh-encoded size of PoolAccount.
const PoolAccountSize = 8 + 3*8 + 5*4 + 8 + 4

// PoolAccount is the on-chain layout of a trading pool (borsh, little endian).
type PoolAccount struct {
	Discriminator     [8]byte
	BaseReserve       uint64
	QuoteReserve      uint64
	CirculatingSupply uint64
	BaseFeeBps        uint32
	DumpThresholdBps  uint32
	DumpSlopeBps      uint32
	MaxDumpFeeBps     uint32
	SurgeFeeBps       uint32
	SurgeFeeExpiryMs  uint64
	PrizePoolShareBps uint32
}

// DecodePoolAccount parses raw account data.
func DecodePoolAccount(data []byte) (*PoolAccount, error) {
	if len(data) < PoolAccountSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortAccount, len(data))
	}
	var acct PoolAccount
	if err := bin.NewBorshDecoder(data).Decode(&acct); err != nil {
		return nil, fmt.Errorf("decode pool account: %w", err)
	}
	if acct.Discriminator != PoolAccountDiscriminator {
		return nil, ErrBadDiscriminator
	}
	return &acct, nil
}

// EncodePoolAccount is the inverse of DecodePoolAccount; the discriminator is
// always written as PoolAccountDiscriminator.
func EncodePoolAccount(acct PoolAccount) ([]byte, error) {
	acct.Discriminator = PoolAccountDiscriminator
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(&acct); err != nil {
		return nil, fmt.Errorf("encode pool account: %w", err)
	}
	return buf.Bytes(), nil
}

// Reserves converts the account's reserve fields into an engine snapshot.
func (a *PoolAccount) Reserves() engine.ReserveState {
	return engine.ReserveState{
		BaseAssetReserve:  new(big.Int).SetUint64(a.BaseReserve),
		QuoteAssetReserve: new(big.Int).SetUint64(a.QuoteReserve),
		CirculatingSupply: new(big.Int).SetUint64(a.CirculatingSupply),
	}
}

// Schedule converts the account's fee fields into an engine schedule.
func (a *PoolAccount) Schedule() engine.FeeSchedule {
	return engine.FeeSchedule{
		BaseFeeBps:        a.BaseFeeBps,
		DumpThresholdBps:  a.DumpThresholdBps,
		DumpSlopeBps:      a.DumpSlopeBps,
		MaxDumpFeeBps:     a.MaxDumpFeeBps,
		SurgeFeeBps:       a.SurgeFeeBps,
		SurgeFeeExpiryMs:  a.SurgeFeeExpiryMs,
		PrizePoolShareBps: a.PrizePoolShareBps,
	}
}

func accountDiscriminator(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var out [8]byte
	copy(out[:], sum[:8])
	return out
}
