// Package chain reads trading pool state from Solana and converts it into
// engine inputs.
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
)

var (
	ErrAccountNotFound  = errors.New("pool account not found")
	ErrShortAccount     = errors.New("pool account data too short")
	ErrBadDiscriminator = errors.New("account is not a trading pool")
)

// AccountFetcher is the slice of *rpc.Client the reader needs.
type AccountFetcher interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

// PoolState is one pool read at a given slot.
type PoolState struct {
	Account   solana.PublicKey    `json:"account"`
	Reserves  engine.ReserveState `json:"reserves"`
	Schedule  engine.FeeSchedule  `json:"schedule"`
	Slot      uint64              `json:"slot"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// ReaderConfig holds configuration for the state reader
type ReaderConfig struct {
	Fetcher    AccountFetcher
	Commitment rpc.CommitmentType
	Timeout    time.Duration
	Logger     *logrus.Logger
}

// Reader fetches and decodes pool accounts
type Reader struct {
	fetcher    AccountFetcher
	commitment rpc.CommitmentType
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewReader creates a reader; an empty commitment means "confirmed".
func NewReader(cfg ReaderConfig) (*Reader, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("account fetcher is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Reader{
		fetcher:    cfg.Fetcher,
		commitment: cfg.Commitment,
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
	}, nil
}

// NewRPCReader dials rpcURL with solana-go's JSON-RPC client.
func NewRPCReader(rpcURL string, timeout time.Duration, logger *logrus.Logger) (*Reader, error) {
	return NewReader(ReaderConfig{
		Fetcher: rpc.New(rpcURL),
		Timeout: timeout,
		Logger:  logger,
	})
}

// FetchPool reads one pool account. The fee schedule is validated here, at
// load time, so the engine never sees an ill-defined configuration.
func (r *Reader) FetchPool(ctx context.Context, account solana.PublicKey) (*PoolState, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.fetcher.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: r.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) || (err == nil && (out == nil || out.Value == nil)) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", account, err)
	}

	acct, err := DecodePoolAccount(out.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", account, err)
	}

	schedule := acct.Schedule()
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("pool %s fee schedule: %w", account, err)
	}

	r.logger.WithFields(logrus.Fields{
		"account": account.String(),
		"slot":    out.Context.Slot,
	}).Debug("fetched pool state")

	return &PoolState{
		Account:   account,
		Reserves:  acct.Reserves(),
		Schedule:  schedule,
		Slot:      out.Context.Slot,
		FetchedAt: time.Now().UTC(),
	}, nil
}
