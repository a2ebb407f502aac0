// Package simulate asks the authoritative execution endpoint what a trade
// would do right now. It carries no pricing math of its own.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/rpc"
)

const methodSimulateTrade = "simulateTrade"

var ErrMalformedResult = errors.New("malformed simulation result")

// Request is one trade to simulate against a pool account.
type Request struct {
	Pool        solana.PublicKey
	Direction   engine.Direction
	InputAmount *big.Int
}

type params struct {
	Pool        string `json:"pool"`
	Direction   string `json:"direction"`
	InputAmount string `json:"inputAmount"`
}

type result struct {
	OutputAmount    string `json:"outputAmount"`
	FeeAmount       string `json:"feeAmount"`
	EffectiveFeeBps uint32 `json:"effectiveFeeBps"`
	Slot            uint64 `json:"slot"`
}

// Result is the authoritative outcome of a simulated trade.
type Result struct {
	Quote engine.Quote
	Slot  uint64
}

// Config holds configuration for the simulation client
type Config struct {
	URL          string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *logrus.Logger
}

type Client struct {
	rpc    *rpc.Client
	logger *logrus.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("simulation url is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		rpc: rpc.NewClient(rpc.ClientConfig{
			BaseURL:      cfg.URL,
			Timeout:      cfg.Timeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       cfg.Logger,
		}),
		logger: cfg.Logger,
	}, nil
}

// SimulateTrade returns what the authoritative program would pay out for req.
func (c *Client) SimulateTrade(ctx context.Context, req Request) (*Result, error) {
	if req.Direction != engine.Buy && req.Direction != engine.Sell {
		return nil, engine.ErrUnknownDirection
	}
	if req.InputAmount == nil {
		return nil, engine.ErrInvalidAmount
	}
	if req.InputAmount.Sign() < 0 {
		return nil, engine.ErrNegativeAmount
	}

	var res result
	err := c.rpc.Call(ctx, methodSimulateTrade, []params{{
		Pool:        req.Pool.String(),
		Direction:   req.Direction.String(),
		InputAmount: req.InputAmount.String(),
	}}, &res)
	if err != nil {
		return nil, fmt.Errorf("simulate %s on %s: %w", req.Direction, req.Pool, err)
	}

	out, ok := new(big.Int).SetString(res.OutputAmount, 10)
	if !ok || out.Sign() < 0 {
		return nil, fmt.Errorf("%w: outputAmount %q", ErrMalformedResult, res.OutputAmount)
	}
	fee, ok := new(big.Int).SetString(res.FeeAmount, 10)
	if !ok || fee.Sign() < 0 {
		return nil, fmt.Errorf("%w: feeAmount %q", ErrMalformedResult, res.FeeAmount)
	}

	c.logger.WithFields(logrus.Fields{
		"pool":      req.Pool.String(),
		"direction": req.Direction.String(),
		"input":     req.InputAmount.String(),
		"output":    out.String(),
		"slot":      res.Slot,
	}).Debug("simulated trade")

	return &Result{
		Quote: engine.Quote{
			OutputAmount:    out,
			FeeAmount:       fee,
			EffectiveFeeBps: res.EffectiveFeeBps,
		},
		Slot: res.Slot,
	}, nil
}
