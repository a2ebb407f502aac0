package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

var ErrPoolNotFound = errors.New("pool not found")

// PoolConfig represents a pool entry in the JSON config
type PoolConfig struct {
	Name          string `json:"name"`
	PoolAccount   string `json:"pool_account"`
	BaseSymbol    string `json:"base_symbol"`
	QuoteSymbol   string `json:"quote_symbol"`
	BaseDecimals  uint8  `json:"base_decimals"`
	QuoteDecimals uint8  `json:"quote_decimals"`
}

// Pool represents a parsed, ready-to-use pool entry
type Pool struct {
	Name          string           `json:"name"`
	Account       solana.PublicKey `json:"account"`
	BaseSymbol    string           `json:"base_symbol"`
	QuoteSymbol   string           `json:"quote_symbol"`
	BaseDecimals  uint8            `json:"base_decimals"`
	QuoteDecimals uint8            `json:"quote_decimals"`
}

// Registry holds all configured pools keyed by name
type Registry struct {
	pools map[string]Pool
}

// Load reads and parses pool configurations from a JSON file
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool config: %w", err)
	}

	var configs []PoolConfig
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	return New(configs)
}

// New builds a registry from already-decoded configs
func New(configs []PoolConfig) (*Registry, error) {
	pools := make(map[string]Pool, len(configs))
	for i, cfg := range configs {
		pool, err := parsePoolConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("pool %d (%s): %w", i, cfg.Name, err)
		}
		if _, dup := pools[pool.Name]; dup {
			return nil, fmt.Errorf("pool %d: duplicate name %q", i, pool.Name)
		}
		pools[pool.Name] = pool
	}
	return &Registry{pools: pools}, nil
}

func parsePoolConfig(cfg PoolConfig) (Pool, error) {
	if cfg.Name == "" {
		return Pool{}, fmt.Errorf("name is required")
	}
	account, err := ParseAccount(cfg.PoolAccount)
	if err != nil {
		return Pool{}, fmt.Errorf("pool_account: %w", err)
	}

	return Pool{
		Name:          cfg.Name,
		Account:       account,
		BaseSymbol:    cfg.BaseSymbol,
		QuoteSymbol:   cfg.QuoteSymbol,
		BaseDecimals:  cfg.BaseDecimals,
		QuoteDecimals: cfg.QuoteDecimals,
	}, nil
}

// ParseAccount decodes a base58 account address and checks its length
func ParseAccount(s string) (solana.PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid base58: %w", err)
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("expected %d bytes, got %d", solana.PublicKeyLength, len(raw))
	}
	return solana.PublicKeyFromBytes(raw), nil
}

// FindByName searches for a pool by its name
func (r *Registry) FindByName(name string) (*Pool, error) {
	pool, ok := r.pools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, name)
	}
	return &pool, nil
}

// All returns every registered pool sorted by name
func (r *Registry) All() []Pool {
	out := make([]Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered pools
func (r *Registry) Count() int {
	return len(r.pools)
}
