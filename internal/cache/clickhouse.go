package cache

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/models"
)

// ClickHouseConfig holds connection settings for the quote history store
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Database == "" {
		cfg.Database = "quotes"
	}
	if cfg.Username == "" {
		cfg.Username = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test connection
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("connected to ClickHouse")

	return &ClickHouseStore{
		conn:   conn,
		logger: cfg.Logger,
	}, nil
}

func (c *ClickHouseStore) InsertQuote(ctx context.Context, q *models.QuoteEvent) error {
	query := `
		INSERT INTO quotes (
			id, timestamp, pool, direction, input_amount, output_amount,
			min_output_amount, fee_amount, effective_fee_bps, price_impact_bps,
			prize_pool_share, treasury_share, spot_price, slot, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	amounts, err := parseAmounts(q.InputAmount, q.OutputAmount, q.MinOutputAmount,
		q.FeeAmount, q.PrizePoolShare, q.TreasuryShare, q.SpotPrice)
	if err != nil {
		return fmt.Errorf("quote %s: %w", q.ID, err)
	}

	err = c.conn.Exec(ctx, query,
		q.ID,
		q.Timestamp,
		q.Pool,
		q.Direction,
		amounts[0],
		amounts[1],
		amounts[2],
		amounts[3],
		q.EffectiveFeeBps,
		q.PriceImpactBps,
		amounts[4],
		amounts[5],
		amounts[6],
		q.Slot,
		q.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) InsertDivergence(ctx context.Context, d *models.Divergence) error {
	query := `
		INSERT INTO divergences (
			timestamp, pool, direction, input_amount, local_output,
			authoritative_output, local_fee_bps, authoritative_fee_bps, diff_bps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	amounts, err := parseAmounts(d.InputAmount, d.LocalOutput, d.AuthoritativeOutput)
	if err != nil {
		return fmt.Errorf("divergence on %s: %w", d.Pool, err)
	}

	err = c.conn.Exec(ctx, query,
		d.Timestamp,
		d.Pool,
		d.Direction,
		amounts[0],
		amounts[1],
		amounts[2],
		d.LocalFeeBps,
		d.AuthoritativeFeeBps,
		d.DiffBps,
	)
	if err != nil {
		return fmt.Errorf("failed to insert divergence: %w", err)
	}

	return nil
}

// Query runs a read-only query and returns rows as column maps
func (c *ClickHouseStore) Query(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := c.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols := rows.Columns()
	types := rows.ColumnTypes()
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		for i, ct := range types {
			vals[i] = newScanTarget(ct.ScanType())
		}
		if err := rows.Scan(vals...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = deref(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}

// parseAmounts converts base-10 amount strings into UInt256 column values.
// Empty strings are stored as zero.
func parseAmounts(vals ...string) ([]*big.Int, error) {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		if v == "" {
			out[i] = new(big.Int)
			continue
		}
		n, ok := new(big.Int).SetString(v, 10)
		if !ok || n.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount %q", v)
		}
		out[i] = n
	}
	return out, nil
}
