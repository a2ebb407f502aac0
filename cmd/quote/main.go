package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/chain"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/config"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/engine"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/quoter"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/registry"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/units"
)

func loadEnv() {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	_ = godotenv.Load(filepath.Join(projectRoot, ".env"))
}

// main prices a single trade against live pool state, without Redis or the API
func main() {
	loadEnv()

	mode := flag.String("mode", "quote", "price | quote | fee | split")
	poolName := flag.String("pool", "", "pool name from the pool config")
	dirFlag := flag.String("dir", "buy", "buy | sell")
	amt := flag.String("amt", "", "amount in base units")
	uiAmt := flag.String("ui", "", "amount in human units of the token being spent (e.g. 1.5)")
	slippageBps := flag.Uint("slippage-bps", 100, "slippage in bps (e.g. 100 = 1%)")
	flag.Parse()

	if *poolName == "" {
		fmt.Println("missing -pool")
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	pools, err := registry.Load(cfg.PoolConfigPath)
	if err != nil {
		fmt.Println("failed to load pools:", err)
		os.Exit(1)
	}
	pool, err := pools.FindByName(*poolName)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	reader, err := chain.NewRPCReader(cfg.RPCUrl, cfg.RPCTimeout, logger)
	if err != nil {
		fmt.Println("failed to init chain reader:", err)
		os.Exit(1)
	}

	svc, err := quoter.NewService(quoter.Config{
		Mode:   quoter.ModeLocal,
		Limits: quoter.DefaultLimits(),
		Pools:  pools,
		Reader: reader,
		Logger: logger,
	})
	if err != nil {
		fmt.Println("failed to init quoter:", err)
		os.Exit(1)
	}

	dir, err := engine.ParseDirection(*dirFlag)
	if err != nil && *mode != "price" && *mode != "split" {
		fmt.Println("invalid -dir (use buy|sell)")
		os.Exit(2)
	}

	amount := func(decimals uint8) *big.Int {
		var v *big.Int
		var err error
		switch {
		case *amt != "" && *uiAmt != "":
			err = fmt.Errorf("use either -amt or -ui")
		case *amt != "":
			v, err = engine.ParseAmount(*amt)
		case *uiAmt != "":
			v, err = units.ToBaseUnits(*uiAmt, decimals)
		default:
			err = fmt.Errorf("missing -amt or -ui")
		}
		if err != nil {
			fmt.Println("invalid amount:", err)
			os.Exit(2)
		}
		return v
	}
	spentDecimals := pool.QuoteDecimals
	if dir == engine.Sell {
		spentDecimals = pool.BaseDecimals
	}

	switch *mode {
	case "price":
		p, err := svc.Price(ctx, pool.Name)
		if err != nil {
			fmt.Println("price failed:", err)
			os.Exit(1)
		}
		fmt.Printf("pool=%s spot_price=%s price=%s %s/%s slot=%d\n",
			p.Pool, p.SpotPrice, p.PriceDisplay, pool.QuoteSymbol, pool.BaseSymbol, p.Slot)
	case "quote":
		slip := uint32(*slippageBps)
		q, err := svc.Quote(ctx, quoter.QuoteRequest{
			Pool:        pool.Name,
			Direction:   dir,
			InputAmount: amount(spentDecimals),
			SlippageBps: &slip,
		})
		if err != nil {
			fmt.Println("quote failed:", err)
			os.Exit(1)
		}
		fmt.Printf("pool=%s dir=%s amount_in=%s amount_out=%s min_out=%s fee=%s fee_bps=%d price_impact_bps=%d prize_pool=%s treasury=%s\n",
			q.Pool, q.Direction, q.InputAmount, q.Quote.OutputAmount, q.MinOutputAmount, q.Quote.FeeAmount,
			q.Quote.EffectiveFeeBps, q.PriceImpactBps, q.Split.PrizePoolShare, q.Split.TreasuryShare)
		if q.ExceedsMaxPriceImpact {
			fmt.Println("warning: price impact exceeds the configured maximum")
		}
	case "fee":
		in := amount(spentDecimals)
		bps, err := svc.EffectiveFee(ctx, pool.Name, dir, in)
		if err != nil {
			fmt.Println("fee failed:", err)
			os.Exit(1)
		}
		fee, _ := engine.FeeAmount(in, bps)
		fmt.Printf("pool=%s dir=%s fee_bps=%d fee=%s\n", pool.Name, dir, bps, fee)
	case "split":
		split, err := svc.SplitFee(ctx, pool.Name, amount(pool.QuoteDecimals))
		if err != nil {
			fmt.Println("split failed:", err)
			os.Exit(1)
		}
		fmt.Printf("pool=%s prize_pool=%s treasury=%s\n", pool.Name, split.PrizePoolShare, split.TreasuryShare)
	default:
		fmt.Println("invalid -mode (use price|quote|fee|split)")
		os.Exit(2)
	}
}
