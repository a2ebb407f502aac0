package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/pool-quote-engine/internal/ai"
	"github.com/aman-zulfiqar/pool-quote-engine/internal/config"
)

// main asks questions about quote and divergence history, one-shot or as a REPL
func main() {
	queryFlag := flag.String("q", "", "Run a single natural language query and exit")
	modelFlag := flag.String("model", "", "OpenRouter model name (default: OPENROUTER_MODEL)")
	timeoutFlag := flag.Duration("timeout", 45*time.Second, "Per-question timeout")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.WarnLevel)

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.OpenRouterAPIKey == "" {
		logger.Fatal("OPENROUTER_API_KEY is required for the AI agent")
	}
	model := cfg.OpenRouterModel
	if *modelFlag != "" {
		model = *modelFlag
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down")
		cancel()
	}()

	agent, err := ai.NewAgent(ctx, ai.AgentConfig{
		ClickHouseAddr:     cfg.ClickHouseAddr,
		ClickHouseDatabase: cfg.ClickHouseDatabase,
		ClickHouseUsername: cfg.ClickHouseUsername,
		ClickHousePassword: cfg.ClickHousePassword,
		OpenRouterAPIKey:   cfg.OpenRouterAPIKey,
		Model:              model,
		Logger:             logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create AI agent")
	}
	defer agent.Close()

	if *queryFlag != "" {
		if err := ask(ctx, agent, *queryFlag, *timeoutFlag); err != nil {
			logger.WithError(err).Fatal("query failed")
		}
		return
	}

	repl(ctx, agent, *timeoutFlag)
}

func ask(ctx context.Context, agent *ai.Agent, question string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := agent.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Printf("\nSQL (%d rows):\n%s\n\n%s\n\n", res.Rows, res.SQL, res.Answer)
	return nil
}

func repl(ctx context.Context, agent *ai.Agent, timeout time.Duration) {
	fmt.Println("Quote history agent. Ask about quotes, fees or divergences; empty line or :q exits.")

	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			if err := in.Err(); err != nil && !errors.Is(err, io.EOF) {
				fmt.Println("error reading input:", err)
			}
			return
		}
		q := strings.TrimSpace(in.Text())
		if q == "" || q == ":q" {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err := ask(ctx, agent, q, timeout); err != nil {
			fmt.Println("error:", err)
		}
	}
}
