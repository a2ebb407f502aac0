// Package ai answers natural language questions about quote history by
// generating ClickHouse SQL with an LLM, running it read-only and summarising
// the rows.
package ai

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultModel      = "openai/gpt-4.1-mini"
)

// AgentConfig holds configuration for the AI agent.
type AgentConfig struct {
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	OpenRouterAPIKey string
	// Model name as understood by OpenRouter
	Model string

	Logger *logrus.Logger
}

// Querier runs read-only SQL. *sql.DB satisfies it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Agent turns questions into SQL over the quotes and divergences tables.
type Agent struct {
	llm     llms.Model
	db      Querier
	maxRows int
	closer  func() error
	logger  *logrus.Logger
}

// AskResult is the structured result of an Ask call.
type AskResult struct {
	SQL    string `json:"sql"`
	Answer string `json:"answer"`
	Rows   int    `json:"rows"`
}

// NewAgentWith builds an agent over caller-supplied clients. The caller owns
// both and Close is a no-op.
func NewAgentWith(llm llms.Model, db Querier, logger *logrus.Logger) *Agent {
	if logger == nil {
		logger = logrus.New()
	}
	return &Agent{llm: llm, db: db, maxRows: defaultMaxRows, logger: logger}
}

// NewAgent dials ClickHouse and OpenRouter.
func NewAgent(ctx context.Context, cfg AgentConfig) (*Agent, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	// OpenRouter speaks the OpenAI API
	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL(openRouterBaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}

	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{cfg.ClickHouseAddr},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		},
		ReadTimeout: 30 * time.Second,
	})
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping clickhouse at %s: %w", cfg.ClickHouseAddr, err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.ClickHouseAddr,
		"database": cfg.ClickHouseDatabase,
		"model":    cfg.Model,
	}).Info("initialized AI agent")

	a := NewAgentWith(llm, db, cfg.Logger)
	a.closer = db.Close
	return a, nil
}

// Close releases the ClickHouse connection when the agent owns it.
func (a *Agent) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer()
}

// Ask generates SQL for question, runs it with a row cap and summarises the
// result. The returned SQL is the statement that was executed.
func (a *Agent) Ask(ctx context.Context, question string) (*AskResult, error) {
	start := time.Now()

	query, err := a.generateSQL(ctx, question)
	if err != nil {
		return nil, err
	}
	query = withRowLimit(query, a.maxRows)

	rows, err := a.runQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	answer, err := a.summarise(ctx, question, query, rows)
	if err != nil {
		return nil, err
	}

	a.logger.WithFields(logrus.Fields{
		"rows": len(rows),
		"took": time.Since(start),
	}).Debug("answered question")

	return &AskResult{SQL: query, Answer: answer, Rows: len(rows)}, nil
}

func (a *Agent) generateSQL(ctx context.Context, question string) (string, error) {
	resp, err := llms.GenerateFromSinglePrompt(ctx, a.llm,
		fmt.Sprintf(sqlPrompt, quotesSchemaDescription, question),
		llms.WithMaxTokens(512),
		llms.WithTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}

	query := sanitizeSQL(resp)
	if err := validateSQL(query); err != nil {
		return "", err
	}
	a.logger.WithField("sql", query).Debug("generated SQL from question")
	return query, nil
}

func (a *Agent) summarise(ctx context.Context, question, query string, rows []map[string]any) (string, error) {
	rowsJSON, err := encodeRows(rows)
	if err != nil {
		return "", err
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, a.llm,
		fmt.Sprintf(summaryPrompt, question, query, rowsJSON),
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", fmt.Errorf("summarise result: %w", err)
	}
	return trimAnswer(resp), nil
}
