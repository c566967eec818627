// Package store persists execution history. Two backends implement the
// same contract: SQLite for the single-node default and PostgreSQL for
// shared deployments.
package store

import (
	"context"
	"errors"
	"math"

	"github.com/nidhogg/echoes/internal/agent"
)

// ErrNotFound reports a lookup for an execution id that was never saved or
// has been cleaned up.
var ErrNotFound = errors.New("execution not found")

// Summary is one row of the execution history listing. Queries are
// truncated to 100 characters.
type Summary struct {
	ExecutionID   string  `json:"execution_id"`
	Query         string  `json:"query"`
	Timestamp     string  `json:"timestamp"`
	Model         string  `json:"model"`
	AgentType     string  `json:"agent_type"`
	ExecutionTime float64 `json:"execution_time"`
	EstimatedCost float64 `json:"estimated_cost"`
	NumSteps      int     `json:"num_steps"`
}

// Statistics aggregates the stored history.
type Statistics struct {
	TotalExecutions   int            `json:"total_executions"`
	TotalCostUSD      float64        `json:"total_cost_usd"`
	TotalTokens       int64          `json:"total_tokens"`
	AvgExecutionTime  float64        `json:"avg_execution_time"`
	AvgSteps          float64        `json:"avg_steps"`
	ByModel           map[string]int `json:"by_model"`
	ByAgentType       map[string]int `json:"by_agent_type"`
	DatabaseSizeBytes int64          `json:"database_size_bytes"`
	DatabaseSizeMB    float64        `json:"database_size_mb"`
	RetentionDays     int            `json:"retention_days"`
}

// Store is the execution history contract.
type Store interface {
	Save(ctx context.Context, exec *agent.Execution) error
	Get(ctx context.Context, executionID string) (*agent.Execution, error)
	Recent(ctx context.Context, limit int) ([]Summary, error)
	Cleanup(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
	Statistics(ctx context.Context) (*Statistics, error)
	Close() error
}

const maxSummaryQueryLen = 100

func summarizeQuery(q string) string {
	if len(q) > maxSummaryQueryLen {
		return q[:maxSummaryQueryLen]
	}
	return q
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
