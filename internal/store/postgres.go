package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS executions (
	execution_id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	answer TEXT NOT NULL,
	model TEXT NOT NULL,
	agent_type TEXT DEFAULT 'react',
	execution_time_seconds DOUBLE PRECISION NOT NULL,
	estimated_cost_usd DOUBLE PRECISION NOT NULL,
	total_tokens BIGINT NOT NULL,
	num_steps INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	reasoning_trace TEXT NOT NULL,
	metrics TEXT NOT NULL,
	metadata TEXT,
	created_at TIMESTAMPTZ DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_executions_timestamp ON executions(timestamp);
CREATE INDEX IF NOT EXISTS idx_executions_model ON executions(model);`

// Postgres is the shared-deployment execution store.
type Postgres struct {
	pool          *pgxpool.Pool
	retentionDays int
	logger        *zap.Logger
	now           func() time.Time
}

// OpenPostgres connects a pgx pool and ensures the schema exists.
func OpenPostgres(dsn string, retentionDays int, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create execution schema: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("PostgreSQL execution store connected",
		zap.Int("retention_days", retentionDays))

	return &Postgres{
		pool:          pool,
		retentionDays: retentionDays,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// Save upserts an execution.
func (s *Postgres) Save(ctx context.Context, exec *agent.Execution) error {
	trace, err := json.Marshal(exec.ReasoningTrace)
	if err != nil {
		return fmt.Errorf("marshal reasoning trace: %w", err)
	}
	metrics, err := json.Marshal(exec.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	var metadata interface{}
	if exec.Metadata != nil {
		b, err := json.Marshal(exec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = string(b)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO executions (
			execution_id, query, answer, model, agent_type,
			execution_time_seconds, estimated_cost_usd, total_tokens,
			num_steps, timestamp, reasoning_trace, metrics, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (execution_id) DO UPDATE SET
			query = EXCLUDED.query,
			answer = EXCLUDED.answer,
			model = EXCLUDED.model,
			agent_type = EXCLUDED.agent_type,
			execution_time_seconds = EXCLUDED.execution_time_seconds,
			estimated_cost_usd = EXCLUDED.estimated_cost_usd,
			total_tokens = EXCLUDED.total_tokens,
			num_steps = EXCLUDED.num_steps,
			timestamp = EXCLUDED.timestamp,
			reasoning_trace = EXCLUDED.reasoning_trace,
			metrics = EXCLUDED.metrics,
			metadata = EXCLUDED.metadata`,
		exec.ExecutionID, exec.Query, exec.Answer,
		exec.Metrics.Model, exec.Metrics.AgentType,
		exec.Metrics.ExecutionTimeSeconds, exec.Metrics.EstimatedCostUSD,
		exec.Metrics.EstimatedTokens.Total, exec.Metrics.NumSteps,
		exec.Timestamp, string(trace), string(metrics), metadata,
	)
	if err != nil {
		return fmt.Errorf("save execution: %w", err)
	}

	s.logger.Debug("execution saved", zap.String("execution_id", exec.ExecutionID))
	return nil
}

// Get returns the full execution for an id, or ErrNotFound.
func (s *Postgres) Get(ctx context.Context, executionID string) (*agent.Execution, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT execution_id, query, answer, timestamp, reasoning_trace, metrics, metadata
		FROM executions WHERE execution_id = $1`, executionID)

	exec, err := scanExecution(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return exec, nil
}

// Recent lists the newest executions as summaries.
func (s *Postgres) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx, `
		SELECT execution_id, query, timestamp, model, agent_type,
			execution_time_seconds, estimated_cost_usd, num_steps
		FROM executions
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ExecutionID, &sm.Query, &sm.Timestamp, &sm.Model,
			&sm.AgentType, &sm.ExecutionTime, &sm.EstimatedCost, &sm.NumSteps); err != nil {
			return nil, fmt.Errorf("scan execution summary: %w", err)
		}
		sm.Query = summarizeQuery(sm.Query)
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// Cleanup deletes executions older than the retention window.
func (s *Postgres) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays).Format(time.RFC3339)

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM executions WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup executions: %w", err)
	}

	deleted := tag.RowsAffected()
	if deleted > 0 {
		s.logger.Info("cleaned up old executions", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// Clear removes the entire stored history.
func (s *Postgres) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM executions`); err != nil {
		return fmt.Errorf("clear executions: %w", err)
	}
	s.logger.Info("execution history cleared")
	return nil
}

// Statistics aggregates the stored history. Database size is the total
// relation size of the executions table.
func (s *Postgres) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		ByModel:       make(map[string]int),
		ByAgentType:   make(map[string]int),
		RetentionDays: s.retentionDays,
	}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(estimated_cost_usd), 0), COALESCE(SUM(total_tokens), 0),
		       COALESCE(AVG(execution_time_seconds), 0), COALESCE(AVG(num_steps), 0)
		FROM executions`).
		Scan(&stats.TotalExecutions, &stats.TotalCostUSD, &stats.TotalTokens,
			&stats.AvgExecutionTime, &stats.AvgSteps)
	if err != nil {
		return nil, fmt.Errorf("execution totals: %w", err)
	}
	stats.TotalCostUSD = round4(stats.TotalCostUSD)
	stats.AvgExecutionTime = round2(stats.AvgExecutionTime)
	stats.AvgSteps = round2(stats.AvgSteps)

	if err := s.countBy(ctx, "model", stats.ByModel); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "agent_type", stats.ByAgentType); err != nil {
		return nil, err
	}

	var size int64
	if err := s.pool.QueryRow(ctx,
		`SELECT pg_total_relation_size('executions')`).Scan(&size); err == nil {
		stats.DatabaseSizeBytes = size
		stats.DatabaseSizeMB = round2(float64(size) / (1024 * 1024))
	}
	return stats, nil
}

func (s *Postgres) countBy(ctx context.Context, column string, out map[string]int) error {
	rows, err := s.pool.Query(ctx,
		`SELECT `+column+`, COUNT(*) FROM executions GROUP BY `+column)
	if err != nil {
		return fmt.Errorf("count by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scan %s count: %w", column, err)
		}
		out[key] = n
	}
	return rows.Err()
}

// Close shuts down the connection pool.
func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}
