package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/nidhogg/echoes/internal/agent"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS executions (
	execution_id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	answer TEXT NOT NULL,
	model TEXT NOT NULL,
	agent_type TEXT DEFAULT 'react',
	execution_time_seconds REAL NOT NULL,
	estimated_cost_usd REAL NOT NULL,
	total_tokens INTEGER NOT NULL,
	num_steps INTEGER NOT NULL,
	timestamp TEXT NOT NULL,
	reasoning_trace TEXT NOT NULL,
	metrics TEXT NOT NULL,
	metadata TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_executions_timestamp ON executions(timestamp);
CREATE INDEX IF NOT EXISTS idx_executions_model ON executions(model);`

// SQLite is the file-backed execution store.
type SQLite struct {
	db            *sql.DB
	path          string
	retentionDays int
	logger        *zap.Logger
	now           func() time.Time
}

// OpenSQLite opens (or creates) the execution database at path.
func OpenSQLite(path string, retentionDays int, logger *zap.Logger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open execution store: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create execution schema: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("execution store initialized",
		zap.String("path", path),
		zap.Int("retention_days", retentionDays))

	return &SQLite{
		db:            db,
		path:          path,
		retentionDays: retentionDays,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// Save inserts or replaces an execution.
func (s *SQLite) Save(ctx context.Context, exec *agent.Execution) error {
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

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO executions (
			execution_id, query, answer, model, agent_type,
			execution_time_seconds, estimated_cost_usd, total_tokens,
			num_steps, timestamp, reasoning_trace, metrics, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
func (s *SQLite) Get(ctx context.Context, executionID string) (*agent.Execution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT execution_id, query, answer, timestamp, reasoning_trace, metrics, metadata
		FROM executions WHERE execution_id = ?`, executionID)

	return scanExecution(row.Scan)
}

// Recent lists the newest executions as summaries.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT execution_id, query, timestamp, model, agent_type,
			execution_time_seconds, estimated_cost_usd, num_steps
		FROM executions
		ORDER BY timestamp DESC
		LIMIT ?`, limit)
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

// Cleanup deletes executions older than the retention window and returns
// how many were removed.
func (s *SQLite) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays).Format(time.RFC3339)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM executions WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup executions: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("cleaned up old executions", zap.Int64("deleted", deleted))
		// Reclaim the freed pages; the file otherwise only grows.
		if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
			s.logger.Warn("vacuum failed", zap.Error(err))
		}
	}
	return deleted, nil
}

// Clear removes the entire stored history.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM executions`); err != nil {
		return fmt.Errorf("clear executions: %w", err)
	}
	s.logger.Info("execution history cleared")
	return nil
}

// Statistics aggregates the stored history.
func (s *SQLite) Statistics(ctx context.Context) (*Statistics, error) {
	stats := &Statistics{
		ByModel:       make(map[string]int),
		ByAgentType:   make(map[string]int),
		RetentionDays: s.retentionDays,
	}

	err := s.db.QueryRowContext(ctx, `
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

	if fi, err := os.Stat(s.path); err == nil {
		stats.DatabaseSizeBytes = fi.Size()
		stats.DatabaseSizeMB = round2(float64(fi.Size()) / (1024 * 1024))
	}
	return stats, nil
}

func (s *SQLite) countBy(ctx context.Context, column string, out map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
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

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// scanExecution rebuilds an execution from the common column set. The scan
// argument order must match: id, query, answer, timestamp, trace, metrics,
// metadata.
func scanExecution(scan func(dest ...interface{}) error) (*agent.Execution, error) {
	var (
		exec     agent.Execution
		trace    string
		metrics  string
		metadata sql.NullString
	)
	err := scan(&exec.ExecutionID, &exec.Query, &exec.Answer, &exec.Timestamp,
		&trace, &metrics, &metadata)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan execution: %w", err)
	}

	if err := json.Unmarshal([]byte(trace), &exec.ReasoningTrace); err != nil {
		return nil, fmt.Errorf("decode reasoning trace: %w", err)
	}
	if err := json.Unmarshal([]byte(metrics), &exec.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &exec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &exec, nil
}
