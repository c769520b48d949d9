package runs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for run rows.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Close()
}

// PostgresProvider writes run rows into Postgres.
type PostgresProvider struct {
	pool  pgxPool
	table string
}

// NewPostgresProvider creates a Postgres-backed Provider using the
// provided config.
func NewPostgresProvider(ctx context.Context, cfg PostgresConfig) (*PostgresProvider, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("runs.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresProvider{pool: pool, table: table}, nil
}

// NewPostgresProviderWithPool constructs a provider from an existing pool
// (primarily for testing).
func NewPostgresProviderWithPool(pool pgxPool, table string) (*PostgresProvider, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &PostgresProvider{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = "agenda_runs"
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (p *PostgresProvider) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}

// RecordRun inserts a run row into Postgres.
func (p *PostgresProvider) RecordRun(ctx context.Context, rec Record) error {
	if p == nil || p.pool == nil {
		return fmt.Errorf("run store is not configured")
	}
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	countsJSON, err := json.Marshal(normalizeCounts(rec.SourceCounts))
	if err != nil {
		return fmt.Errorf("marshal source counts: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	reason,
	started_at,
	finished_at,
	source_counts,
	events_total,
	artifact_digest,
	committed,
	commit_hash,
	error_text
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`, p.table)

	args := []any{
		rec.ID,
		rec.Reason,
		rec.StartedAt,
		rec.FinishedAt,
		countsJSON,
		rec.EventsTotal,
		rec.ArtifactDigest,
		rec.Committed,
		rec.CommitHash,
		rec.ErrorText,
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// LatestRun returns the most recently started run.
func (p *PostgresProvider) LatestRun(ctx context.Context) (Record, error) {
	if p == nil || p.pool == nil {
		return Record{}, fmt.Errorf("run store is not configured")
	}
	query := fmt.Sprintf(`
SELECT id, reason, started_at, finished_at, source_counts, events_total,
       artifact_digest, committed, commit_hash, error_text
FROM %s
ORDER BY started_at DESC
LIMIT 1`, p.table)

	var (
		rec        Record
		countsJSON []byte
	)
	row := p.pool.QueryRow(ctx, query)
	err := row.Scan(
		&rec.ID,
		&rec.Reason,
		&rec.StartedAt,
		&rec.FinishedAt,
		&countsJSON,
		&rec.EventsTotal,
		&rec.ArtifactDigest,
		&rec.Committed,
		&rec.CommitHash,
		&rec.ErrorText,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNoRuns
	}
	if err != nil {
		return Record{}, fmt.Errorf("select latest run: %w", err)
	}
	if len(countsJSON) > 0 {
		if err := json.Unmarshal(countsJSON, &rec.SourceCounts); err != nil {
			return Record{}, fmt.Errorf("unmarshal source counts: %w", err)
		}
	}
	return rec, nil
}

func normalizeCounts(counts map[string]int) map[string]int {
	if counts == nil {
		return map[string]int{}
	}
	return counts
}
