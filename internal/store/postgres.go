package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"vrproute/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    algorithm   TEXT NOT NULL,
    parallel    BOOLEAN NOT NULL DEFAULT false,
    workers     INTEGER NOT NULL DEFAULT 0,
    capacity    INTEGER NOT NULL,
    max_stops   INTEGER NOT NULL,
    cities      INTEGER NOT NULL,
    roads       INTEGER NOT NULL,
    cache_key   TEXT,
    cache_hit   BOOLEAN NOT NULL DEFAULT false,
    solution    JSONB,
    stats       JSONB,
    error       TEXT,
    elapsed_ms  BIGINT NOT NULL DEFAULT 0,
    system      JSONB,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS runs_created_at_idx ON runs (created_at DESC);
`

// Migrate creates the runs table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

const runColumns = `id, status, algorithm, parallel, workers, capacity, max_stops, cities, roads,
    COALESCE(cache_key,''), cache_hit, solution, stats, COALESCE(error,''), elapsed_ms, system, created_at, finished_at`

func (p *Postgres) CreateRun(ctx context.Context, run model.Run) (model.Run, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	args, err := runArgs(run)
	if err != nil {
		return model.Run{}, err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO runs (id, status, algorithm, parallel, workers, capacity, max_stops, cities, roads,
        cache_key, cache_hit, solution, stats, error, elapsed_ms, system, created_at, finished_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`, args...)
	if err != nil {
		return model.Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

func (p *Postgres) UpdateRun(ctx context.Context, run model.Run) error {
	args, err := runArgs(run)
	if err != nil {
		return err
	}
	res, err := p.db.ExecContext(ctx, `UPDATE runs SET status=$2, algorithm=$3, parallel=$4, workers=$5, capacity=$6, max_stops=$7,
        cities=$8, roads=$9, cache_key=$10, cache_hit=$11, solution=$12, stats=$13, error=$14, elapsed_ms=$15, system=$16,
        created_at=$17, finished_at=$18 WHERE id=$1`, args...)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetRun(ctx context.Context, id string) (model.Run, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id=$1`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Run{}, ErrNotFound
	}
	return r, err
}

func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// runArgs orders run fields as the INSERT and UPDATE placeholders expect.
func runArgs(r model.Run) ([]any, error) {
	sol, err := jsonOrNil(r.Solution)
	if err != nil {
		return nil, err
	}
	stats, err := json.Marshal(r.Stats)
	if err != nil {
		return nil, err
	}
	sys, err := json.Marshal(r.System)
	if err != nil {
		return nil, err
	}
	var finished any
	if r.FinishedAt != nil {
		finished = *r.FinishedAt
	}
	return []any{
		r.ID, r.Status, r.Algorithm, r.Parallel, r.Workers, r.Params.Capacity, r.Params.MaxStops, r.Cities, r.Roads,
		nullIfEmpty(r.CacheKey), r.CacheHit, sol, stats, nullIfEmpty(r.Error), r.ElapsedMs, sys, r.CreatedAt, finished,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.Run, error) {
	var (
		r               model.Run
		sol, stats, sys []byte
		finished        sql.NullTime
	)
	err := s.Scan(&r.ID, &r.Status, &r.Algorithm, &r.Parallel, &r.Workers, &r.Params.Capacity, &r.Params.MaxStops,
		&r.Cities, &r.Roads, &r.CacheKey, &r.CacheHit, &sol, &stats, &r.Error, &r.ElapsedMs, &sys, &r.CreatedAt, &finished)
	if err != nil {
		return model.Run{}, err
	}
	if len(sol) > 0 {
		r.Solution = &model.Solution{}
		if err := json.Unmarshal(sol, r.Solution); err != nil {
			return model.Run{}, fmt.Errorf("decode solution: %w", err)
		}
	}
	if len(stats) > 0 {
		if err := json.Unmarshal(stats, &r.Stats); err != nil {
			return model.Run{}, fmt.Errorf("decode stats: %w", err)
		}
	}
	if len(sys) > 0 {
		if err := json.Unmarshal(sys, &r.System); err != nil {
			return model.Run{}, fmt.Errorf("decode system: %w", err)
		}
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func jsonOrNil(v *model.Solution) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}
