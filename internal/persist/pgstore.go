package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arc-self/dds-statsbackend/internal/graph"
)

// PgStore persists explicit EntityGraph snapshots into a `graph_snapshots`
// JSONB table, instrumented with otelpgx the same way
// apps/abc-service/cmd/api/main.go instruments its pool.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore connects to dsn and returns a PgStore. The caller owns the
// returned pool's lifetime and must call Close.
func NewPgStore(ctx context.Context, dsn string) (*PgStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: connect: %w", err)
	}
	return &PgStore{pool: pool}, nil
}

// Close releases the underlying connection pool. Not idempotent; call it
// exactly once, at shutdown.
func (p *PgStore) Close() {
	p.pool.Close()
}

// EnsureSchema creates the graph_snapshots table if it does not already
// exist. Safe to call on every startup.
func (p *PgStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS graph_snapshots (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	snapshot   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`
	_, err := p.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("pgstore: ensure schema: %w", err)
	}
	return nil
}

// Save inserts a new row holding g's current snapshot under name.
// Multiple snapshots under the same name are kept distinct by id: this
// is a history of explicit dumps, not a single-row upsert.
func (p *PgStore) Save(ctx context.Context, name string, g *graph.Graph) error {
	snap := g.Dump()
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("pgstore: marshal snapshot: %w", err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO graph_snapshots (id, name, snapshot, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New(), name, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("pgstore: insert snapshot: %w", err)
	}
	return nil
}

// LoadLatest reads the most recently saved snapshot under name and
// replaces g's state with it.
func (p *PgStore) LoadLatest(ctx context.Context, name string, g *graph.Graph) error {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT snapshot FROM graph_snapshots WHERE name = $1 ORDER BY created_at DESC LIMIT 1`,
		name,
	).Scan(&data)
	if err != nil {
		return fmt.Errorf("pgstore: query latest snapshot: %w", err)
	}

	var snap graph.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("pgstore: unmarshal snapshot: %w", err)
	}
	g.Load(snap)
	return nil
}
