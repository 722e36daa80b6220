package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/inventory-planner/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore; pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	filename              TEXT NOT NULL,
	size_bytes            BIGINT NOT NULL DEFAULT 0,
	business_type         TEXT NOT NULL DEFAULT 'generic',
	is_inventory_planning BOOLEAN NOT NULL DEFAULT false,
	error_type            TEXT NOT NULL DEFAULT '',
	record_counts         JSONB NOT NULL DEFAULT '{}'::jsonb,
	response              JSONB NOT NULL,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_snapshots_business_type ON snapshots(business_type);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	counts, response, err := prepare(snap)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, filename, size_bytes, business_type, is_inventory_planning, error_type, record_counts, response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snap.ID, snap.Filename, snap.SizeBytes, snap.BusinessType, snap.IsInventoryPlanning,
		snap.ErrorType, counts, response, snap.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert snapshot %s", snap.ID)
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	var snap model.Snapshot
	var counts, response []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, size_bytes, business_type, is_inventory_planning, error_type, record_counts, created_at, response
		 FROM snapshots WHERE id = $1`,
		id,
	).Scan(&snap.ID, &snap.Filename, &snap.SizeBytes, &snap.BusinessType,
		&snap.IsInventoryPlanning, &snap.ErrorType, &counts, &snap.CreatedAt, &response)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get snapshot %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", id)
	}
	if snap.Counts, err = decodeCounts(counts); err != nil {
		return nil, err
	}
	if snap.Response, err = decodeResponse(response); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error) {
	query := `SELECT id, filename, size_bytes, business_type, is_inventory_planning, error_type, record_counts, created_at
		FROM snapshots
		WHERE ($1 = '' OR business_type = $1) AND ($2::timestamptz IS NULL OR created_at > $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`

	var after *time.Time
	if !filter.CreatedAfter.IsZero() {
		t := filter.CreatedAfter.UTC()
		after = &t
	}
	rows, err := s.pool.Query(ctx, query, filter.BusinessType, after, filter.limit(), max(filter.Offset, 0))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var counts []byte
		if err := rows.Scan(&snap.ID, &snap.Filename, &snap.SizeBytes, &snap.BusinessType,
			&snap.IsInventoryPlanning, &snap.ErrorType, &counts, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		if snap.Counts, err = decodeCounts(counts); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list snapshots iterate")
}

func (s *PostgresStore) DeleteSnapshot(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete snapshot %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: delete snapshot %s", id)
	}
	return nil
}
