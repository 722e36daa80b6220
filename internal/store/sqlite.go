package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/inventory-planner/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id                    TEXT PRIMARY KEY,
	filename              TEXT NOT NULL,
	size_bytes            INTEGER NOT NULL DEFAULT 0,
	business_type         TEXT NOT NULL DEFAULT 'generic',
	is_inventory_planning INTEGER NOT NULL DEFAULT 0,
	error_type            TEXT NOT NULL DEFAULT '',
	record_counts         TEXT NOT NULL DEFAULT '{}',
	response              TEXT NOT NULL,
	created_at            DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
CREATE INDEX IF NOT EXISTS idx_snapshots_business_type ON snapshots(business_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	counts, response, err := prepare(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, filename, size_bytes, business_type, is_inventory_planning, error_type, record_counts, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Filename, snap.SizeBytes, snap.BusinessType, snap.IsInventoryPlanning,
		snap.ErrorType, string(counts), string(response), snap.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert snapshot %s", snap.ID)
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, size_bytes, business_type, is_inventory_planning, error_type, record_counts, created_at, response
		 FROM snapshots WHERE id = ?`,
		id,
	)

	var snap model.Snapshot
	var counts, response string
	err := row.Scan(&snap.ID, &snap.Filename, &snap.SizeBytes, &snap.BusinessType,
		&snap.IsInventoryPlanning, &snap.ErrorType, &counts, &snap.CreatedAt, &response)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get snapshot %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get snapshot %s", id)
	}
	if snap.Counts, err = decodeCounts([]byte(counts)); err != nil {
		return nil, err
	}
	if snap.Response, err = decodeResponse([]byte(response)); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error) {
	query := `SELECT id, filename, size_bytes, business_type, is_inventory_planning, error_type, record_counts, created_at
		FROM snapshots WHERE 1=1`
	var args []any

	if filter.BusinessType != "" {
		query += ` AND business_type = ?`
		args = append(args, filter.BusinessType)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at > ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var out []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var counts string
		if err := rows.Scan(&snap.ID, &snap.Filename, &snap.SizeBytes, &snap.BusinessType,
			&snap.IsInventoryPlanning, &snap.ErrorType, &counts, &snap.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		if snap.Counts, err = decodeCounts([]byte(counts)); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list snapshots iterate")
}

func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete snapshot %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: delete snapshot %s", id)
	}
	return nil
}
