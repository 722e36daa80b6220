// Package store persists upload snapshots in SQLite or PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/inventory-planner/internal/model"
	"github.com/sells-group/inventory-planner/internal/record"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = eris.New("store: snapshot not found")

// SnapshotFilter specifies criteria for listing snapshots.
type SnapshotFilter struct {
	BusinessType string    `json:"business_type,omitempty"`
	CreatedAfter time.Time `json:"created_after,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Offset       int       `json:"offset,omitempty"`
}

func (f SnapshotFilter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store defines the persistence interface for upload snapshots.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	// ListSnapshots returns newest first, without responses.
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]model.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}

// prepare assigns the ID and timestamp of a new snapshot and encodes its
// JSON columns.
func prepare(snap *model.Snapshot) (counts, response []byte, err error) {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	counts, err = json.Marshal(snap.Counts)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal counts")
	}
	resp := snap.Response
	if resp == nil {
		resp = &model.UploadResponse{}
	}
	response, err = json.Marshal(resp)
	if err != nil {
		return nil, nil, eris.Wrap(err, "store: marshal response")
	}
	return counts, response, nil
}

func decodeCounts(raw []byte) (map[record.Category]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out map[record.Category]int
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal counts")
	}
	return out, nil
}

func decodeResponse(raw []byte) (*model.UploadResponse, error) {
	var out model.UploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal response")
	}
	return &out, nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}
