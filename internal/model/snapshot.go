package model

import (
	"time"

	"github.com/sells-group/inventory-planner/internal/record"
)

// Snapshot is a stored upload: the classifier response as received plus the
// metadata used to list it. Reports are recomputed from Response on demand.
type Snapshot struct {
	ID                  string                  `json:"id"`
	Filename            string                  `json:"filename"`
	SizeBytes           int64                   `json:"size_bytes"`
	BusinessType        string                  `json:"business_type"`
	IsInventoryPlanning bool                    `json:"is_inventory_planning"`
	ErrorType           string                  `json:"error_type,omitempty"`
	Counts              map[record.Category]int `json:"counts"`
	// Response is nil in listings.
	Response  *UploadResponse `json:"response,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewSnapshot fills the listing metadata from resp. ID and CreatedAt are
// assigned by the store.
func NewSnapshot(filename string, size int64, resp *UploadResponse) *Snapshot {
	s := &Snapshot{
		Filename:     filename,
		SizeBytes:    size,
		BusinessType: resp.BusinessType(),
		ErrorType:    resp.ErrorType,
		Counts:       resp.ExtractedData.Counts(),
		Response:     resp,
	}
	if resp.Classification != nil {
		s.IsInventoryPlanning = resp.Classification.IsInventoryPlanning
	}
	return s
}
