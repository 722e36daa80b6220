// Package monitoring exposes Prometheus metrics and watches the health of
// stored uploads, alerting through a webhook when failures pile up.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/inventory-planner/internal/apierr"
	"github.com/sells-group/inventory-planner/internal/store"
)

// Snapshot holds a point-in-time view of upload health.
type Snapshot struct {
	// Upload counts within the lookback window.
	Total        int            `json:"total"`
	Failed       int            `json:"failed"`
	Partial      int            `json:"partial"`
	NotInventory int            `json:"not_inventory"`
	FailRate     float64        `json:"fail_rate"`
	ByBusiness   map[string]int `json:"by_business_type"`

	// BreakerState is the classifier circuit breaker state, if known.
	BreakerState string `json:"breaker_state,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers upload health from the snapshot store.
type Collector struct {
	store   store.Store
	breaker func() string
}

// NewCollector creates a collector. breaker may be nil.
func NewCollector(st store.Store, breaker func() string) *Collector {
	return &Collector{store: st, breaker: breaker}
}

// Collect summarizes the uploads stored within the lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := time.Now().UTC()
	snap := &Snapshot{
		ByBusiness:    make(map[string]int),
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}
	if c.breaker != nil {
		snap.BreakerState = c.breaker()
	}

	uploads, err := c.store.ListSnapshots(ctx, store.SnapshotFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list snapshots")
	}

	snap.Total = len(uploads)
	for _, u := range uploads {
		snap.ByBusiness[u.BusinessType]++
		switch {
		case u.ErrorType == "":
		case apierr.ParseType(u.ErrorType) == apierr.ExtractionError:
			snap.Partial++
		default:
			// Failed uploads carry no classification verdict.
			snap.Failed++
			continue
		}
		if !u.IsInventoryPlanning {
			snap.NotInventory++
		}
	}
	if snap.Total > 0 {
		snap.FailRate = float64(snap.Failed) / float64(snap.Total)
	}
	return snap, nil
}
