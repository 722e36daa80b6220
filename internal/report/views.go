package report

import (
	"math"

	"github.com/sells-group/inventory-planner/internal/aggregate"
	"github.com/sells-group/inventory-planner/internal/derive"
	"github.com/sells-group/inventory-planner/internal/record"
)

// InventoryView is the on-hand breakdown.
type InventoryView struct {
	// TopSKUs carry the first non-empty location seen per SKU in Attrs.
	TopSKUs []aggregate.Group `json:"top_skus"`
	// Locations is nil when no record has a location.
	Locations []aggregate.Group `json:"locations,omitempty"`
}

// SalesView is the sales breakdown.
type SalesView struct {
	Trend     *aggregate.Series `json:"trend,omitempty"`
	TopSKUs   []aggregate.Group `json:"top_skus"`
	Channels  []aggregate.Group `json:"channels,omitempty"`
	DateRange *derive.DateRange `json:"date_range,omitempty"`
}

// PurchaseOrderView is the purchase order breakdown.
type PurchaseOrderView struct {
	// Timeline buckets orders by arrival day; Count is the order count.
	Timeline    *aggregate.Series `json:"timeline,omitempty"`
	TopVendors  []aggregate.Group `json:"top_vendors,omitempty"`
	CostBuckets []derive.Bucket   `json:"cost_buckets,omitempty"`
}

// CategoryStat is one product category of the item master.
type CategoryStat struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	AvgPrice float64 `json:"avg_price"`
}

// ItemMasterView is the item master breakdown.
type ItemMasterView struct {
	Categories []CategoryStat    `json:"categories,omitempty"`
	Margins    []derive.Margin   `json:"margins,omitempty"`
	TopVendors []aggregate.Group `json:"top_vendors,omitempty"`
}

func (b *Builder) inventory(recs []record.Record) *InventoryView {
	v := &InventoryView{
		TopSKUs: aggregate.GroupBy(recs, record.FieldSKU, []string{record.FieldQuantity}, aggregate.Options{
			Limit: b.params.TopN,
			Carry: []string{record.FieldLocation},
		}),
	}
	if aggregate.Any(recs, record.FieldLocation) {
		v.Locations = aggregate.GroupBy(recs, record.FieldLocation, []string{record.FieldQuantity}, aggregate.Options{})
	}
	return v
}

func (b *Builder) sales(recs []record.Record) *SalesView {
	measures := []string{record.FieldQuantity, record.FieldRevenue}
	v := &SalesView{
		TopSKUs: aggregate.GroupBy(recs, record.FieldSKU, measures, aggregate.Options{
			Limit: b.params.TopN,
			Carry: []string{record.FieldChannel},
		}),
	}
	if aggregate.Any(recs, record.FieldTimePeriod) {
		s := aggregate.GroupByDay(recs, record.FieldTimePeriod, measures)
		v.Trend = &s
	}
	if aggregate.Any(recs, record.FieldChannel) {
		v.Channels = aggregate.GroupBy(recs, record.FieldChannel, measures, aggregate.Options{})
	}
	if dr, ok := derive.RangeOf(recs, record.FieldTimePeriod); ok {
		v.DateRange = &dr
	}
	return v
}

func (b *Builder) purchaseOrders(recs []record.Record) *PurchaseOrderView {
	measures := []string{record.FieldQuantity, record.FieldCost}
	v := &PurchaseOrderView{}
	if aggregate.Any(recs, record.FieldArrivalDate) {
		s := aggregate.GroupByDay(recs, record.FieldArrivalDate, measures)
		v.Timeline = &s
	}
	if aggregate.Any(recs, record.FieldVendor) {
		v.TopVendors = aggregate.GroupBy(recs, record.FieldVendor, measures, aggregate.Options{Limit: b.params.TopN})
	}
	if aggregate.Any(recs, record.FieldCost) {
		v.CostBuckets = derive.BucketCosts(recs, record.FieldCost, b.costRanges)
	}
	return v
}

func (b *Builder) itemMaster(recs []record.Record) *ItemMasterView {
	v := &ItemMasterView{}
	if aggregate.Any(recs, record.FieldCategory) {
		groups := aggregate.GroupBy(recs, record.FieldCategory, []string{record.FieldPrice}, aggregate.Options{SortBy: aggregate.ByCount})
		v.Categories = make([]CategoryStat, 0, len(groups))
		for _, g := range groups {
			v.Categories = append(v.Categories, CategoryStat{
				Category: g.Key,
				Count:    g.Count,
				AvgPrice: finite(g.Avg(record.FieldPrice)),
			})
		}
	}
	if aggregate.Any(recs, record.FieldPrice) && aggregate.Any(recs, record.FieldCost) {
		v.Margins = derive.RankMargins(recs, record.FieldSKU, record.FieldPrice, record.FieldCost)
	}
	if aggregate.Any(recs, record.FieldVendor) {
		v.TopVendors = aggregate.GroupBy(recs, record.FieldVendor, nil, aggregate.Options{Limit: b.params.TopN})
	}
	return v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
