package insight

import (
	"math"

	"github.com/sells-group/inventory-planner/internal/aggregate"
	"github.com/sells-group/inventory-planner/internal/derive"
	"github.com/sells-group/inventory-planner/internal/record"
)

// DefaultTable returns the table with the base KPIs for all four categories
// and the retail, distribution and food/CPG extras.
func DefaultTable() *Table {
	t := NewTable()

	t.SetBase(record.InventoryOnHand, inventoryBase)
	t.Register(record.InventoryOnHand, Retail, lowStockItems)
	t.Register(record.InventoryOnHand, Distribution, warehouseUtilization)
	t.Register(record.InventoryOnHand, FoodCPG, avgUnitsPerSKU)

	t.SetBase(record.SalesHistory, salesBase)
	t.Register(record.SalesHistory, Retail, avgRevenuePerUnit)
	t.Register(record.SalesHistory, Distribution, dailySalesRate)
	t.Register(record.SalesHistory, FoodCPG, avgSalesPerSKU)

	t.SetBase(record.PurchaseOrders, purchaseOrderBase)
	t.Register(record.PurchaseOrders, Retail, avgOrderValue)
	t.Register(record.PurchaseOrders, Distribution, activeVendors)
	t.Register(record.PurchaseOrders, FoodCPG, avgUnitsPerOrder)

	t.SetBase(record.ItemMaster, itemMasterBase)
	t.Register(record.ItemMaster, Retail, productCategories)
	t.Register(record.ItemMaster, Distribution, vendorCount)
	t.Register(record.ItemMaster, FoodCPG, avgPrice)

	return t
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// Inventory.

func inventoryBase(in Input) []KPI {
	return []KPI{
		kpi("Total Inventory", aggregate.Total(in.Records, record.FieldQuantity), FormatNumber),
		kpi("Unique SKUs", float64(aggregate.DistinctCount(in.Records, record.FieldSKU)), FormatNumber),
	}
}

func lowStockItems(in Input) (KPI, bool) {
	const label = "Low Stock Items"
	unique := float64(aggregate.DistinctCount(in.Records, record.FieldSKU))
	avg := ratio(aggregate.Total(in.Records, record.FieldQuantity), unique)
	if math.IsNaN(avg) {
		return na(label), true
	}
	threshold := avg * in.Params.LowStockRatio

	top := aggregate.GroupBy(in.Records, record.FieldSKU, []string{record.FieldQuantity},
		aggregate.Options{Limit: in.Params.TopN})
	n := 0
	for _, g := range top {
		if g.Sum(record.FieldQuantity) < threshold {
			n++
		}
	}
	k := kpi(label, float64(n), FormatNumber)
	k.Highlight = n > 0
	return k, true
}

func warehouseUtilization(in Input) (KPI, bool) {
	if !aggregate.Any(in.Records, record.FieldLocation) {
		return KPI{}, false
	}
	unique := float64(aggregate.DistinctCount(in.Records, record.FieldSKU))
	locations := aggregate.GroupBy(in.Records, record.FieldLocation, nil, aggregate.Options{})
	high := 0
	for _, g := range locations {
		if float64(g.Count) > unique*in.Params.CoverageRatio {
			high++
		}
	}
	return kpi("Warehouse Utilization", ratio(float64(high), float64(len(locations)))*100, FormatPercent), true
}

func avgUnitsPerSKU(in Input) (KPI, bool) {
	unique := float64(aggregate.DistinctCount(in.Records, record.FieldSKU))
	return kpi("Avg Units Per SKU", ratio(aggregate.Total(in.Records, record.FieldQuantity), unique), FormatFixed1), true
}

// Sales.

func salesBase(in Input) []KPI {
	return []KPI{
		kpi("Total Units Sold", aggregate.Total(in.Records, record.FieldQuantity), FormatNumber),
		kpi("Total Revenue", aggregate.Total(in.Records, record.FieldRevenue), FormatCurrency),
		kpi("Unique SKUs", float64(aggregate.DistinctCount(in.Records, record.FieldSKU)), FormatNumber),
	}
}

func avgRevenuePerUnit(in Input) (KPI, bool) {
	rev := aggregate.Total(in.Records, record.FieldRevenue)
	qty := aggregate.Total(in.Records, record.FieldQuantity)
	return kpi("Avg Revenue Per Unit", ratio(rev, qty), FormatCurrency), true
}

func dailySalesRate(in Input) (KPI, bool) {
	dr, ok := derive.RangeOf(in.Records, record.FieldTimePeriod)
	if !ok {
		return KPI{}, false
	}
	qty := aggregate.Total(in.Records, record.FieldQuantity)
	return kpi("Daily Sales Rate", math.Round(ratio(qty, float64(dr.Days))), FormatInt), true
}

func avgSalesPerSKU(in Input) (KPI, bool) {
	unique := float64(aggregate.DistinctCount(in.Records, record.FieldSKU))
	qty := aggregate.Total(in.Records, record.FieldQuantity)
	return kpi("Avg Sales Per SKU", math.Round(ratio(qty, unique)), FormatInt), true
}

// Purchase orders.

func purchaseOrderBase(in Input) []KPI {
	out := []KPI{kpi("Total Units Ordered", aggregate.Total(in.Records, record.FieldQuantity), FormatNumber)}
	if aggregate.Any(in.Records, record.FieldCost) {
		out = append(out, kpi("Total Order Value", aggregate.Total(in.Records, record.FieldCost), FormatCurrency))
	} else {
		out = append(out, na("Total Order Value"))
	}
	return out
}

func avgOrderValue(in Input) (KPI, bool) {
	const label = "Avg Order Value"
	if !aggregate.Any(in.Records, record.FieldCost) {
		return na(label), true
	}
	cost := aggregate.Total(in.Records, record.FieldCost)
	return kpi(label, ratio(cost, float64(len(in.Records))), FormatCurrency), true
}

func activeVendors(in Input) (KPI, bool) {
	if !aggregate.Any(in.Records, record.FieldVendor) {
		return KPI{}, false
	}
	return kpi("Active Vendors", float64(aggregate.DistinctCount(in.Records, record.FieldVendor)), FormatNumber), true
}

func avgUnitsPerOrder(in Input) (KPI, bool) {
	qty := aggregate.Total(in.Records, record.FieldQuantity)
	return kpi("Avg Units Per Order", math.Round(ratio(qty, float64(len(in.Records)))), FormatInt), true
}

// Item master.

func itemMasterBase(in Input) []KPI {
	out := []KPI{kpi("Total SKUs", float64(len(in.Records)), FormatNumber)}
	if aggregate.Any(in.Records, record.FieldPrice) && aggregate.Any(in.Records, record.FieldCost) {
		if st, ok := derive.AverageMargin(in.Records, record.FieldPrice, record.FieldCost); ok {
			out = append(out, kpi("Avg Margin", st.AvgPercent, FormatPercent))
		} else {
			out = append(out, na("Avg Margin"))
		}
	}
	return out
}

func productCategories(in Input) (KPI, bool) {
	if !aggregate.Any(in.Records, record.FieldCategory) {
		return KPI{}, false
	}
	return kpi("Product Categories", float64(aggregate.DistinctCount(in.Records, record.FieldCategory)), FormatNumber), true
}

func vendorCount(in Input) (KPI, bool) {
	if !aggregate.Any(in.Records, record.FieldVendor) {
		return KPI{}, false
	}
	return kpi("Vendors", float64(aggregate.DistinctCount(in.Records, record.FieldVendor)), FormatNumber), true
}

func avgPrice(in Input) (KPI, bool) {
	if !aggregate.Any(in.Records, record.FieldPrice) {
		return KPI{}, false
	}
	total := aggregate.Total(in.Records, record.FieldPrice)
	return kpi("Avg Price", ratio(total, float64(len(in.Records))), FormatCurrency), true
}
