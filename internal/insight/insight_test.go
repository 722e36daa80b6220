package insight

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-planner/internal/record"
)

func rec(kv ...any) record.Record {
	fields := make([]record.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, record.Field{Name: kv[i].(string), Value: record.FromAny(kv[i+1])})
	}
	return record.New(fields...)
}

func evaluate(bt BusinessType, c record.Category, records ...record.Record) []KPI {
	return DefaultTable().Evaluate(bt, Input{Category: c, Records: records, Params: DefaultParams()})
}

func byLabel(t *testing.T, kpis []KPI, label string) KPI {
	t.Helper()
	for _, k := range kpis {
		if k.Label == label {
			return k
		}
	}
	require.Failf(t, "missing kpi", "label %q not in %v", label, kpis)
	return KPI{}
}

func labels(kpis []KPI) []string {
	out := make([]string, 0, len(kpis))
	for _, k := range kpis {
		out = append(out, k.Label)
	}
	return out
}

func TestFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1,234", FormatNumber(1234))
	assert.Equal(t, "1,234.5", FormatNumber(1234.5))
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "1,235", FormatInt(1234.6))
	assert.Equal(t, "$1,235", FormatCurrency(1234.6))
	assert.Equal(t, "-$5", FormatCurrency(-5.4))
	assert.Equal(t, "$0", FormatCurrency(0))
	assert.Equal(t, "33.3%", FormatPercent(100.0/3))
	assert.Equal(t, "2.5", FormatFixed1(2.5))
}

func TestParseBusinessType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FoodCPG, ParseBusinessType("Food CPG"))
	assert.Equal(t, Retail, ParseBusinessType(" retail "))
	assert.Equal(t, BusinessType("manufacturing"), ParseBusinessType("Manufacturing"))
}

func inventory() []record.Record {
	return []record.Record{
		rec("sku", "A", "quantity", 100, "location", "WH1"),
		rec("sku", "B", "quantity", 1, "location", "WH1"),
		rec("sku", "C", "quantity", "50", "location", "WH1"),
		rec("sku", "A", "quantity", 49, "location", "WH2"),
	}
}

func TestInventoryKPIs(t *testing.T) {
	t.Parallel()

	base := evaluate(Generic, record.InventoryOnHand, inventory()...)
	assert.Equal(t, []string{"Total Inventory", "Unique SKUs"}, labels(base))
	assert.Equal(t, "200", base[0].Display)
	assert.Equal(t, 3.0, base[1].Value)

	// avg per SKU 200/3, threshold ~3.33: only B is low
	retail := evaluate(Retail, record.InventoryOnHand, inventory()...)
	low := byLabel(t, retail, "Low Stock Items")
	assert.Equal(t, 1.0, low.Value)
	assert.True(t, low.Highlight)

	// WH1 holds 3 records > 3*0.9, WH2 holds 1
	dist := evaluate(Distribution, record.InventoryOnHand, inventory()...)
	util := byLabel(t, dist, "Warehouse Utilization")
	assert.Equal(t, "50.0%", util.Display)

	food := evaluate(FoodCPG, record.InventoryOnHand, inventory()...)
	assert.Equal(t, "66.7", byLabel(t, food, "Avg Units Per SKU").Display)
}

func TestInventoryKPIsWithoutSKUs(t *testing.T) {
	t.Parallel()

	records := []record.Record{rec("quantity", 5)}

	low := byLabel(t, evaluate(Retail, record.InventoryOnHand, records...), "Low Stock Items")
	assert.False(t, low.Available)
	assert.Equal(t, NotAvailable, low.Display)

	avg := byLabel(t, evaluate(FoodCPG, record.InventoryOnHand, records...), "Avg Units Per SKU")
	assert.False(t, avg.Available)

	// no location column means no utilization KPI at all
	assert.Len(t, evaluate(Distribution, record.InventoryOnHand, records...), 2)
}

func TestSalesKPIs(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		rec("sku", "A", "time_period", "2024-01-01", "quantity", 10, "revenue", "150"),
		rec("sku", "B", "time_period", "2024-01-05", "quantity", "6", "revenue", 90.5),
		rec("sku", "A", "time_period", "2024-01-03", "quantity", 4),
	}
	base := evaluate(Generic, record.SalesHistory, records...)
	assert.Equal(t, []string{"Total Units Sold", "Total Revenue", "Unique SKUs"}, labels(base))
	assert.Equal(t, "20", base[0].Display)
	assert.Equal(t, "$241", base[1].Display)

	assert.Equal(t, "$12", byLabel(t, evaluate(Retail, record.SalesHistory, records...), "Avg Revenue Per Unit").Display)
	assert.Equal(t, "5", byLabel(t, evaluate(Distribution, record.SalesHistory, records...), "Daily Sales Rate").Display)
	assert.Equal(t, "10", byLabel(t, evaluate(FoodCPG, record.SalesHistory, records...), "Avg Sales Per SKU").Display)
}

func TestSalesKPIsDegenerate(t *testing.T) {
	t.Parallel()

	sameDay := []record.Record{
		rec("sku", "A", "time_period", "2024-01-01", "revenue", 5),
		rec("sku", "A", "time_period", "2024-01-01"),
	}
	rate := byLabel(t, evaluate(Distribution, record.SalesHistory, sameDay...), "Daily Sales Rate")
	assert.False(t, rate.Available)

	arpu := byLabel(t, evaluate(Retail, record.SalesHistory, sameDay...), "Avg Revenue Per Unit")
	assert.False(t, arpu.Available, "zero units sold")

	undated := []record.Record{rec("sku", "A", "quantity", 1)}
	assert.NotContains(t, labels(evaluate(Distribution, record.SalesHistory, undated...)), "Daily Sales Rate")
}

func TestPurchaseOrderKPIs(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		rec("purchase_order_id", "PO1", "sku", "A", "quantity", 10, "cost", 1000, "vendor", "Acme"),
		rec("purchase_order_id", "PO2", "sku", "B", "quantity", 5, "cost", "500", "vendor", "Globex"),
		rec("purchase_order_id", "PO3", "sku", "C", "quantity", 6, "vendor", "Acme"),
	}
	base := evaluate(Generic, record.PurchaseOrders, records...)
	assert.Equal(t, "21", byLabel(t, base, "Total Units Ordered").Display)
	assert.Equal(t, "$1,500", byLabel(t, base, "Total Order Value").Display)

	assert.Equal(t, "$500", byLabel(t, evaluate(Retail, record.PurchaseOrders, records...), "Avg Order Value").Display)
	assert.Equal(t, 2.0, byLabel(t, evaluate(Distribution, record.PurchaseOrders, records...), "Active Vendors").Value)
	assert.Equal(t, "7", byLabel(t, evaluate(FoodCPG, record.PurchaseOrders, records...), "Avg Units Per Order").Display)

	noCost := []record.Record{rec("sku", "A", "quantity", 3)}
	assert.Equal(t, NotAvailable, byLabel(t, evaluate(Generic, record.PurchaseOrders, noCost...), "Total Order Value").Display)
	assert.Equal(t, NotAvailable, byLabel(t, evaluate(Retail, record.PurchaseOrders, noCost...), "Avg Order Value").Display)
	assert.NotContains(t, labels(evaluate(Distribution, record.PurchaseOrders, noCost...)), "Active Vendors")
}

func TestItemMasterKPIs(t *testing.T) {
	t.Parallel()

	records := []record.Record{
		rec("sku", "A", "category", "Snacks", "vendor", "Acme", "price", 10, "cost", 6),
		rec("sku", "B", "category", "Drinks", "vendor", "Acme", "price", "4", "cost", "3"),
		rec("sku", "C", "category", "Snacks", "price", 0, "cost", 1),
	}
	base := evaluate(Generic, record.ItemMaster, records...)
	assert.Equal(t, []string{"Total SKUs", "Avg Margin"}, labels(base))
	assert.Equal(t, "32.5%", base[1].Display)

	assert.Equal(t, 2.0, byLabel(t, evaluate(Retail, record.ItemMaster, records...), "Product Categories").Value)
	assert.Equal(t, 1.0, byLabel(t, evaluate(Distribution, record.ItemMaster, records...), "Vendors").Value)
	assert.Equal(t, "$5", byLabel(t, evaluate(FoodCPG, record.ItemMaster, records...), "Avg Price").Display)

	bare := []record.Record{rec("sku", "A")}
	assert.Equal(t, []string{"Total SKUs"}, labels(evaluate(Retail, record.ItemMaster, bare...)))
}

func TestUnknownBusinessTypeGetsBaseOnly(t *testing.T) {
	t.Parallel()

	for _, c := range record.Categories() {
		generic := evaluate(Generic, c, inventory()...)
		unknown := evaluate(BusinessType("aerospace"), c, inventory()...)
		assert.Equal(t, generic, unknown, "category %s", c)
	}
}

func TestEvaluateEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, evaluate(Retail, record.InventoryOnHand))
	assert.Empty(t, NewTable().Evaluate(Retail, Input{Category: record.SalesHistory, Records: inventory()}))
}

func TestRegisterCustomRule(t *testing.T) {
	t.Parallel()

	tbl := DefaultTable()
	tbl.Register(record.InventoryOnHand, BusinessType("pharma"), func(in Input) (KPI, bool) {
		return kpi("Records", float64(len(in.Records)), FormatNumber), true
	})
	out := tbl.Evaluate(BusinessType("pharma"), Input{Category: record.InventoryOnHand, Records: inventory(), Params: DefaultParams()})
	assert.Equal(t, []string{"Total Inventory", "Unique SKUs", "Records"}, labels(out))
}

func TestKPIValuesFinite(t *testing.T) {
	t.Parallel()

	weird := []record.Record{rec("quantity", "Infinity"), rec("price", 0), rec("cost", "x"), rec()}
	for _, c := range record.Categories() {
		for _, bt := range []BusinessType{Retail, Distribution, FoodCPG, Generic} {
			for _, k := range evaluate(bt, c, weird...) {
				assert.False(t, math.IsNaN(k.Value) || math.IsInf(k.Value, 0), "%s/%s %s", c, bt, k.Label)
			}
		}
	}
}
