package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/inventory-planner/internal/record"
)

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	reg := Default()
	assert.Equal(t, record.Categories(), reg.Categories())

	inv, ok := reg.Get(record.InventoryOnHand)
	require.True(t, ok)
	assert.Len(t, inv.Fields, 3)
	assert.Len(t, inv.Required(), 2)

	po, ok := reg.Get(record.PurchaseOrders)
	require.True(t, ok)
	f, ok := po.Field("has_arrived")
	require.True(t, ok)
	assert.Equal(t, TypeBool, f.Type)
	assert.False(t, f.Required)

	names := make([]string, 0, len(po.Required()))
	for _, f := range po.Required() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"purchase_order_id", "sku", "quantity", "arrival_date"}, names)

	im, ok := reg.Get(record.ItemMaster)
	require.True(t, ok)
	assert.Len(t, im.Required(), 1)
}

func TestGetUnknownCategory(t *testing.T) {
	t.Parallel()

	s, ok := Default().Get(record.Category("forecast"))
	assert.False(t, ok)
	assert.Nil(t, s)

	var nilReg *Registry
	_, ok = nilReg.Get(record.SalesHistory)
	assert.False(t, ok)
}

func writeSchemaFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverride(t *testing.T) {
	t.Parallel()

	path := writeSchemaFile(t, `
schemas:
  Inventory On Hand:
    - {name: SKU, required: true, type: str, validation: alphanumeric}
    - {name: quantity, required: true, type: float}
    - {name: Bin Location}
`)
	reg, err := Load(path)
	require.NoError(t, err)

	inv, ok := reg.Get(record.InventoryOnHand)
	require.True(t, ok)
	require.Len(t, inv.Fields, 3)
	assert.Equal(t, "sku", inv.Fields[0].Name)
	assert.Equal(t, "bin_location", inv.Fields[2].Name)
	assert.Equal(t, TypeString, inv.Fields[2].Type)

	// untouched categories keep their defaults
	sales, ok := reg.Get(record.SalesHistory)
	require.True(t, ok)
	assert.Len(t, sales.Fields, 6)
}

func TestLoadEmptyPath(t *testing.T) {
	t.Parallel()

	reg, err := Load("")
	require.NoError(t, err)
	assert.Len(t, reg.Categories(), 4)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown category", "schemas:\n  forecast:\n    - {name: sku}\n", "unknown category"},
		{"unknown type", "schemas:\n  item_master:\n    - {name: sku, type: int}\n", "unknown type"},
		{"duplicate field", "schemas:\n  item_master:\n    - {name: sku}\n    - {name: SKU}\n", "twice"},
		{"missing name", "schemas:\n  item_master:\n    - {required: true}\n", "without a name"},
		{"bad yaml", "schemas: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeSchemaFile(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema: read")
}
