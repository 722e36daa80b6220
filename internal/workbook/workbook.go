// Package workbook reads normalized workbooks into record sets: an XLSX file
// with one sheet per category, or a CSV file holding a single category.
package workbook

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/inventory-planner/internal/record"
)

// ReadFile reads path by extension. For CSV files the category is taken from
// category when set, otherwise from the file's base name
// ("sales_history.csv").
func ReadFile(ctx context.Context, path string, category record.Category) ([]record.Set, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return ReadXLSX(path)
	case ".csv":
		if category == "" {
			c, ok := record.ParseCategory(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
			if !ok {
				return nil, eris.Errorf("workbook: cannot infer category from %q", filepath.Base(path))
			}
			category = c
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "workbook: open csv")
		}
		defer f.Close()

		records, err := ReadCSV(ctx, f, CSVOptions{})
		if err != nil {
			return nil, err
		}
		return []record.Set{{Category: category, Records: records}}, nil
	default:
		return nil, eris.Errorf("workbook: unsupported file type %q", ext)
	}
}

// fromRow builds a record from a header and a row of cell text. Empty
// headers and empty cells are dropped; a row with no values yields false.
func fromRow(header, cells []string) (record.Record, bool) {
	fields := make([]record.Field, 0, len(header))
	for i, name := range header {
		if name == "" || i >= len(cells) {
			continue
		}
		v := record.Infer(cells[i])
		if v.IsEmpty() {
			continue
		}
		fields = append(fields, record.Field{Name: name, Value: v})
	}
	if len(fields) == 0 {
		return record.Record{}, false
	}
	return record.New(fields...), true
}

func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = record.NormalizeKey(c)
	}
	return out
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
