package workbook

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-planner/internal/record"
)

// ReadXLSX opens an XLSX file and reads it with ParseXLSX semantics.
func ReadXLSX(path string) ([]record.Set, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return sheetsToSets(f), nil
}

// ParseXLSX reads an in-memory workbook. Each sheet named after a category
// ("Sales History", "item_master") becomes one set, in category order.
// Other sheets are skipped.
func ParseXLSX(data []byte) ([]record.Set, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open binary")
	}
	return sheetsToSets(f), nil
}

func sheetsToSets(f *xlsx.File) []record.Set {
	byCategory := make(map[record.Category][]record.Record)
	for _, sheet := range f.Sheets {
		c, ok := record.ParseCategory(sheet.Name)
		if !ok {
			zap.L().Debug("skipping sheet", zap.String("sheet", sheet.Name))
			continue
		}
		byCategory[c] = append(byCategory[c], sheetRecords(sheet)...)
	}

	var sets []record.Set
	for _, c := range record.Categories() {
		if recs, ok := byCategory[c]; ok {
			sets = append(sets, record.Set{Category: c, Records: recs})
		}
	}
	return sets
}

func sheetRecords(sheet *xlsx.Sheet) []record.Record {
	var header []string
	var out []record.Record
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)
		if blank(cells) {
			continue
		}
		if header == nil {
			header = normalizeHeader(cells)
			continue
		}
		if rec, ok := fromRow(header, cells); ok {
			out = append(out, rec)
		}
	}
	return out
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
