package workbook

import (
	"context"
	"encoding/csv"
	"errors"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/inventory-planner/internal/record"
)

// CSVOptions configures the CSV reader.
type CSVOptions struct {
	Delimiter rune // default ','
	Comment   rune // 0 = none
}

// StreamCSV reads a CSV whose first non-blank row is the header and sends one
// record per data row. Both channels are closed when reading completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan record.Record, <-chan error) {
	recCh := make(chan record.Record, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(recCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		var header []string
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			row, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			if blank(row) {
				continue
			}
			if header == nil {
				header = normalizeHeader(row)
				continue
			}

			rec, ok := fromRow(header, row)
			if !ok {
				continue
			}
			select {
			case recCh <- rec:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return recCh, errCh
}

// ReadCSV collects every record from StreamCSV.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([]record.Record, error) {
	recCh, errCh := StreamCSV(ctx, r, opts)
	var out []record.Record
	for rec := range recCh {
		out = append(out, rec)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return out, nil
}
