package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/inventory-planner/internal/insight"
	"github.com/sells-group/inventory-planner/internal/model"
	"github.com/sells-group/inventory-planner/internal/report"
	"github.com/sells-group/inventory-planner/internal/schema"
)

const (
	formatJSON = "json"
	formatText = "text"
)

func validFormat(f string) error {
	switch f {
	case formatJSON, formatText:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or text)", f)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatReport writes a text summary of rep to out.
func formatReport(out io.Writer, name string, rep *report.Report) {
	_, _ = fmt.Fprintf(out, "== %s\n", name)
	_, _ = fmt.Fprintf(out, "Business type: %s\n", rep.BusinessType)
	if c := rep.Classification; c != nil {
		_, _ = fmt.Fprintf(out, "Inventory planning: %t (confidence %s)\n", c.IsInventoryPlanning, c.ConfidenceDisplay)
		for _, reason := range c.Reasons {
			_, _ = fmt.Fprintf(out, "  - %s\n", reason)
		}
	}
	if e := rep.Error; e != nil {
		_, _ = fmt.Fprintf(out, "%s: %s (%s)\n", strings.ToUpper(string(e.Severity)), e.Message, e.Type)
		for _, s := range e.Suggestions {
			_, _ = fmt.Fprintf(out, "  * %s\n", s)
		}
	}
	if len(rep.Categories) == 0 {
		_, _ = fmt.Fprintln(out, "No records extracted.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tRECORDS\tQUALITY\tREQUIRED\tOVERALL")
	_, _ = fmt.Fprintln(w, "--------\t-------\t-------\t--------\t-------")
	for _, cr := range rep.Categories {
		label, req, all := "-", "-", "-"
		if q := cr.Quality; q != nil {
			label = string(q.Label)
			req = insight.FormatPercent(q.RequiredCompleteness)
			all = insight.FormatPercent(q.OverallCompleteness)
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", cr.Category, cr.RecordCount, label, req, all)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tKPI\tVALUE")
	_, _ = fmt.Fprintln(w, "--------\t---\t-----")
	for _, cr := range rep.Categories {
		for _, k := range cr.KPIs {
			display := k.Display
			if k.Highlight {
				display += " !"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", cr.Category, k.Label, display)
		}
	}
	_ = w.Flush()
}

// formatSchemas writes each schema's fields to out.
func formatSchemas(out io.Writer, schemas []*schema.Schema) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tFIELD\tTYPE\tREQUIRED\tVALIDATION")
	_, _ = fmt.Fprintln(w, "--------\t-----\t----\t--------\t----------")
	for _, s := range schemas {
		for _, f := range s.Fields {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", s.Category, f.Name, f.Type, f.Required, f.Validation)
		}
	}
	_ = w.Flush()
}

// formatSnapshots writes a tabular list of stored uploads to out.
func formatSnapshots(out io.Writer, snaps []model.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tFILENAME\tBUSINESS\tINVENTORY\tERROR\tRECORDS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t--------\t--------\t---------\t-----\t-------\t-------")
	for _, s := range snaps {
		total := 0
		for _, n := range s.Counts {
			total += n
		}
		name := s.Filename
		if len(name) > 30 {
			name = name[:27] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%d\t%s\n",
			s.ID,
			name,
			s.BusinessType,
			s.IsInventoryPlanning,
			s.ErrorType,
			total,
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}
