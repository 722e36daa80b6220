// Package quality scores how completely a record set fills its category
// schema and labels the result.
package quality

import (
	"github.com/sells-group/inventory-planner/internal/record"
	"github.com/sells-group/inventory-planner/internal/schema"
)

// Label is the overall quality verdict for a record set.
type Label string

const (
	Excellent      Label = "Excellent"
	Good           Label = "Good"
	Fair           Label = "Fair"
	NeedsAttention Label = "Needs Attention"
)

// Status buckets a single field's completeness for display.
type Status string

const (
	StatusComplete Status = "Complete"
	StatusGood     Status = "Good"
	StatusFair     Status = "Fair"
	StatusLow      Status = "Low"
)

// Thresholds are the percentage cut-offs used for labels and field status.
// All comparisons except the required == 100 check are strict.
type Thresholds struct {
	ExcellentOverall float64 `json:"excellent_overall"`
	GoodOverall      float64 `json:"good_overall"`
	FairRequired     float64 `json:"fair_required"`
	FieldGood        float64 `json:"field_good"`
	FieldFair        float64 `json:"field_fair"`
}

// DefaultThresholds returns the standard cut-offs (90/75/95, fields 90/75).
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExcellentOverall: 90,
		GoodOverall:      75,
		FairRequired:     95,
		FieldGood:        90,
		FieldFair:        75,
	}
}

// FieldStat is the completeness of one schema field.
type FieldStat struct {
	Field        string           `json:"field"`
	Required     bool             `json:"required"`
	Type         schema.FieldType `json:"type"`
	Filled       int              `json:"filled"`
	Completeness float64          `json:"completeness"`
	Status       Status           `json:"status"`
}

// Verdict is the quality assessment of one record set.
type Verdict struct {
	Category             record.Category `json:"category"`
	RecordCount          int             `json:"record_count"`
	Fields               []FieldStat     `json:"fields"`
	RequiredCompleteness float64         `json:"required_completeness"`
	OverallCompleteness  float64         `json:"overall_completeness"`
	Label                Label           `json:"label"`
}

// Scorer computes verdicts against a fixed set of thresholds.
type Scorer struct {
	th Thresholds
}

// NewScorer returns a Scorer using th.
func NewScorer(th Thresholds) *Scorer {
	return &Scorer{th: th}
}

// Score evaluates records against s. It returns false, with no verdict, when
// the schema is absent, declares no fields, or there are no records.
func (sc *Scorer) Score(records []record.Record, s *schema.Schema) (*Verdict, bool) {
	if s == nil || len(s.Fields) == 0 || len(records) == 0 {
		return nil, false
	}

	total := float64(len(records))
	v := &Verdict{
		Category:    s.Category,
		RecordCount: len(records),
		Fields:      make([]FieldStat, 0, len(s.Fields)),
	}

	var reqSum, allSum float64
	var reqN int
	for _, f := range s.Fields {
		filled := 0
		for _, r := range records {
			if r.Has(f.Name) {
				filled++
			}
		}
		pct := float64(filled) / total * 100
		v.Fields = append(v.Fields, FieldStat{
			Field:        f.Name,
			Required:     f.Required,
			Type:         f.Type,
			Filled:       filled,
			Completeness: pct,
			Status:       sc.StatusFor(pct),
		})
		allSum += pct
		if f.Required {
			reqSum += pct
			reqN++
		}
	}

	v.RequiredCompleteness = 100
	if reqN > 0 {
		v.RequiredCompleteness = reqSum / float64(reqN)
	}
	v.OverallCompleteness = allSum / float64(len(s.Fields))
	v.Label = sc.LabelFor(v.RequiredCompleteness, v.OverallCompleteness)
	return v, true
}

// LabelFor maps the two completeness figures to a label. First match wins.
func (sc *Scorer) LabelFor(required, overall float64) Label {
	switch {
	case required == 100 && overall > sc.th.ExcellentOverall:
		return Excellent
	case required == 100 && overall > sc.th.GoodOverall:
		return Good
	case required > sc.th.FairRequired:
		return Fair
	default:
		return NeedsAttention
	}
}

// StatusFor buckets a single field completeness.
func (sc *Scorer) StatusFor(pct float64) Status {
	switch {
	case pct == 100:
		return StatusComplete
	case pct > sc.th.FieldGood:
		return StatusGood
	case pct > sc.th.FieldFair:
		return StatusFair
	default:
		return StatusLow
	}
}
