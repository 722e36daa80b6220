package model

import (
	"encoding/json"
	"strings"

	"github.com/sells-group/inventory-planner/internal/record"
)

// Classification is the classifier's verdict on a workbook.
type Classification struct {
	IsInventoryPlanning bool               `json:"is_inventory_planning"`
	Confidence          float64            `json:"confidence"`
	BusinessType        string             `json:"business_type"`
	CategoryConfidence  map[string]float64 `json:"category_confidence,omitempty"`
	Justification       string             `json:"justification"`
}

// justificationSep delimits sentences in Classification.Justification.
const justificationSep = ". "

// Reasons splits the justification into sentences. Empty pieces are
// dropped and every reason ends with a single period.
func (c Classification) Reasons() []string {
	var out []string
	for _, part := range strings.Split(c.Justification, justificationSep) {
		part = strings.TrimSpace(part)
		part = strings.TrimRight(part, ".")
		if part == "" {
			continue
		}
		out = append(out, part+".")
	}
	return out
}

// ExtractedData holds the records the extraction service pulled out of a
// workbook, keyed by category name.
type ExtractedData map[string][]record.Record

// Set returns the record set for c. A missing category is an empty set.
func (d ExtractedData) Set(c record.Category) record.Set {
	return record.Set{Category: c, Records: d[string(c)]}
}

// HasData reports whether any known category holds at least one record.
func (d ExtractedData) HasData() bool {
	for _, c := range record.Categories() {
		if len(d[string(c)]) > 0 {
			return true
		}
	}
	return false
}

// Counts returns the record count per known category.
func (d ExtractedData) Counts() map[record.Category]int {
	out := make(map[record.Category]int, len(d))
	for _, c := range record.Categories() {
		out[c] = len(d[string(c)])
	}
	return out
}

// UnmarshalJSON normalizes category names so "Sales History" and
// "sales_history" land in the same set.
func (d *ExtractedData) UnmarshalJSON(data []byte) error {
	var raw map[string][]record.Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ExtractedData, len(raw))
	for k, v := range raw {
		key := record.NormalizeKey(k)
		out[key] = append(out[key], v...)
	}
	*d = out
	return nil
}

// UploadResponse is the body returned by the classification service's upload
// endpoint. Classification and error fields may both be set: extraction can
// fail after classification succeeded.
type UploadResponse struct {
	Classification *Classification `json:"classification,omitempty"`
	ExtractedData  ExtractedData   `json:"extracted_data,omitempty"`
	Error          string          `json:"error,omitempty"`
	ErrorType      string          `json:"error_type,omitempty"`
	Suggestions    []string        `json:"suggestions,omitempty"`
	Details        map[string]any  `json:"details,omitempty"`
	DebugLogs      map[string]any  `json:"debug_logs,omitempty"`
}

// ErrorResponse is the envelope recorded for an upload that produced no
// classification or data.
func ErrorResponse(errorType, message string, suggestions []string, details map[string]any) *UploadResponse {
	return &UploadResponse{
		Error:       message,
		ErrorType:   errorType,
		Suggestions: suggestions,
		Details:     details,
	}
}

// Failed reports whether the service flagged an error.
func (r *UploadResponse) Failed() bool {
	return r.Error != "" || r.ErrorType != ""
}

// Partial reports whether the response carries usable data alongside an
// error.
func (r *UploadResponse) Partial() bool {
	return r.Failed() && (r.Classification != nil || r.ExtractedData.HasData())
}

// BusinessType returns the classified business type, "generic" when absent.
func (r *UploadResponse) BusinessType() string {
	if r.Classification == nil || r.Classification.BusinessType == "" {
		return "generic"
	}
	return r.Classification.BusinessType
}
