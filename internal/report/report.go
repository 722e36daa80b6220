// Package report composes the engine into per-category reports for an
// upload response. Reports are pure functions of the response, the schema
// registry and the builder's options.
package report

import (
	"go.uber.org/zap"

	"github.com/sells-group/inventory-planner/internal/apierr"
	"github.com/sells-group/inventory-planner/internal/derive"
	"github.com/sells-group/inventory-planner/internal/insight"
	"github.com/sells-group/inventory-planner/internal/model"
	"github.com/sells-group/inventory-planner/internal/quality"
	"github.com/sells-group/inventory-planner/internal/record"
	"github.com/sells-group/inventory-planner/internal/schema"
)

// Options configure a Builder. Zero values fall back to the defaults.
type Options struct {
	Registry   *schema.Registry
	Thresholds quality.Thresholds
	Params     insight.Params
	CostBounds []float64
	Table      *insight.Table
}

// Builder turns upload responses into reports.
type Builder struct {
	registry   *schema.Registry
	scorer     *quality.Scorer
	table      *insight.Table
	params     insight.Params
	costRanges []derive.Range
}

// NewBuilder returns a Builder for opts.
func NewBuilder(opts Options) *Builder {
	if opts.Registry == nil {
		opts.Registry = schema.Default()
	}
	if opts.Thresholds == (quality.Thresholds{}) {
		opts.Thresholds = quality.DefaultThresholds()
	}
	if opts.Params == (insight.Params{}) {
		opts.Params = insight.DefaultParams()
	}
	if opts.Params.TopN <= 0 {
		opts.Params.TopN = insight.DefaultParams().TopN
	}
	if len(opts.CostBounds) == 0 {
		opts.CostBounds = derive.DefaultCostBounds
	}
	if opts.Table == nil {
		opts.Table = insight.DefaultTable()
	}
	return &Builder{
		registry:   opts.Registry,
		scorer:     quality.NewScorer(opts.Thresholds),
		table:      opts.Table,
		params:     opts.Params,
		costRanges: derive.RangesFromBounds(opts.CostBounds),
	}
}

// Report is the structured result handed to a presentation layer.
type Report struct {
	BusinessType   insight.BusinessType    `json:"business_type"`
	Classification *ClassificationSummary  `json:"classification,omitempty"`
	Error          *ErrorInfo              `json:"error,omitempty"`
	Counts         map[record.Category]int `json:"counts"`
	Categories     []*CategoryReport       `json:"categories"`
}

// Category returns the report for c, or nil.
func (r *Report) Category(c record.Category) *CategoryReport {
	for _, cr := range r.Categories {
		if cr.Category == c {
			return cr
		}
	}
	return nil
}

// ClassificationSummary is the classifier verdict prepared for display.
type ClassificationSummary struct {
	IsInventoryPlanning bool               `json:"is_inventory_planning"`
	Confidence          float64            `json:"confidence"`
	ConfidenceDisplay   string             `json:"confidence_display"`
	BusinessType        string             `json:"business_type"`
	CategoryConfidence  map[string]float64 `json:"category_confidence,omitempty"`
	Reasons             []string           `json:"reasons"`
}

// ErrorInfo is an error envelope with its severity resolved.
type ErrorInfo struct {
	Type        apierr.Type     `json:"type"`
	Severity    apierr.Severity `json:"severity"`
	Message     string          `json:"message"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Details     map[string]any  `json:"details,omitempty"`
}

// ErrorInfoOf resolves e for display.
func ErrorInfoOf(e *apierr.Error) *ErrorInfo {
	if e == nil {
		return nil
	}
	return &ErrorInfo{
		Type:        e.Type,
		Severity:    e.Severity(),
		Message:     e.Message,
		Suggestions: e.Suggestions,
		Details:     e.Details,
	}
}

// CategoryReport holds everything computed for one record set. Exactly one
// of the category views is set.
type CategoryReport struct {
	Category    record.Category    `json:"category"`
	RecordCount int                `json:"record_count"`
	Quality     *quality.Verdict   `json:"quality,omitempty"`
	KPIs        []insight.KPI      `json:"kpis"`
	Summaries   []derive.Summary   `json:"summaries,omitempty"`
	Inventory   *InventoryView     `json:"inventory,omitempty"`
	Sales       *SalesView         `json:"sales,omitempty"`
	Purchases   *PurchaseOrderView `json:"purchase_orders,omitempty"`
	Items       *ItemMasterView    `json:"item_master,omitempty"`
}

// Build computes the report for resp. Categories without records are left
// out. An error envelope is carried alongside whatever data is present.
func (b *Builder) Build(resp *model.UploadResponse) *Report {
	if resp == nil {
		resp = &model.UploadResponse{}
	}
	bt := insight.ParseBusinessType(resp.BusinessType())
	rep := &Report{
		BusinessType: bt,
		Counts:       resp.ExtractedData.Counts(),
	}
	if c := resp.Classification; c != nil {
		rep.Classification = &ClassificationSummary{
			IsInventoryPlanning: c.IsInventoryPlanning,
			Confidence:          c.Confidence,
			ConfidenceDisplay:   insight.FormatPercent(finite(c.Confidence * 100)),
			BusinessType:        c.BusinessType,
			CategoryConfidence:  c.CategoryConfidence,
			Reasons:             c.Reasons(),
		}
	}
	if resp.Failed() {
		rep.Error = ErrorInfoOf(apierr.FromEnvelope(resp.ErrorType, resp.Error, resp.Suggestions, resp.Details))
	}

	for _, c := range record.Categories() {
		set := resp.ExtractedData.Set(c)
		if set.Len() == 0 {
			zap.L().Debug("report: skipping empty category", zap.String("category", string(c)))
			continue
		}
		rep.Categories = append(rep.Categories, b.BuildSet(bt, set))
	}
	return rep
}

// BuildSets computes a report for record sets read without the
// classification service, such as an offline workbook.
func (b *Builder) BuildSets(bt insight.BusinessType, sets []record.Set) *Report {
	data := make(model.ExtractedData, len(sets))
	for _, s := range sets {
		data[string(s.Category)] = append(data[string(s.Category)], s.Records...)
	}
	rep := &Report{BusinessType: bt, Counts: data.Counts()}
	for _, c := range record.Categories() {
		if set := data.Set(c); set.Len() > 0 {
			rep.Categories = append(rep.Categories, b.BuildSet(bt, set))
		}
	}
	return rep
}

// BuildSet computes the report of one record set.
func (b *Builder) BuildSet(bt insight.BusinessType, set record.Set) *CategoryReport {
	cr := &CategoryReport{
		Category:    set.Category,
		RecordCount: set.Len(),
		Summaries:   derive.Summarize(set.Records),
		KPIs: b.table.Evaluate(bt, insight.Input{
			Category: set.Category,
			Records:  set.Records,
			Params:   b.params,
		}),
	}
	if s, ok := b.registry.Get(set.Category); ok {
		if v, ok := b.scorer.Score(set.Records, s); ok {
			cr.Quality = v
		}
	}

	switch set.Category {
	case record.InventoryOnHand:
		cr.Inventory = b.inventory(set.Records)
	case record.SalesHistory:
		cr.Sales = b.sales(set.Records)
	case record.PurchaseOrders:
		cr.Purchases = b.purchaseOrders(set.Records)
	case record.ItemMaster:
		cr.Items = b.itemMaster(set.Records)
	}
	return cr
}
