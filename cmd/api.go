package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-planner/internal/apierr"
	"github.com/sells-group/inventory-planner/internal/intake"
	"github.com/sells-group/inventory-planner/internal/model"
	"github.com/sells-group/inventory-planner/internal/monitoring"
	"github.com/sells-group/inventory-planner/internal/record"
	"github.com/sells-group/inventory-planner/internal/report"
	"github.com/sells-group/inventory-planner/internal/schema"
	"github.com/sells-group/inventory-planner/internal/store"
)

// Classifier sends a workbook to the classification service.
type Classifier interface {
	Classify(ctx context.Context, filename string, data []byte) (*model.UploadResponse, error)
}

// api holds the dependencies of the HTTP handlers. classifier and store
// may be nil.
type api struct {
	builder    *report.Builder
	registry   *schema.Registry
	rules      intake.Rules
	classifier Classifier
	store      store.Store
	metrics    *monitoring.Metrics
	origins    []string
}

// uploadResult is the body of a successful upload.
type uploadResult struct {
	UploadID string                `json:"upload_id,omitempty"`
	Response *model.UploadResponse `json:"response"`
	Report   *report.Report        `json:"report"`
}

// errorBody is the error envelope returned by every endpoint.
type errorBody struct {
	Error       string          `json:"error"`
	ErrorType   apierr.Type     `json:"error_type"`
	Severity    apierr.Severity `json:"severity"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Details     map[string]any  `json:"details,omitempty"`
}

func buildMux(a *api) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := a.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Post("/upload", a.handleUpload)
		r.Post("/analyze", a.handleAnalyze)
		r.Get("/schemas", a.handleSchemas)
		r.Get("/schemas/{category}", a.handleSchema)

		if a.store != nil {
			r.Route("/uploads", func(r chi.Router) {
				r.Get("/", a.handleListUploads)
				r.Get("/{id}", a.handleGetUpload)
				r.Delete("/{id}", a.handleDeleteUpload)
				r.Get("/{id}/report", a.handleUploadReport)
			})
		}
	})

	return r
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apierr.As(err)
	status := e.Type.HTTPStatus()
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	render.Status(r, status)
	render.JSON(w, r, errorBody{
		Error:       e.Message,
		ErrorType:   e.Type,
		Severity:    e.Severity(),
		Suggestions: e.Suggestions,
		Details:     e.Details,
	})
}

func notFound(w http.ResponseWriter, r *http.Request, msg string) {
	e := apierr.New(apierr.Unknown, msg)
	render.Status(r, http.StatusNotFound)
	render.JSON(w, r, errorBody{Error: e.Message, ErrorType: e.Type, Severity: e.Severity()})
}

// buildReport builds and observes the report of resp.
func (a *api) buildReport(resp *model.UploadResponse) *report.Report {
	start := time.Now()
	rep := a.builder.Build(resp)
	a.metrics.ObserveReport(time.Since(start))
	for _, cr := range rep.Categories {
		if cr.Quality != nil {
			a.metrics.ObserveQuality(string(cr.Category), string(cr.Quality.Label))
		}
	}
	return rep
}

func (a *api) handleUpload(w http.ResponseWriter, r *http.Request) {
	up, err := a.rules.FromRequest(r)
	if err != nil {
		a.metrics.ObserveUpload("rejected")
		writeError(w, r, err)
		return
	}
	if a.classifier == nil {
		a.metrics.ObserveUpload("error")
		writeError(w, r, apierr.New(apierr.Unknown, "Classification service is not configured"))
		return
	}

	log := zap.L().With(
		zap.String("filename", up.Filename),
		zap.Int64("size", up.Size()),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)

	resp, err := a.classifier.Classify(r.Context(), up.Filename, up.Data)
	if err != nil {
		e := apierr.As(err)
		outcome := "rejected"
		if e.Type == apierr.Unknown {
			outcome = "error"
		}
		a.metrics.ObserveUpload(outcome)
		log.Warn("upload failed", zap.String("error_type", string(e.Type)), zap.Error(err))
		// Failures are stored as error-only snapshots.
		a.saveSnapshot(r.Context(), log, model.NewSnapshot(up.Filename, up.Size(),
			model.ErrorResponse(string(e.Type), e.Message, e.Suggestions, e.Details)))
		writeError(w, r, e)
		return
	}

	out := uploadResult{Response: resp, Report: a.buildReport(resp)}
	out.UploadID = a.saveSnapshot(r.Context(), log, model.NewSnapshot(up.Filename, up.Size(), resp))

	outcome := "ok"
	if resp.Partial() {
		outcome = "partial"
	}
	a.metrics.ObserveUpload(outcome)
	log.Info("upload processed",
		zap.String("outcome", outcome),
		zap.String("business_type", resp.BusinessType()),
		zap.Int("categories", len(out.Report.Categories)),
	)

	render.JSON(w, r, out)
}

// saveSnapshot stores snap when a store is configured and returns its ID, or
// "" when nothing was stored. The save outlives a cancelled request.
func (a *api) saveSnapshot(ctx context.Context, log *zap.Logger, snap *model.Snapshot) string {
	if a.store == nil {
		return ""
	}
	if err := a.store.SaveSnapshot(context.WithoutCancel(ctx), snap); err != nil {
		log.Warn("failed to save snapshot", zap.Error(err))
		return ""
	}
	return snap.ID
}

func (a *api) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var resp model.UploadResponse
	if err := render.DecodeJSON(r.Body, &resp); err != nil {
		e := apierr.New(apierr.FileReadError, "Could not read upload response")
		e.Details = map[string]any{"cause": err.Error()}
		writeError(w, r, e)
		return
	}
	render.JSON(w, r, a.buildReport(&resp))
}

func (a *api) handleSchemas(w http.ResponseWriter, r *http.Request) {
	var out []*schema.Schema
	for _, c := range a.registry.Categories() {
		if s, ok := a.registry.Get(c); ok {
			out = append(out, s)
		}
	}
	render.JSON(w, r, out)
}

func (a *api) handleSchema(w http.ResponseWriter, r *http.Request) {
	c, ok := record.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		notFound(w, r, "Unknown category")
		return
	}
	s, ok := a.registry.Get(c)
	if !ok {
		notFound(w, r, "Unknown category")
		return
	}
	render.JSON(w, r, s)
}

func (a *api) handleListUploads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	snaps, err := a.store.ListSnapshots(r.Context(), store.SnapshotFilter{
		BusinessType: q.Get("business_type"),
		Limit:        cast.ToInt(q.Get("limit")),
		Offset:       cast.ToInt(q.Get("offset")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []model.Snapshot{}
	}
	render.JSON(w, r, snaps)
}

func (a *api) snapshot(w http.ResponseWriter, r *http.Request) (*model.Snapshot, bool) {
	snap, err := a.store.GetSnapshot(r.Context(), chi.URLParam(r, "id"))
	if store.IsNotFound(err) {
		notFound(w, r, "Upload not found")
		return nil, false
	}
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return snap, true
}

func (a *api) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	if snap, ok := a.snapshot(w, r); ok {
		render.JSON(w, r, snap)
	}
}

func (a *api) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	if snap, ok := a.snapshot(w, r); ok {
		render.JSON(w, r, a.buildReport(snap.Response))
	}
}

func (a *api) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	err := a.store.DeleteSnapshot(r.Context(), chi.URLParam(r, "id"))
	if store.IsNotFound(err) {
		notFound(w, r, "Upload not found")
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
