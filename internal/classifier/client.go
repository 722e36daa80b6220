// Package classifier is the HTTP client for the external workbook
// classification and extraction service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/inventory-planner/internal/apierr"
	"github.com/sells-group/inventory-planner/internal/model"
	"github.com/sells-group/inventory-planner/internal/resilience"
)

// UploadPath is the service endpoint that classifies and extracts a workbook.
const UploadPath = "/api/upload"

const maxResponseBytes = 64 << 20

// Options configure a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
	Backoff    resilience.Backoff
	Breaker    resilience.BreakerOptions
	HTTPClient *http.Client
	// Observe, when set, receives the outcome and latency of every attempt.
	Observe func(outcome string, d time.Duration)
}

// Client uploads workbooks to the classification service.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	policy  resilience.Policy
	observe func(string, time.Duration)
}

// New returns a Client. Timeout defaults to 2 minutes and the rate to 2
// requests per second.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Breaker.Name == "" {
		opts.Breaker.Name = "classifier"
	}
	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
		policy: resilience.Policy{
			Name:    "classifier",
			Breaker: resilience.NewBreaker(opts.Breaker),
			Backoff: opts.Backoff,
		},
		observe: opts.Observe,
	}
}

// Breaker exposes the client's circuit breaker state.
func (c *Client) Breaker() *resilience.Breaker { return c.policy.Breaker }

// Classify uploads a workbook and returns the service response. A response
// carrying both data and an error (partial extraction) is returned without
// error. An error envelope without data is returned as an *apierr.Error.
// Transport failures are returned as wrapped errors.
func (c *Client) Classify(ctx context.Context, filename string, data []byte) (*model.UploadResponse, error) {
	body, contentType, err := encode(filename, data)
	if err != nil {
		return nil, err
	}

	resp, err := resilience.Call(ctx, c.policy, func(ctx context.Context) (*model.UploadResponse, error) {
		return c.post(ctx, body, contentType)
	})
	if err != nil {
		return nil, err
	}

	if resp.Failed() && !resp.Partial() {
		return nil, apierr.FromEnvelope(resp.ErrorType, resp.Error, resp.Suggestions, resp.Details)
	}
	return resp, nil
}

func encode(filename string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", eris.Wrap(err, "classifier: create form file")
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", eris.Wrap(err, "classifier: write form file")
	}
	if err := w.Close(); err != nil {
		return nil, "", eris.Wrap(err, "classifier: close form")
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, body []byte, contentType string) (*model.UploadResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "classifier: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+UploadPath, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "classifier: build request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.record("transport_error", start)
		return nil, eris.Wrap(err, "classifier: post upload")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		c.record("transport_error", start)
		return nil, eris.Wrap(err, "classifier: read response")
	}

	var out model.UploadResponse
	decodeErr := json.Unmarshal(raw, &out)

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		if decodeErr != nil {
			c.record("bad_response", start)
			return nil, eris.Wrap(decodeErr, "classifier: decode response")
		}
		c.record("ok", start)
		return &out, nil
	case decodeErr == nil && out.Failed():
		// Error envelopes are final whatever the status.
		c.record("rejected", start)
		zap.L().Info("classifier rejected upload",
			zap.Int("status", res.StatusCode),
			zap.String("error_type", out.ErrorType),
		)
		return &out, nil
	case resilience.IsTransientStatus(res.StatusCode):
		c.record("unavailable", start)
		return nil, resilience.Transient(eris.Errorf("classifier: status %d", res.StatusCode), res.StatusCode)
	default:
		c.record("bad_status", start)
		return nil, eris.Errorf("classifier: unexpected status %d", res.StatusCode)
	}
}

func (c *Client) record(outcome string, start time.Time) {
	if c.observe != nil {
		c.observe(outcome, time.Since(start))
	}
}
