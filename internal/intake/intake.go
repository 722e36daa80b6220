// Package intake validates uploaded workbooks before they are sent to the
// classification service.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/inventory-planner/internal/apierr"
)

// DefaultMaxBytes is the upload size limit (20 MiB).
const DefaultMaxBytes int64 = 20 << 20

// FormField is the multipart field carrying the workbook.
const FormField = "file"

// Rules are the upload acceptance rules.
type Rules struct {
	MaxBytes   int64
	Extensions []string
}

// DefaultRules accepts .xlsx, .xls and .csv up to 20 MiB.
func DefaultRules() Rules {
	return Rules{MaxBytes: DefaultMaxBytes, Extensions: []string{".xlsx", ".xls", ".csv"}}
}

// Upload is an accepted file.
type Upload struct {
	Filename string
	Data     []byte
}

// Size is len(Data).
func (u Upload) Size() int64 { return int64(len(u.Data)) }

// Validate checks the name and size of a file against r.
func (r Rules) Validate(filename string, size int64) error {
	if strings.TrimSpace(filename) == "" {
		return apierr.New(apierr.MissingFile, "No file provided")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !slices.Contains(r.Extensions, ext) {
		e := apierr.New(apierr.InvalidFileType, "Invalid file type")
		e.Details = map[string]any{"filename": filename, "allowed": r.Extensions}
		return e
	}
	if r.MaxBytes > 0 && size > r.MaxBytes {
		return r.tooLarge(size)
	}
	return nil
}

func (r Rules) tooLarge(size int64) *apierr.Error {
	e := apierr.New(apierr.FileTooLarge, "File too large")
	e.Suggestions = []string{
		fmt.Sprintf("Please upload a file smaller than %dMB", r.MaxBytes>>20),
		"Consider splitting large workbooks into smaller ones",
	}
	e.Details = map[string]any{"size": size, "max_bytes": r.MaxBytes}
	return e
}

// FromRequest reads the workbook from a multipart request and validates it.
// Read failures other than a missing part are returned as eris errors.
func (r Rules) FromRequest(req *http.Request) (*Upload, error) {
	limit := r.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	// The body limit allows 1 MiB of multipart framing on top of the file.
	req.Body = http.MaxBytesReader(nil, req.Body, limit+1<<20)

	file, header, err := req.FormFile(FormField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, r.tooLarge(tooBig.Limit)
		}
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, apierr.New(apierr.MissingFile, "No file provided")
		}
		return nil, eris.Wrap(err, "intake: read form")
	}
	defer file.Close()

	if err := r.Validate(header.Filename, header.Size); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, limit+1)); err != nil {
		return nil, eris.Wrap(err, "intake: read file")
	}
	if err := r.Validate(header.Filename, int64(buf.Len())); err != nil {
		return nil, err
	}
	return &Upload{Filename: filepath.Base(header.Filename), Data: buf.Bytes()}, nil
}
