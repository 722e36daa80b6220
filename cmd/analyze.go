package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/inventory-planner/internal/insight"
	"github.com/sells-group/inventory-planner/internal/model"
	"github.com/sells-group/inventory-planner/internal/record"
	"github.com/sells-group/inventory-planner/internal/report"
	"github.com/sells-group/inventory-planner/internal/workbook"
)

var (
	analyzeConcurrency  int
	analyzeFormat       string
	analyzeBusinessType string
	analyzeCategory     string
)

// analysis is the outcome of one analyzed file.
type analysis struct {
	File   string         `json:"file"`
	Report *report.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Build reports from saved upload responses or normalized workbooks",
	Long: `Builds reports offline. A .json file is read as a saved upload response.
An .xlsx workbook is read one sheet per category, and a .csv file as the
category named by --category or by the file name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(analyzeFormat); err != nil {
			return err
		}
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		var category record.Category
		if analyzeCategory != "" {
			c, ok := record.ParseCategory(analyzeCategory)
			if !ok {
				return eris.Errorf("unknown category %q", analyzeCategory)
			}
			category = c
		}

		builder, err := newBuilder(cfg)
		if err != nil {
			return err
		}

		results, err := analyzeFiles(cmd.Context(), builder, args, analyzeOptions{
			concurrency:  analyzeConcurrency,
			businessType: insight.ParseBusinessType(analyzeBusinessType),
			category:     category,
		})
		if err != nil {
			return err
		}
		return writeAnalyses(cmd.OutOrStdout(), results, analyzeFormat)
	},
}

type analyzeOptions struct {
	concurrency  int
	businessType insight.BusinessType
	category     record.Category
}

// analyzeFiles builds one report per file concurrently. Results keep the
// order of files; a failed file carries its error instead of a report. The
// only error returned is ctx's, when it is cancelled before every file ran.
func analyzeFiles(ctx context.Context, builder *report.Builder, files []string, opts analyzeOptions) ([]analysis, error) {
	if opts.concurrency <= 0 {
		opts.concurrency = 4
	}

	results := make([]analysis, len(files))
	var g errgroup.Group
	g.SetLimit(opts.concurrency)

	for i, path := range files {
		g.Go(func() error {
			results[i].File = path
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := analyzeFile(ctx, builder, path, opts)
			if err != nil {
				zap.L().Warn("analyze: file failed", zap.String("file", path), zap.Error(err))
				results[i].Error = err.Error()
				return nil
			}
			results[i].Report = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func analyzeFile(ctx context.Context, builder *report.Builder, path string, opts analyzeOptions) (*report.Report, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "analyze: read %s", path)
		}
		var resp model.UploadResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, eris.Wrapf(err, "analyze: decode %s", path)
		}
		return builder.Build(&resp), nil
	}

	sets, err := workbook.ReadFile(ctx, path, opts.category)
	if err != nil {
		return nil, err
	}
	return builder.BuildSets(opts.businessType, sets), nil
}

func writeAnalyses(out io.Writer, results []analysis, format string) error {
	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}

	if format == formatJSON {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		for i, r := range results {
			if i > 0 {
				_, _ = fmt.Fprintln(out)
			}
			if r.Error != "" {
				_, _ = fmt.Fprintf(out, "== %s\nERROR: %s\n", r.File, r.Error)
				continue
			}
			formatReport(out, r.File, r.Report)
		}
	}

	if failed > 0 {
		return eris.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeConcurrency, "concurrency", 4, "files analyzed in parallel")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", formatText, "output format: json or text")
	analyzeCmd.Flags().StringVar(&analyzeBusinessType, "business-type", "generic", "business type for workbooks without a classification")
	analyzeCmd.Flags().StringVar(&analyzeCategory, "category", "", "category of CSV input (default from the file name)")
	rootCmd.AddCommand(analyzeCmd)
}
