package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-planner/internal/apierr"
	"github.com/sells-group/inventory-planner/internal/model"
	"github.com/sells-group/inventory-planner/internal/report"
)

var (
	classifySave   bool
	classifyFormat string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Send a workbook to the classification service and print its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(classifyFormat); err != nil {
			return err
		}
		if err := cfg.Validate("classify"); err != nil {
			return err
		}
		if classifySave && !cfg.Store.Enabled() {
			return eris.New("--save requires store.driver")
		}

		ctx := cmd.Context()
		path := args[0]

		info, err := os.Stat(path)
		if err != nil {
			return eris.Wrapf(err, "classify: stat %s", path)
		}
		name := filepath.Base(path)
		if err := intakeRules(cfg).Validate(name, info.Size()); err != nil {
			return describeError(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "classify: read %s", path)
		}

		builder, err := newBuilder(cfg)
		if err != nil {
			return err
		}

		resp, err := newClassifier(cfg, nil).Classify(ctx, name, data)
		if err != nil {
			return describeError(err)
		}
		rep := builder.Build(resp)

		out := struct {
			UploadID string         `json:"upload_id,omitempty"`
			Report   *report.Report `json:"report"`
		}{Report: rep}

		if classifySave {
			st, err := initStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			snap := model.NewSnapshot(name, int64(len(data)), resp)
			if err := st.SaveSnapshot(ctx, snap); err != nil {
				return err
			}
			out.UploadID = snap.ID
			zap.L().Info("upload saved", zap.String("id", snap.ID), zap.String("file", name))
		}

		if classifyFormat == formatJSON {
			return writeJSON(cmd.OutOrStdout(), out)
		}
		formatReport(cmd.OutOrStdout(), name, rep)
		return nil
	},
}

// describeError renders a taxonomy error with its suggestions for the
// terminal.
func describeError(err error) error {
	e := apierr.As(err)
	msg := e.Message
	for _, s := range e.Suggestions {
		msg += "\n  * " + s
	}
	if e.Type == apierr.Unknown {
		zap.L().Debug("classify: underlying error", zap.Error(err))
	}
	return eris.Errorf("%s: %s", e.Type, msg)
}

func init() {
	classifyCmd.Flags().BoolVar(&classifySave, "save", false, "store the upload snapshot")
	classifyCmd.Flags().StringVar(&classifyFormat, "format", formatText, "output format: json or text")
	rootCmd.AddCommand(classifyCmd)
}
