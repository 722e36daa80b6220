package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/inventory-planner/internal/store"
)

var (
	uploadsBusinessType string
	uploadsLimit        int
	uploadsOffset       int
	uploadsSince        time.Duration
	uploadsFormat       string
)

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Inspect stored upload snapshots",
}

var uploadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored uploads, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(uploadsFormat); err != nil {
			return err
		}
		return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
			filter := store.SnapshotFilter{
				BusinessType: uploadsBusinessType,
				Limit:        uploadsLimit,
				Offset:       uploadsOffset,
			}
			if uploadsSince > 0 {
				filter.CreatedAfter = time.Now().Add(-uploadsSince)
			}
			snaps, err := st.ListSnapshots(ctx, filter)
			if err != nil {
				return err
			}
			if uploadsFormat == formatJSON {
				return writeJSON(cmd.OutOrStdout(), snaps)
			}
			formatSnapshots(cmd.OutOrStdout(), snaps)
			return nil
		})
	},
}

var uploadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored upload with its classifier response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
			snap, err := st.GetSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		})
	},
}

var uploadsReportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Recompute the report of a stored upload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validFormat(uploadsFormat); err != nil {
			return err
		}
		builder, err := newBuilder(cfg)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
			snap, err := st.GetSnapshot(ctx, args[0])
			if err != nil {
				return err
			}
			rep := builder.Build(snap.Response)
			if uploadsFormat == formatJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			formatReport(cmd.OutOrStdout(), snap.Filename, rep)
			return nil
		})
	},
}

var uploadsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored upload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, st store.Store) error {
			return st.DeleteSnapshot(ctx, args[0])
		})
	},
}

// withStore validates the store config, opens the store for fn and closes
// it afterwards.
func withStore(ctx context.Context, fn func(context.Context, store.Store) error) error {
	if err := cfg.Validate("uploads"); err != nil {
		return err
	}
	st, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	return fn(ctx, st)
}

func init() {
	uploadsListCmd.Flags().StringVar(&uploadsBusinessType, "business-type", "", "only uploads classified as this business type")
	uploadsListCmd.Flags().IntVar(&uploadsLimit, "limit", 100, "maximum uploads to list")
	uploadsListCmd.Flags().IntVar(&uploadsOffset, "offset", 0, "uploads to skip")
	uploadsListCmd.Flags().DurationVar(&uploadsSince, "since", 0, "only uploads newer than this (e.g. 24h)")
	for _, c := range []*cobra.Command{uploadsListCmd, uploadsReportCmd} {
		c.Flags().StringVar(&uploadsFormat, "format", formatText, "output format: json or text")
	}

	uploadsCmd.AddCommand(uploadsListCmd, uploadsShowCmd, uploadsReportCmd, uploadsDeleteCmd)
	rootCmd.AddCommand(uploadsCmd)
}
