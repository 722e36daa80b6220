package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inventory-planner/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "inventory-planner",
	Short: "Inventory planning metrics and aggregation engine",
	Long:  "Validates inventory workbooks, sends them to the classification service and turns the extracted records into quality verdicts, KPIs and per-category reports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
