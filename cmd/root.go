package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeropenalty/riskzone/internal/config"
)

const appVersion = "0.1.0"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "riskzone",
	Short: "Driver risk-zone evaluation engine",
	Long:  "Evaluates GPS positions and speeds against static and dynamic risk zones, fusing road class, amenities, hazards and time-of-day into alerts and penalties.",
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
