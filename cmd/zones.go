package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeropenalty/riskzone/internal/zonestore"
)

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Manage the static zone database",
}

var zonesValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a zone JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := zonestore.NewFileSource(args[0])
		zones, err := source.Load(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d zones OK\n", args[0], len(zones))
		return nil
	},
}

var zonesImportDB string

var zonesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a zone JSON document into a SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := zonestore.NewFileSource(args[0])
		zones, err := source.Load(cmd.Context())
		if err != nil {
			return err
		}

		dbPath := zonesImportDB
		if dbPath == "" {
			dbPath = cfg.Zones.Path
		}
		db, err := zonestore.NewSQLite(dbPath)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}
		count, err := db.Import(cmd.Context(), zones)
		if err != nil {
			return err
		}

		zap.L().Info("zones imported",
			zap.String("from", args[0]),
			zap.String("db", dbPath),
			zap.Int("count", count),
		)
		fmt.Printf("imported %d zones into %s\n", count, dbPath)
		return nil
	},
}

func init() {
	zonesImportCmd.Flags().StringVar(&zonesImportDB, "db", "", "SQLite database path (default zones.path from config)")
	zonesCmd.AddCommand(zonesValidateCmd)
	zonesCmd.AddCommand(zonesImportCmd)
	rootCmd.AddCommand(zonesCmd)
}
