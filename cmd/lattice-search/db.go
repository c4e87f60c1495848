package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lattice-search/internal/latticedb"
	"github.com/pdiddy/lattice-search/pkg/types"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Build and maintain the lattice database",
}

var dbCreateCmd = &cobra.Command{
	Use:   "create [report.csv]",
	Short: "Build the lattice database from a PDB custom-report CSV",
	Long: `Create builds the lattice database from scratch. The input is a PDB
custom-report CSV export with columns structureId, a, b, c, alpha, beta,
gamma, spaceGroup and optionally experimentalTechnique. Every row is
Niggli-reduced before storage; an existing database file is replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args[0], true)
	},
}

var dbUpdateCmd = &cobra.Command{
	Use:   "update [report.csv]",
	Short: "Merge a PDB custom-report CSV into an existing database",
	Long: `Update reduces and upserts the report rows into an existing database
instead of rebuilding it, for incremental refreshes from a partial export.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args[0], false)
	},
}

func init() {
	dbCmd.PersistentFlags().String("db", "", "lattice database file")

	dbCmd.AddCommand(dbCreateCmd)
	dbCmd.AddCommand(dbUpdateCmd)
	rootCmd.AddCommand(dbCmd)
}

func runBuild(cmd *cobra.Command, reportPath string, rebuild bool) error {
	cfg := databaseConfig(cmd)

	if rebuild {
		if err := os.Remove(cfg.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing old database: %w", err)
		}
	}

	store, err := latticedb.Create(cfg.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(os.Stderr, "storing database in %s\n", cfg.Path)
	summary, err := latticedb.Build(cmd.Context(), reportPath, store, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Reduced == 0 {
		return fmt.Errorf("no usable entries in %s", reportPath)
	}
	return nil
}

func databaseConfig(cmd *cobra.Command) types.DatabaseConfig {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = viper.GetString("database.path")
	}
	return types.DatabaseConfig{Path: path}
}
