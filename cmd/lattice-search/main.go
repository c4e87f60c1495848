// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lattice-search CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the lattice-search CLI.
var rootCmd = &cobra.Command{
	Use:   "lattice-search",
	Short: "Molecular-replacement candidate search by unit-cell lattice matching",
	Long: `lattice-search matches the Niggli-reduced unit cell of an experimental
diffraction dataset against a database of reduced cells for every
crystallographic PDB entry, ranks the matches by geometric penalty, and
resolves the top candidates to structure files ready for molecular
replacement.

The database is built offline with "lattice-search db create" from a PDB
custom-report export and should be rebuilt every few months as the archive
grows.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./lattice-search.yaml or ~/.config/lattice-search/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lattice-search")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lattice-search"))
		}
	}

	viper.SetEnvPrefix("LATTICE_SEARCH")
	viper.AutomaticEnv()

	viper.SetDefault("database.path", "lattice.db")
	viper.SetDefault("search.models_dir", "models")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
