package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lattice-search/internal/lattice"
	"github.com/pdiddy/lattice-search/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "lattice-search/0.1"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the lattice database for matching unit cells",
	Long: `Search reduces the given unit cell to its Niggli form and scans the
lattice database for PDB entries with a similar reduced cell. Matches are
ranked by geometric penalty; the top candidates can be written to a CSV
summary and resolved to structure files from a local mirror or by download.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("space-group", "", "space group of the dataset (e.g. P212121)")
	searchCmd.Flags().String("cell", "", "unit cell as a,b,c,alpha,beta,gamma")
	searchCmd.Flags().Float64("tolerance", 0.05, "per-parameter tolerance as a fraction of the query cell")
	searchCmd.Flags().Int("max-to-keep", 50, "maximum number of hits to retain")
	searchCmd.Flags().Float64("max-penalty", 12, "total-penalty cutoff")
	searchCmd.Flags().String("db", "", "lattice database file")
	searchCmd.Flags().String("models-dir", "", "directory candidate structures resolve into")
	searchCmd.Flags().String("csv", "", "write a CSV summary to this path")
	searchCmd.Flags().Bool("json", false, "output hits as JSON")
	searchCmd.Flags().String("mirror", "", "copy hit structures from this local PDB mirror")
	searchCmd.Flags().Bool("download", false, "download hit structures from the PDBe archive")
	searchCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout for downloads")
	searchCmd.Flags().Duration("delay", defaultDelay, "delay between consecutive downloads")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	spaceGroup, _ := cmd.Flags().GetString("space-group")
	if spaceGroup == "" {
		return fmt.Errorf("provide --space-group")
	}
	cellSpec, _ := cmd.Flags().GetString("cell")
	cell, err := parseCellFlag(cellSpec)
	if err != nil {
		return err
	}

	cfg := searchConfig(cmd)

	engine, err := lattice.NewEngine(cfg.DatabasePath, cfg.ModelsDir, os.Stderr)
	if err != nil {
		return err
	}

	hits, err := engine.Search(cmd.Context(), spaceGroup, cell, lattice.Options{
		Tolerance:  cfg.Tolerance,
		MaxToKeep:  cfg.MaxToKeep,
		MaxPenalty: cfg.MaxPenalty,
	}, os.Stderr)
	if err != nil {
		return err
	}

	mirror, _ := cmd.Flags().GetString("mirror")
	download, _ := cmd.Flags().GetBool("download")
	if mirror != "" {
		if err := engine.CopyHits(mirror, cfg.ModelsDir, os.Stderr); err != nil {
			return err
		}
	} else if download {
		mcfg := materializeConfig(cmd, cfg.ModelsDir)
		client := &http.Client{Timeout: mcfg.Timeout}
		if err := engine.DownloadHits(cmd.Context(), client, mcfg, os.Stderr); err != nil {
			return err
		}
	}

	// Materialization may have dropped hits; report the surviving list.
	hits, err = engine.Hits()
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		if err := lattice.FormatJSON(hits, os.Stdout); err != nil {
			return err
		}
	} else {
		lattice.FormatTable(hits, os.Stdout)
	}

	if csvPath, _ := cmd.Flags().GetString("csv"); csvPath != "" {
		if err := engine.WriteCSV(csvPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "summary written to %s\n", csvPath)
	}
	return nil
}

// --- shared helpers ---

func searchConfig(cmd *cobra.Command) types.SearchConfig {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = viper.GetString("database.path")
	}
	modelsDir, _ := cmd.Flags().GetString("models-dir")
	if modelsDir == "" {
		modelsDir = viper.GetString("search.models_dir")
	}
	tolerance, _ := cmd.Flags().GetFloat64("tolerance")
	maxToKeep, _ := cmd.Flags().GetInt("max-to-keep")
	maxPenalty, _ := cmd.Flags().GetFloat64("max-penalty")

	return types.SearchConfig{
		Tolerance:    tolerance,
		MaxToKeep:    maxToKeep,
		MaxPenalty:   maxPenalty,
		DatabasePath: dbPath,
		ModelsDir:    modelsDir,
	}
}

func materializeConfig(cmd *cobra.Command, destDir string) types.MaterializeConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	delay, _ := cmd.Flags().GetDuration("delay")
	mirror, _ := cmd.Flags().GetString("mirror")

	return types.MaterializeConfig{
		HTTPConfig:     types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
		MirrorDir:      mirror,
		DownloadDelay:  delay,
		DestinationDir: destDir,
	}
}

// parseCellFlag parses "a,b,c,alpha,beta,gamma" into a validated UnitCell.
func parseCellFlag(spec string) (types.UnitCell, error) {
	fields := strings.Split(spec, ",")
	if len(fields) != 6 {
		return types.UnitCell{}, fmt.Errorf("provide --cell as six comma-separated values (a,b,c,alpha,beta,gamma)")
	}
	var v [6]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return types.UnitCell{}, fmt.Errorf("parsing cell parameter %q: %w", f, err)
		}
		v[i] = x
	}
	return types.NewUnitCell(v[0], v[1], v[2], v[3], v[4], v[5])
}
