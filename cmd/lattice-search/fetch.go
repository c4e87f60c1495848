package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lattice-search/internal/materialize"
	"github.com/pdiddy/lattice-search/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [codes...]",
	Short: "Materialize structure files for PDB codes",
	Long: `Fetch resolves PDB codes to single-chain structure files without
running a search: from a local sharded mirror when --mirror is given,
otherwise by download from the PDBe archive. Entries that cannot be
resolved are reported and skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("mirror", "", "copy from this local PDB mirror instead of downloading")
	fetchCmd.Flags().String("dest", "models", "destination directory")
	fetchCmd.Flags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	fetchCmd.Flags().Duration("delay", defaultDelay, "delay between consecutive downloads")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more 4-character PDB codes")
	}

	hits := make([]types.LatticeHit, 0, len(args))
	for _, code := range args {
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 4 {
			return fmt.Errorf("invalid PDB code %q", code)
		}
		hits = append(hits, types.LatticeHit{PDBCode: code})
	}

	dest, _ := cmd.Flags().GetString("dest")
	mirror, _ := cmd.Flags().GetString("mirror")

	var summary materialize.Summary
	var err error
	if mirror != "" {
		_, summary, err = materialize.CopyBatch(hits, mirror, dest, os.Stdout)
	} else {
		cfg := materializeConfig(cmd, dest)
		client := &http.Client{Timeout: cfg.Timeout}
		_, summary, err = materialize.DownloadBatch(cmd.Context(), client, hits, cfg, os.Stdout)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nresolved %d, skipped %d, failed %d (total: %d)\n",
		summary.Resolved, summary.Skipped, summary.Failed, summary.Total())
	if summary.Failed > 0 {
		return fmt.Errorf("%d entries failed to resolve", summary.Failed)
	}
	return nil
}
