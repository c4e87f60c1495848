// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package materialize resolves lattice hits to physical structure files,
// either from a local sharded PDB mirror or by network download, and
// writes a metadata record beside each resolved file. Per-entry failures
// drop that entry with a warning; they never abort the batch.
package materialize

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lattice-search/internal/httputil"
	"github.com/pdiddy/lattice-search/internal/pdbfile"
	"github.com/pdiddy/lattice-search/pkg/types"
)

// pdbeEntryFilesBase is the PDBe download endpoint for legacy-format
// coordinate files.
const pdbeEntryFilesBase = "https://www.ebi.ac.uk/pdbe/entry-files/download/"

const metadataDir = "metadata"

// Summary holds the outcome of a batch materialization run.
type Summary struct {
	Resolved int
	Skipped  int
	Failed   int
}

// Total returns the number of hits processed.
func (s Summary) Total() int {
	return s.Resolved + s.Skipped + s.Failed
}

// MirrorPath returns the location of a structure in a local sharded PDB
// mirror: {root}/{middle two characters}/pdb{code}.ent.gz, all lowercase.
func MirrorPath(mirrorDir, code string) string {
	lower := strings.ToLower(code)
	return filepath.Join(mirrorDir, lower[1:3], "pdb"+lower+".ent.gz")
}

// CopyBatch resolves hits from a local mirror into destDir, rewriting
// each file to single-model, single-chain form. It returns the surviving
// hits with PDBPath set. Hits whose mirror file is missing or unreadable
// are dropped with a warning.
func CopyBatch(hits []types.LatticeHit, mirrorDir, destDir string, w io.Writer) ([]types.LatticeHit, Summary, error) {
	if err := ensureDirs(destDir); err != nil {
		return nil, Summary{}, err
	}

	var summary Summary
	kept := make([]types.LatticeHit, 0, len(hits))
	for _, hit := range hits {
		destPath := filepath.Join(destDir, hit.PDBCode+".pdb")
		if _, err := os.Stat(destPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", hit.PDBCode)
			hit.PDBPath = destPath
			kept = append(kept, hit)
			summary.Skipped++
			continue
		}

		if err := copyOne(MirrorPath(mirrorDir, hit.PDBCode), destPath); err != nil {
			fmt.Fprintf(w, "warning: could not copy %s from mirror, dropping from results: %v\n", hit.PDBCode, err)
			summary.Failed++
			continue
		}
		hit.PDBPath = destPath
		writeMetadata(hit, destDir, w)
		kept = append(kept, hit)
		summary.Resolved++
	}
	return kept, summary, nil
}

// copyOne decompresses one mirror file and writes its single-chain form
// to destPath via a temporary file. Both handles are closed before the
// function returns, whatever the outcome.
func copyOne(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	gz, err := gzip.NewReader(src)
	if err != nil {
		return fmt.Errorf("decompressing %s: %w", srcPath, err)
	}
	defer gz.Close()

	return writeReduced(gz, destPath)
}

// DownloadBatch resolves hits by downloading each entry from the PDBe
// archive into cfg.DestinationDir. Network failures are per-entry: a
// failed download drops that hit with a warning and the batch continues.
func DownloadBatch(ctx context.Context, client *http.Client, hits []types.LatticeHit, cfg types.MaterializeConfig, w io.Writer) ([]types.LatticeHit, Summary, error) {
	if err := ensureDirs(cfg.DestinationDir); err != nil {
		return nil, Summary{}, err
	}

	var summary Summary
	kept := make([]types.LatticeHit, 0, len(hits))
	for i, hit := range hits {
		destPath := filepath.Join(cfg.DestinationDir, hit.PDBCode+".pdb")
		if _, err := os.Stat(destPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", hit.PDBCode)
			hit.PDBPath = destPath
			kept = append(kept, hit)
			summary.Skipped++
			continue
		}

		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}

		fmt.Fprintf(w, "downloading: %s\n", hit.PDBCode)
		if err := downloadOne(ctx, client, hit.PDBCode, destPath, cfg, w); err != nil {
			fmt.Fprintf(w, "warning: could not download %s, dropping from results: %v\n", hit.PDBCode, err)
			summary.Failed++
			continue
		}
		hit.PDBPath = destPath
		writeMetadata(hit, cfg.DestinationDir, w)
		kept = append(kept, hit)
		summary.Resolved++
	}
	return kept, summary, nil
}

// downloadOne fetches one entry and writes its single-chain form to
// destPath via a temporary file.
func downloadOne(ctx context.Context, client *http.Client, code, destPath string, cfg types.MaterializeConfig, w io.Writer) error {
	url := pdbeEntryFilesBase + "pdb" + strings.ToLower(code) + ".ent"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, client, req, 0, w)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return writeReduced(resp.Body, destPath)
}

// writeReduced streams a PDB file through the single-chain rewrite into
// destPath, using a temporary file renamed on success.
func writeReduced(r io.Reader, destPath string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".materialize-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	reduceErr := pdbfile.ReduceToSingleChain(r, tmpFile)
	closeErr := tmpFile.Close()
	if reduceErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rewriting structure: %w", reduceErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeMetadata records the hit beside its structure file. A metadata
// write failure is reported but does not fail the entry; the structure
// file is what downstream programs need.
func writeMetadata(hit types.LatticeHit, destDir string, w io.Writer) {
	data, err := yaml.Marshal(hit)
	if err != nil {
		fmt.Fprintf(w, "  warning: metadata for %s: %v\n", hit.PDBCode, err)
		return
	}
	path := filepath.Join(destDir, metadataDir, hit.PDBCode+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fmt.Fprintf(w, "  warning: metadata for %s: %v\n", hit.PDBCode, err)
	}
}

func ensureDirs(destDir string) error {
	for _, dir := range []string{destDir, filepath.Join(destDir, metadataDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}
