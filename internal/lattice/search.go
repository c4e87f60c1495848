// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lattice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/lattice-search/internal/latticedb"
	"github.com/pdiddy/lattice-search/internal/materialize"
	"github.com/pdiddy/lattice-search/internal/symmetry"
	"github.com/pdiddy/lattice-search/pkg/types"
)

// ErrNoSearch is returned by hit-consuming operations when no search has
// completed on this engine. A completed search with zero hits is not an
// error; only using the engine before running one is.
var ErrNoSearch = errors.New("no lattice search has been run")

// Options control a single search call. The zero value is usable;
// withDefaults fills in the standard parameters.
type Options struct {
	// Tolerance is the per-parameter match window as a fraction of the
	// query Niggli cell (default 0.05).
	Tolerance float64

	// MaxToKeep is the number of top-ranked hits retained (default 50).
	MaxToKeep int

	// MaxPenalty discards matching entries whose total penalty reaches
	// this cutoff (default 12).
	MaxPenalty float64
}

func (o Options) withDefaults() Options {
	if o.Tolerance <= 0 {
		o.Tolerance = 0.05
	}
	if o.MaxToKeep <= 0 {
		o.MaxToKeep = 50
	}
	if o.MaxPenalty <= 0 {
		o.MaxPenalty = 12
	}
	return o
}

// Engine runs lattice searches against one database file and resolves
// candidate structures into a models directory. An Engine holds no open
// handles between calls: the database is opened, streamed, and closed
// within each Search. Independent Engine instances share no mutable
// state and may be constructed concurrently; a single instance is
// single-threaded.
type Engine struct {
	dbPath    string
	modelsDir string

	hits     []types.LatticeHit
	searched bool
}

// NewEngine binds an engine to a lattice database file, which must exist.
// If the database is older than the freshness window a rebuild warning is
// written to w, but the engine is still returned.
func NewEngine(databasePath, modelsDir string, w io.Writer) (*Engine, error) {
	info, err := os.Stat(databasePath)
	if err != nil {
		return nil, fmt.Errorf("lattice database: %w", err)
	}
	if age := time.Since(info.ModTime()); age > latticedb.FreshnessWindow {
		fmt.Fprintf(w, "warning: lattice database is %d days old, consider rebuilding with \"lattice-search db create\"\n",
			int(age.Hours()/24))
	}
	return &Engine{dbPath: databasePath, modelsDir: modelsDir}, nil
}

// Hits returns the ranked hits from the most recent completed search.
func (e *Engine) Hits() ([]types.LatticeHit, error) {
	if !e.searched {
		return nil, ErrNoSearch
	}
	return e.hits, nil
}

// Search scans the lattice database for entries whose Niggli cell matches
// the query. The space group is normalized, the query cell reduced, and
// every database record passed through the cheap tolerance gate before
// scoring. Surviving entries below the penalty cutoff are deduplicated by
// PDB code (first occurrence wins), ranked by ascending total penalty, and
// truncated to the top MaxToKeep.
//
// A reduction failure aborts the whole call with a *symmetry.InvalidCellError.
// Zero hits is a valid outcome, not an error.
func (e *Engine) Search(ctx context.Context, spaceGroup string, cell types.UnitCell, opts Options, w io.Writer) ([]types.LatticeHit, error) {
	opts = opts.withDefaults()

	sg := symmetry.Normalize(spaceGroup)
	query, err := symmetry.ReduceToNiggli(cell, sg)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "query Niggli cell: %s\n", query)

	tol := ToleranceVector(query, opts.Tolerance)

	store, err := latticedb.Open(e.dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	seen := make(map[string]struct{})
	var hits []types.LatticeHit

	stats, err := store.Scan(ctx, func(rec latticedb.Record) {
		if !WithinTolerance(query, rec.Cell, tol) {
			return
		}
		total, length, angle := Penalty(query, rec.Cell)
		if total >= opts.MaxPenalty {
			return
		}
		key := strings.ToUpper(rec.Code)
		if _, dup := seen[key]; dup {
			// A later row for the same entry is an alternate Niggli
			// setting; the first occurrence wins.
			return
		}
		seen[key] = struct{}{}
		hits = append(hits, types.LatticeHit{
			PDBCode:          rec.Code,
			PDBPath:          filepath.Join(e.modelsDir, rec.Code+".pdb"),
			Alt:              rec.Alt,
			Cell:             rec.Cell,
			VolumeDifference: VolumeDifference(query, rec.Cell),
			TotalPenalty:     total,
			LengthPenalty:    length,
			AnglePenalty:     angle,
			Probability:      Probability(total),
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].TotalPenalty < hits[j].TotalPenalty
	})
	if len(hits) > opts.MaxToKeep {
		hits = hits[:opts.MaxToKeep]
	}

	e.hits = hits
	e.searched = true

	fmt.Fprintf(w, "scanned %d entries: %d hits kept", stats.Rows, len(hits))
	if stats.Corrupt > 0 {
		fmt.Fprintf(w, ", %d corrupt rows skipped", stats.Corrupt)
	}
	fmt.Fprintln(w)
	return hits, nil
}

// CopyHits resolves the retained hits from a local sharded PDB mirror
// into destDir. Hits whose source file is missing are dropped from the
// result list with a warning; a partial mirror is expected and tolerated.
func (e *Engine) CopyHits(mirrorDir, destDir string, w io.Writer) error {
	if !e.searched {
		return ErrNoSearch
	}
	kept, summary, err := materialize.CopyBatch(e.hits, mirrorDir, destDir, w)
	if err != nil {
		return err
	}
	e.hits = kept
	fmt.Fprintf(w, "\ncopied %d, skipped %d, dropped %d\n", summary.Resolved, summary.Skipped, summary.Failed)
	return nil
}

// DownloadHits resolves the retained hits by network download into
// destDir. Per-entry download failures drop that hit with a warning;
// one failed download never aborts the batch.
func (e *Engine) DownloadHits(ctx context.Context, client *http.Client, cfg types.MaterializeConfig, w io.Writer) error {
	if !e.searched {
		return ErrNoSearch
	}
	kept, summary, err := materialize.DownloadBatch(ctx, client, e.hits, cfg, w)
	if err != nil {
		return err
	}
	e.hits = kept
	fmt.Fprintf(w, "\ndownloaded %d, skipped %d, dropped %d\n", summary.Resolved, summary.Skipped, summary.Failed)
	return nil
}
