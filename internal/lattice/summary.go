// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lattice

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pdiddy/lattice-search/pkg/types"
)

// csvHeader matches the historical summary layout: the PDB code labels the
// row, followed by the flattened cell and all score fields.
var csvHeader = []string{
	"pdb_code", "alt", "a", "b", "c", "alpha", "beta", "gamma",
	"length_penalty", "angle_penalty", "total_penalty",
	"volume_difference", "probability_score",
}

// WriteCSV writes the retained hits to path. A completed search that
// found nothing produces a header-only file; calling WriteCSV before any
// search has run returns ErrNoSearch.
func (e *Engine) WriteCSV(path string) error {
	if !e.searched {
		return ErrNoSearch
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating summary file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing summary header: %w", err)
	}
	for _, h := range e.hits {
		p := h.Cell.Parameters()
		row := []string{
			h.PDBCode,
			h.AltMarker(),
			ftoa(p[0]), ftoa(p[1]), ftoa(p[2]), ftoa(p[3]), ftoa(p[4]), ftoa(p[5]),
			ftoa(h.LengthPenalty), ftoa(h.AnglePenalty), ftoa(h.TotalPenalty),
			ftoa(h.VolumeDifference), ftoa(h.Probability),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing summary row for %s: %w", h.PDBCode, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing summary: %w", err)
	}
	return nil
}

// FormatTable writes hits as a human-readable ranked table to w.
func FormatTable(hits []types.LatticeHit, w io.Writer) {
	if len(hits) == 0 {
		fmt.Fprintln(w, "No lattice matches found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-4s  %-3s  %-44s  %-7s  %-7s  %-7s  %-10s  %s\n",
		"Rank", "PDB", "Alt", "Niggli cell", "LenPen", "AngPen", "TotPen", "VolDiff", "Prob")
	for i, h := range hits {
		fmt.Fprintf(w, "%-4d  %-4s  %-3s  %-44s  %-7.2f  %-7.2f  %-7.2f  %-10.3f  %.3f\n",
			i+1, h.PDBCode, h.AltMarker(), h.Cell.String(),
			h.LengthPenalty, h.AnglePenalty, h.TotalPenalty,
			h.VolumeDifference, h.Probability)
	}
	fmt.Fprintf(w, "\n%d hits\n", len(hits))
}

// FormatJSON writes hits as indented JSON to w.
func FormatJSON(hits []types.LatticeHit, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(hits)
}

func ftoa(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
