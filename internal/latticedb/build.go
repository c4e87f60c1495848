// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package latticedb

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/lattice-search/internal/symmetry"
	"github.com/pdiddy/lattice-search/pkg/types"
)

// batchSize bounds the transaction size during a build so a full-PDB
// import does not hold one giant transaction open.
const batchSize = 5000

// BuildSummary holds counts from a database build run.
type BuildSummary struct {
	Reduced    int
	Alternates int
	Skipped    int
	Failed     int
}

// Total returns the number of report rows processed.
func (b BuildSummary) Total() int {
	return b.Reduced + b.Skipped + b.Failed
}

// Build populates store from a PDB custom-report CSV export with columns
// structureId, a, b, c, alpha, beta, gamma, spaceGroup and optionally
// experimentalTechnique. Each row's space group is normalized and the
// cell Niggli-reduced before insertion. Non-crystallographic entries and
// rows with missing cell parameters are skipped; reduction failures are
// counted and reported but never abort the build. Rhombohedral entries
// with an ambiguous setting also get their alternate-setting reduction
// stored under the '*' marker.
func Build(ctx context.Context, reportPath string, store *Store, w io.Writer) (BuildSummary, error) {
	f, err := os.Open(reportPath)
	if err != nil {
		return BuildSummary{}, fmt.Errorf("opening report: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var summary BuildSummary
	var batch []Record

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.InsertBatch(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("reading report: %w", err)
		}
		if len(row) > 0 && row[0] == "structureId" {
			continue
		}
		if len(row) < 8 {
			summary.Skipped++
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(row[0]))
		if len(code) != 4 {
			summary.Skipped++
			continue
		}

		// Entries from non-diffraction experiments carry no usable cell.
		if len(row) > 8 && !strings.EqualFold(strings.TrimSpace(row[8]), "X-RAY DIFFRACTION") {
			summary.Skipped++
			continue
		}

		cell, ok := parseCell(row[1:7])
		if !ok {
			// Some depositions have no stored cell parameters.
			summary.Skipped++
			continue
		}

		sg := symmetry.Normalize(strings.ReplaceAll(strings.TrimSpace(row[7]), " ", ""))

		reduced, err := symmetry.ReduceToNiggli(cell, sg)
		if err != nil {
			fmt.Fprintf(w, "failed %s: %v\n", code, err)
			summary.Failed++
			continue
		}
		batch = append(batch, Record{Code: code, Cell: reduced})
		summary.Reduced++

		if alt, ok := alternateSetting(cell, sg, reduced); ok {
			batch = append(batch, Record{Code: code, Alt: '*', Cell: alt})
			summary.Alternates++
		}

		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return summary, err
			}
		}
	}
	if err := flush(); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "reduced: %d (%d alternate settings), skipped: %d, failed: %d\n",
		summary.Reduced, summary.Alternates, summary.Skipped, summary.Failed)
	return summary, nil
}

func parseCell(fields []string) (types.UnitCell, bool) {
	var v [6]float64
	for i, s := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return types.UnitCell{}, false
		}
		v[i] = x
	}
	cell, err := types.NewUnitCell(v[0], v[1], v[2], v[3], v[4], v[5])
	if err != nil {
		return types.UnitCell{}, false
	}
	return cell, true
}

// alternateSetting reduces an R-centred entry under the other
// rhombohedral/hexagonal interpretation of its cell. Deposited R-group
// entries do not always record which setting the cell uses, so the
// database stores both and the search deduplicates whichever matches
// second. Returns false when the group is not R-centred or both
// interpretations reduce to the primary cell.
func alternateSetting(cell types.UnitCell, sg string, primary types.UnitCell) (types.UnitCell, bool) {
	if !strings.HasPrefix(sg, "R") {
		return types.UnitCell{}, false
	}
	base := strings.TrimSuffix(strings.TrimSuffix(sg, ":R"), ":H")
	for _, setting := range []string{base + ":R", base + ":H"} {
		reduced, err := symmetry.ReduceToNiggli(cell, setting)
		if err != nil {
			continue
		}
		if !sameCell(reduced, primary) {
			return reduced, true
		}
	}
	return types.UnitCell{}, false
}

func sameCell(a, b types.UnitCell) bool {
	pa, pb := a.Parameters(), b.Parameters()
	for i := range pa {
		if math.Abs(pa[i]-pb[i]) > 1e-3 {
			return false
		}
	}
	return true
}
