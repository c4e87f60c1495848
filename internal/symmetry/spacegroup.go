// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package symmetry

import (
	"math"
	"strings"

	"github.com/pdiddy/lattice-search/pkg/types"
)

// sgAnomalies maps space-group spellings that appear in deposited PDB
// headers but are non-standard or ambiguous to their canonical form.
var sgAnomalies = map[string]string{
	"A1":      "P1",
	"B2":      "B112",
	"C1211":   "C2",
	"F422":    "I422",
	"I21":     "I2",
	"I1211":   "I2",
	"P21212A": "P212121",
	"R3":      "R3:R",
	"C4212":   "P422",
}

// Normalize maps known anomalous space-group spellings to a canonical
// symbol. Unmapped symbols pass through unchanged; any string is accepted.
func Normalize(sg string) string {
	if canonical, ok := sgAnomalies[sg]; ok {
		return canonical
	}
	return sg
}

// Centering matrices: column j gives primitive basis vector j in the
// conventional basis. Applying one to the metric tensor converts a
// centered conventional cell to a primitive cell of the same lattice.
var (
	identityOp = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	aCenteredOp = [3][3]float64{{1, 0, 0}, {0, 0.5, -0.5}, {0, 0.5, 0.5}}
	bCenteredOp = [3][3]float64{{0.5, 0, -0.5}, {0, 1, 0}, {0.5, 0, 0.5}}
	cCenteredOp = [3][3]float64{{0.5, -0.5, 0}, {0.5, 0.5, 0}, {0, 0, 1}}
	iCenteredOp = [3][3]float64{{-0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, -0.5}}
	fCenteredOp = [3][3]float64{{0, 0.5, 0.5}, {0.5, 0, 0.5}, {0.5, 0.5, 0}}

	// Obverse rhombohedral lattice described on hexagonal axes.
	rHexagonalOp = [3][3]float64{
		{2. / 3, -1. / 3, -1. / 3},
		{1. / 3, 1. / 3, -2. / 3},
		{1. / 3, 1. / 3, 1. / 3},
	}
)

// angleTol is the tolerance, in degrees, used when checking cell angles
// against the constraints of the lattice system.
const angleTol = 1.0

// latticeSystem captures the angle constraints a space-group symbol
// imposes on its cell. Orthorhombic, tetragonal and cubic groups share
// one constraint (all angles 90) and need not be told apart here.
type latticeSystem int

const (
	systemTriclinic latticeSystem = iota
	systemMonoclinicB // unique axis b: alpha = gamma = 90
	systemMonoclinicC // unique axis c: alpha = beta = 90
	systemOrthogonal  // orthorhombic, tetragonal, cubic: all angles 90
	systemHexagonal   // trigonal/hexagonal axes: 90, 90, 120
	systemRhombohedral
)

// classify parses a compact space-group symbol into the
// conventional-to-primitive change of basis and the lattice system the
// symbol implies. The symbol must be a centering letter followed by
// symmetry digits, with an optional :R or :H setting suffix on
// R-centered groups; anything else is rejected. For R groups without a
// suffix the setting is resolved from the cell shape, mirroring the
// rhombohedral-setting correction done at database build time.
func classify(sg string, cell types.UnitCell) ([3][3]float64, latticeSystem, bool) {
	symbol := strings.TrimSpace(sg)
	suffix := ""
	for _, s := range []string{":R", ":H"} {
		if strings.HasSuffix(symbol, s) {
			suffix = s
			symbol = strings.TrimSuffix(symbol, s)
		}
	}
	if len(symbol) < 2 {
		return identityOp, 0, false
	}
	centering := symbol[0]
	digits := symbol[1:]
	if suffix != "" && centering != 'R' {
		return identityOp, 0, false
	}
	for _, ch := range digits {
		if ch < '1' || ch > '6' {
			return identityOp, 0, false
		}
	}
	// '5' only occurs as a screw-axis subscript, never first.
	if digits[0] == '5' {
		return identityOp, 0, false
	}

	if centering == 'R' {
		op := identityOp
		if suffix == ":H" || (suffix == "" && looksHexagonal(cell)) {
			op = rHexagonalOp
		}
		return op, systemRhombohedral, true
	}

	system, ok := systemForDigits(digits)
	if !ok {
		return identityOp, 0, false
	}

	switch centering {
	case 'P', 'H':
		return identityOp, system, true
	case 'A':
		return aCenteredOp, system, true
	case 'B':
		return bCenteredOp, system, true
	case 'C':
		return cCenteredOp, system, true
	case 'I':
		return iCenteredOp, system, true
	case 'F':
		return fCenteredOp, system, true
	}
	return identityOp, 0, false
}

// systemForDigits maps the symmetry-digit part of a symbol to its
// lattice system. Monoclinic groups appear both in short form (21) and
// with explicit unit axes (1211, 112); cubic and tetragonal collapse
// into the all-angles-90 case.
func systemForDigits(digits string) (latticeSystem, bool) {
	switch digits {
	case "1":
		return systemTriclinic, true
	case "2", "21", "121", "1211":
		return systemMonoclinicB, true
	case "112", "1121":
		return systemMonoclinicC, true
	}
	switch digits[0] {
	case '3', '6':
		return systemHexagonal, true
	case '2', '4':
		return systemOrthogonal, true
	}
	return 0, false
}

// angleViolation reports why the cell angles are inconsistent with the
// lattice system, or "" when they satisfy its constraints.
func angleViolation(system latticeSystem, cell types.UnitCell) string {
	right := func(x float64) bool { return math.Abs(x-90) <= angleTol }
	switch system {
	case systemMonoclinicB:
		if !right(cell.Alpha) || !right(cell.Gamma) {
			return "monoclinic cell requires alpha = gamma = 90"
		}
	case systemMonoclinicC:
		if !right(cell.Alpha) || !right(cell.Beta) {
			return "monoclinic cell requires alpha = beta = 90"
		}
	case systemOrthogonal:
		if !right(cell.Alpha) || !right(cell.Beta) || !right(cell.Gamma) {
			return "cell requires all angles 90"
		}
	case systemHexagonal:
		if !right(cell.Alpha) || !right(cell.Beta) || math.Abs(cell.Gamma-120) > angleTol {
			return "hexagonal cell requires alpha = beta = 90, gamma = 120"
		}
	case systemRhombohedral:
		// Deposited R-group cells come in two legitimate shapes; the
		// build stores both interpretations, so either passes here.
		if looksHexagonal(cell) {
			return ""
		}
		if math.Abs(cell.Alpha-cell.Beta) > angleTol || math.Abs(cell.Beta-cell.Gamma) > angleTol {
			return "rhombohedral cell requires alpha = beta = gamma or the hexagonal setting"
		}
	}
	return ""
}

// looksHexagonal reports whether the cell has the alpha=beta=90,
// gamma=120 shape of a hexagonal-axes rhombohedral setting.
func looksHexagonal(cell types.UnitCell) bool {
	return math.Abs(cell.Alpha-90) < angleTol &&
		math.Abs(cell.Beta-90) < angleTol &&
		math.Abs(cell.Gamma-120) < angleTol
}
