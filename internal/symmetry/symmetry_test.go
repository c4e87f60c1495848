package symmetry

import (
	"errors"
	"math"
	"testing"

	"github.com/pdiddy/lattice-search/pkg/types"
)

func mustCell(t *testing.T, a, b, c, alpha, beta, gamma float64) types.UnitCell {
	t.Helper()
	cell, err := types.NewUnitCell(a, b, c, alpha, beta, gamma)
	if err != nil {
		t.Fatalf("NewUnitCell: %v", err)
	}
	return cell
}

// --- Normalize ---

func TestNormalizeKnownAnomalies(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A1", "P1"},
		{"B2", "B112"},
		{"C1211", "C2"},
		{"F422", "I422"},
		{"I21", "I2"},
		{"I1211", "I2"},
		{"P21212A", "P212121"},
		{"R3", "R3:R"},
		{"C4212", "P422"},
		{"UNKNOWNSG", "UNKNOWNSG"},
		{"P212121", "P212121"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	symbols := []string{"A1", "B2", "C1211", "F422", "I21", "I1211", "P21212A", "R3", "C4212", "P1", "C2", "X999"}
	for _, sg := range symbols {
		once := Normalize(sg)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", sg, once, twice)
		}
	}
}

// --- Volume ---

func TestVolumeOrthorhombic(t *testing.T) {
	cell := mustCell(t, 73.58, 38.73, 23.19, 90, 90, 90)
	want := 73.58 * 38.73 * 23.19
	if got := Volume(cell); math.Abs(got-want) > 1e-6 {
		t.Errorf("Volume = %f, want %f", got, want)
	}
}

func TestVolumeTriclinic(t *testing.T) {
	// Against the general formula evaluated independently.
	cell := mustCell(t, 10, 12, 14, 80, 95, 100)
	ca := math.Cos(80 * math.Pi / 180)
	cb := math.Cos(95 * math.Pi / 180)
	cg := math.Cos(100 * math.Pi / 180)
	want := 10 * 12 * 14 * math.Sqrt(1-ca*ca-cb*cb-cg*cg+2*ca*cb*cg)
	if got := Volume(cell); math.Abs(got-want) > 1e-9 {
		t.Errorf("Volume = %f, want %f", got, want)
	}
}

// --- ReduceToNiggli ---

func TestReducePrimitiveOrthorhombicSortsAxes(t *testing.T) {
	cell := mustCell(t, 73.58, 38.73, 23.19, 90, 90, 90)
	reduced, err := ReduceToNiggli(cell, "P212121")
	if err != nil {
		t.Fatalf("ReduceToNiggli: %v", err)
	}
	want := [6]float64{23.19, 38.73, 73.58, 90, 90, 90}
	got := reduced.Parameters()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("reduced[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestReduceIsIdempotentOnReducedCell(t *testing.T) {
	cell := mustCell(t, 23.19, 38.73, 73.58, 90, 90, 90)
	reduced, err := ReduceToNiggli(cell, "P1")
	if err != nil {
		t.Fatalf("ReduceToNiggli: %v", err)
	}
	got := reduced.Parameters()
	want := cell.Parameters()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("reduced[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestReduceFaceCentredCubic(t *testing.T) {
	// The fcc conventional cell reduces to the rhombohedral primitive
	// cell: edge a/sqrt(2), all angles 60 degrees.
	cell := mustCell(t, 4, 4, 4, 90, 90, 90)
	reduced, err := ReduceToNiggli(cell, "F23")
	if err != nil {
		t.Fatalf("ReduceToNiggli: %v", err)
	}
	edge := 4 / math.Sqrt2
	got := reduced.Parameters()
	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-edge) > 1e-6 {
			t.Errorf("edge[%d] = %f, want %f", i, got[i], edge)
		}
	}
	for i := 3; i < 6; i++ {
		if math.Abs(got[i]-60) > 1e-6 {
			t.Errorf("angle[%d] = %f, want 60", i, got[i])
		}
	}
}

func TestReduceBodyCentredCubic(t *testing.T) {
	// The bcc primitive cell: edge a*sqrt(3)/2, angles 109.471 degrees.
	cell := mustCell(t, 4, 4, 4, 90, 90, 90)
	reduced, err := ReduceToNiggli(cell, "I23")
	if err != nil {
		t.Fatalf("ReduceToNiggli: %v", err)
	}
	edge := 4 * math.Sqrt(3) / 2
	angle := math.Acos(-1.0/3.0) * 180 / math.Pi
	got := reduced.Parameters()
	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-edge) > 1e-6 {
			t.Errorf("edge[%d] = %f, want %f", i, got[i], edge)
		}
	}
	for i := 3; i < 6; i++ {
		if math.Abs(got[i]-angle) > 1e-6 {
			t.Errorf("angle[%d] = %f, want %f", i, got[i], angle)
		}
	}
}

func TestReducePreservesPrimitiveVolume(t *testing.T) {
	// The reduced cell is a primitive cell of the same lattice, so its
	// volume is the conventional volume divided by the centering order.
	tests := []struct {
		name  string
		sg    string
		cell  types.UnitCell
		order float64
	}{
		{"primitive", "P21", mustCell(t, 11, 13, 17, 90, 101, 90), 1},
		{"c centred", "C2", mustCell(t, 25, 15, 11, 90, 105, 90), 2},
		{"i centred", "I422", mustCell(t, 14, 14, 30, 90, 90, 90), 2},
		{"f centred", "F222", mustCell(t, 20, 24, 30, 90, 90, 90), 4},
		{"r hexagonal", "R32:H", mustCell(t, 4.99, 4.99, 17.06, 90, 90, 120), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reduced, err := ReduceToNiggli(tt.cell, tt.sg)
			if err != nil {
				t.Fatalf("ReduceToNiggli: %v", err)
			}
			want := Volume(tt.cell) / tt.order
			if got := Volume(reduced); math.Abs(got-want) > 1e-6*want {
				t.Errorf("Volume(reduced) = %f, want %f", got, want)
			}
		})
	}
}

func TestReduceRhombohedralSettingCorrection(t *testing.T) {
	// An R group with a hexagonal-shaped cell must be treated as the
	// hexagonal setting even without an explicit :H suffix.
	hexCell := mustCell(t, 4.99, 4.99, 17.06, 90, 90, 120)
	implicit, err := ReduceToNiggli(hexCell, "R32")
	if err != nil {
		t.Fatalf("ReduceToNiggli(R32): %v", err)
	}
	explicit, err := ReduceToNiggli(hexCell, "R32:H")
	if err != nil {
		t.Fatalf("ReduceToNiggli(R32:H): %v", err)
	}
	gi, ge := implicit.Parameters(), explicit.Parameters()
	for i := range gi {
		if math.Abs(gi[i]-ge[i]) > 1e-9 {
			t.Errorf("setting correction mismatch at %d: %f vs %f", i, gi[i], ge[i])
		}
	}
}

func TestReduceUnrecognizedSpaceGroup(t *testing.T) {
	cell := mustCell(t, 10, 10, 10, 90, 90, 90)
	symbols := []string{
		"Q212121", // unknown centering letter
		"P9ZZ",    // non-digit symmetry characters
		"P9",      // no nine-fold axis exists
		"P5",      // five-fold only occurs as a screw subscript
		"P",       // centering letter alone
		"",
		"P212121:H", // setting suffix on a non-R group
	}
	for _, sg := range symbols {
		_, err := ReduceToNiggli(cell, sg)
		var invalid *InvalidCellError
		if !errors.As(err, &invalid) {
			t.Errorf("ReduceToNiggli(%q): err = %v, want *InvalidCellError", sg, err)
		}
	}
}

func TestReduceGroupInconsistentAngles(t *testing.T) {
	tests := []struct {
		name string
		sg   string
		cell types.UnitCell
	}{
		{"orthorhombic oblique alpha", "P212121", mustCell(t, 73.58, 38.73, 23.19, 80, 90, 90)},
		{"monoclinic oblique alpha", "P21", mustCell(t, 11, 13, 17, 95, 101, 90)},
		{"c unique monoclinic oblique beta", "B112", mustCell(t, 10, 11, 12, 90, 95, 100)},
		{"tetragonal hexagonal gamma", "I422", mustCell(t, 14, 14, 30, 90, 90, 120)},
		{"cubic oblique gamma", "I23", mustCell(t, 4, 4, 4, 90, 90, 95)},
		{"hexagonal right gamma", "P61", mustCell(t, 5, 5, 17, 90, 90, 90)},
		{"rhombohedral unequal angles", "R32:R", mustCell(t, 10, 10, 10, 70, 80, 95)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReduceToNiggli(tt.cell, tt.sg)
			var invalid *InvalidCellError
			if !errors.As(err, &invalid) {
				t.Fatalf("err = %v, want *InvalidCellError", err)
			}
		})
	}
}

func TestReduceAcceptsConsistentAngles(t *testing.T) {
	tests := []struct {
		name string
		sg   string
		cell types.UnitCell
	}{
		{"monoclinic free beta", "P21", mustCell(t, 11, 13, 17, 90, 101, 90)},
		{"c unique monoclinic free gamma", "B112", mustCell(t, 10, 11, 12, 90, 90, 100)},
		{"trigonal", "P3121", mustCell(t, 5, 5, 17, 90, 90, 120)},
		{"rhombohedral axes", "R3:R", mustCell(t, 10, 10, 10, 85, 85, 85)},
		{"hexagonal setting without suffix", "R32", mustCell(t, 4.99, 4.99, 17.06, 90, 90, 120)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReduceToNiggli(tt.cell, tt.sg); err != nil {
				t.Fatalf("ReduceToNiggli: %v", err)
			}
		})
	}
}

func TestReduceGeometricallyInconsistentCell(t *testing.T) {
	// Angles that cannot close a parallelepiped.
	cell := mustCell(t, 10, 10, 10, 170, 170, 170)
	_, err := ReduceToNiggli(cell, "P1")
	var invalid *InvalidCellError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want *InvalidCellError", err)
	}
}

func TestNewUnitCellValidation(t *testing.T) {
	if _, err := types.NewUnitCell(0, 10, 10, 90, 90, 90); err == nil {
		t.Error("zero length accepted")
	}
	if _, err := types.NewUnitCell(10, 10, 10, 90, 180, 90); err == nil {
		t.Error("180 degree angle accepted")
	}
	if _, err := types.NewUnitCell(10, 10, 10, 90, 90, 90); err != nil {
		t.Errorf("valid cell rejected: %v", err)
	}
}
