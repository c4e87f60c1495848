// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the lattice-search pipeline.
package types

import "fmt"

// UnitCell holds the six parameters of a crystallographic unit cell:
// edge lengths a, b, c in Ångström and angles alpha, beta, gamma in degrees.
// Construct with NewUnitCell to guarantee the geometric bounds; a UnitCell
// is never mutated after construction.
type UnitCell struct {
	A     float64 `json:"a" yaml:"a"`
	B     float64 `json:"b" yaml:"b"`
	C     float64 `json:"c" yaml:"c"`
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
}

// NewUnitCell validates the parameters and returns a UnitCell. Lengths must
// be positive and angles must lie strictly between 0 and 180 degrees.
func NewUnitCell(a, b, c, alpha, beta, gamma float64) (UnitCell, error) {
	for _, v := range [3]float64{a, b, c} {
		if v <= 0 {
			return UnitCell{}, fmt.Errorf("unit cell length must be positive, got %g", v)
		}
	}
	for _, v := range [3]float64{alpha, beta, gamma} {
		if v <= 0 || v >= 180 {
			return UnitCell{}, fmt.Errorf("unit cell angle must be in (0, 180), got %g", v)
		}
	}
	return UnitCell{A: a, B: b, C: c, Alpha: alpha, Beta: beta, Gamma: gamma}, nil
}

// Parameters returns the cell as a 6-element array in (a, b, c, alpha,
// beta, gamma) order, the order used throughout scoring and storage.
func (u UnitCell) Parameters() [6]float64 {
	return [6]float64{u.A, u.B, u.C, u.Alpha, u.Beta, u.Gamma}
}

// CellFromParameters is the inverse of Parameters. It performs no
// validation; use it only for values already known to be a valid cell.
func CellFromParameters(p [6]float64) UnitCell {
	return UnitCell{A: p[0], B: p[1], C: p[2], Alpha: p[3], Beta: p[4], Gamma: p[5]}
}

// String renders the cell in the conventional compact form.
func (u UnitCell) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f, %.2f, %.2f, %.2f)",
		u.A, u.B, u.C, u.Alpha, u.Beta, u.Gamma)
}
