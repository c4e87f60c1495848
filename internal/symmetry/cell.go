// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package symmetry provides the crystallographic capabilities the lattice
// search depends on: unit-cell geometry, space-group symbol handling, and
// reduction of a cell to its canonical Niggli form.
package symmetry

import (
	"fmt"
	"math"

	"github.com/pdiddy/lattice-search/pkg/types"
)

// InvalidCellError reports a unit cell and space group that cannot be
// reduced: the symbol is unrecognized or the parameters are geometrically
// inconsistent with the group.
type InvalidCellError struct {
	SpaceGroup string
	Cell       types.UnitCell
	Reason     string
}

func (e *InvalidCellError) Error() string {
	return fmt.Sprintf("invalid cell %s in space group %q: %s", e.Cell, e.SpaceGroup, e.Reason)
}

const degToRad = math.Pi / 180

// Volume returns the unit-cell volume in cubic Ångström using the general
// triclinic formula. A cell whose angles cannot close a parallelepiped
// yields NaN; callers that need a hard failure should go through
// metricTensor, which rejects such cells.
func Volume(cell types.UnitCell) float64 {
	ca := math.Cos(cell.Alpha * degToRad)
	cb := math.Cos(cell.Beta * degToRad)
	cg := math.Cos(cell.Gamma * degToRad)
	s := 1 - ca*ca - cb*cb - cg*cg + 2*ca*cb*cg
	return cell.A * cell.B * cell.C * math.Sqrt(s)
}

// metricTensor returns the symmetric metric tensor G of the cell, with
// G[i][j] the dot product of basis vectors i and j.
func metricTensor(cell types.UnitCell) ([3][3]float64, error) {
	ca := math.Cos(cell.Alpha * degToRad)
	cb := math.Cos(cell.Beta * degToRad)
	cg := math.Cos(cell.Gamma * degToRad)
	s := 1 - ca*ca - cb*cb - cg*cg + 2*ca*cb*cg
	if s <= 0 {
		return [3][3]float64{}, fmt.Errorf("cell angles do not define a positive volume")
	}
	a, b, c := cell.A, cell.B, cell.C
	return [3][3]float64{
		{a * a, a * b * cg, a * c * cb},
		{a * b * cg, b * b, b * c * ca},
		{a * c * cb, b * c * ca, c * c},
	}, nil
}

// cellFromMetric converts a metric tensor back to cell parameters.
func cellFromMetric(g [3][3]float64) types.UnitCell {
	a := math.Sqrt(g[0][0])
	b := math.Sqrt(g[1][1])
	c := math.Sqrt(g[2][2])
	alpha := math.Acos(g[1][2]/(b*c)) / degToRad
	beta := math.Acos(g[0][2]/(a*c)) / degToRad
	gamma := math.Acos(g[0][1]/(a*b)) / degToRad
	return types.UnitCell{A: a, B: b, C: c, Alpha: alpha, Beta: beta, Gamma: gamma}
}

// transformMetric applies a change of basis to the metric tensor:
// G' = Pᵀ G P, where column j of P gives new basis vector j in the old basis.
func transformMetric(g, p [3][3]float64) [3][3]float64 {
	var gp, out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				gp[i][j] += g[i][k] * p[k][j]
			}
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += p[k][i] * gp[k][j]
			}
		}
	}
	return out
}
