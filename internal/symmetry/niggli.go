// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package symmetry

import (
	"math"

	"github.com/pdiddy/lattice-search/pkg/types"
)

// maxReductionSteps bounds the Krivy-Gruber loop. Well-formed cells
// converge in a handful of steps; hitting the bound means the input was
// numerically degenerate.
const maxReductionSteps = 100

// ReduceToNiggli computes the canonical Niggli-reduced cell for a unit
// cell in the given space group. The cell angles are first validated
// against the lattice-system constraints the (already normalized)
// symbol implies, then the conventional cell is converted to a
// primitive cell of the same lattice and reduced with the Krivy-Gruber
// algorithm on the metric tensor.
//
// Two cells related by a crystallographic symmetry choice reduce to the
// same Niggli cell up to floating tolerance, which is what makes reduced
// cells comparable across structures.
func ReduceToNiggli(cell types.UnitCell, spaceGroup string) (types.UnitCell, error) {
	op, system, ok := classify(spaceGroup, cell)
	if !ok {
		return types.UnitCell{}, &InvalidCellError{
			SpaceGroup: spaceGroup, Cell: cell,
			Reason: "unrecognized space-group symbol",
		}
	}
	if reason := angleViolation(system, cell); reason != "" {
		return types.UnitCell{}, &InvalidCellError{
			SpaceGroup: spaceGroup, Cell: cell, Reason: reason,
		}
	}

	g, err := metricTensor(cell)
	if err != nil {
		return types.UnitCell{}, &InvalidCellError{
			SpaceGroup: spaceGroup, Cell: cell, Reason: err.Error(),
		}
	}
	g = transformMetric(g, op)

	reduced, ok := krivyGruber(g)
	if !ok {
		return types.UnitCell{}, &InvalidCellError{
			SpaceGroup: spaceGroup, Cell: cell,
			Reason: "Niggli reduction did not converge",
		}
	}
	return cellFromMetric(reduced), nil
}

// krivyGruber runs the 1976 Krivy-Gruber reduction on a primitive metric
// tensor and returns the Niggli-reduced metric. The character is carried
// as (A, B, C, xi, eta, zeta) = (a·a, b·b, c·c, 2b·c, 2a·c, 2a·b).
func krivyGruber(g [3][3]float64) ([3][3]float64, bool) {
	A := g[0][0]
	B := g[1][1]
	C := g[2][2]
	xi := 2 * g[1][2]
	eta := 2 * g[0][2]
	zeta := 2 * g[0][1]

	eps := 1e-5 * math.Cbrt(A*B*C)

	eq := func(x, y float64) bool { return math.Abs(x-y) <= eps }
	gt := func(x, y float64) bool { return x > y+eps }
	lt := func(x, y float64) bool { return x < y-eps }

	for step := 0; step < maxReductionSteps; step++ {
		// Order the axes: A <= B <= C with ties broken on the scalars.
		if gt(A, B) || (eq(A, B) && gt(math.Abs(xi), math.Abs(eta))) {
			A, B = B, A
			xi, eta = eta, xi
		}
		if gt(B, C) || (eq(B, C) && gt(math.Abs(eta), math.Abs(zeta))) {
			B, C = C, B
			eta, zeta = zeta, eta
			continue
		}

		// Fix the angular character: all acute or all non-acute.
		l := signWithin(xi, eps)
		m := signWithin(eta, eps)
		n := signWithin(zeta, eps)
		if l*m*n == 1 {
			xi, eta, zeta = math.Abs(xi), math.Abs(eta), math.Abs(zeta)
		} else {
			xi, eta, zeta = fixNonAcute(xi, eta, zeta, eps)
		}

		if gt(math.Abs(xi), B) ||
			(eq(xi, B) && lt(2*eta, zeta)) ||
			(eq(xi, -B) && lt(zeta, 0)) {
			s := math.Copysign(1, xi)
			C = B + C - xi*s
			eta = eta - zeta*s
			xi = xi - 2*B*s
			continue
		}
		if gt(math.Abs(eta), A) ||
			(eq(eta, A) && lt(2*xi, zeta)) ||
			(eq(eta, -A) && lt(zeta, 0)) {
			s := math.Copysign(1, eta)
			C = A + C - eta*s
			xi = xi - zeta*s
			eta = eta - 2*A*s
			continue
		}
		if gt(math.Abs(zeta), A) ||
			(eq(zeta, A) && lt(2*xi, eta)) ||
			(eq(zeta, -A) && lt(eta, 0)) {
			s := math.Copysign(1, zeta)
			B = A + B - zeta*s
			xi = xi - eta*s
			zeta = zeta - 2*A*s
			continue
		}
		if lt(xi+eta+zeta+A+B, 0) ||
			(eq(xi+eta+zeta+A+B, 0) && gt(2*(A+eta)+zeta, 0)) {
			C = A + B + C + xi + eta + zeta
			xi = 2*B + xi + zeta
			eta = 2*A + eta + zeta
			continue
		}

		return [3][3]float64{
			{A, zeta / 2, eta / 2},
			{zeta / 2, B, xi / 2},
			{eta / 2, xi / 2, C},
		}, true
	}
	return [3][3]float64{}, false
}

// signWithin returns -1, 0 or 1 with a dead zone of eps around zero.
func signWithin(x, eps float64) int {
	switch {
	case x > eps:
		return 1
	case x < -eps:
		return -1
	default:
		return 0
	}
}

// fixNonAcute applies the non-acute branch of the angular normalization.
// Every scalar becomes non-positive; when the definite signs alone would
// flip the product, the undetermined scalar absorbs the extra sign so the
// reduction stays on the same lattice.
func fixNonAcute(xi, eta, zeta, eps float64) (float64, float64, float64) {
	i, j, k := 1.0, 1.0, 1.0
	undetermined := -1
	switch signWithin(xi, eps) {
	case 1:
		i = -1
	case 0:
		undetermined = 0
	}
	switch signWithin(eta, eps) {
	case 1:
		j = -1
	case 0:
		undetermined = 1
	}
	switch signWithin(zeta, eps) {
	case 1:
		k = -1
	case 0:
		undetermined = 2
	}
	if i*j*k < 0 && undetermined >= 0 {
		switch undetermined {
		case 0:
			i = -1
		case 1:
			j = -1
		case 2:
			k = -1
		}
	}
	return xi * i, eta * j, zeta * k
}
