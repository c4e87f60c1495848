// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lattice implements the unit-cell lattice search: a tolerance-gated
// scan of the lattice database with geometric penalty scoring, probability
// estimation, deduplication, and ranked truncation.
package lattice

import (
	"math"

	"github.com/pdiddy/lattice-search/internal/symmetry"
	"github.com/pdiddy/lattice-search/pkg/types"
)

// Calibration of the penalty-to-probability fit. The values come from a
// logistic regression of historical molecular-replacement outcomes against
// total penalty; Probability(0) evaluates to 0.892.
const (
	probSlope     = 1.01
	probIntercept = 2.11
)

// Penalty computes the linear cell variation between two Niggli cells:
// the L1 distance over the three lengths, the L1 distance over the three
// angles, and their sum. Penalty is a symmetric distance.
func Penalty(query, reference types.UnitCell) (total, length, angle float64) {
	q := query.Parameters()
	r := reference.Parameters()
	for i := 0; i < 3; i++ {
		length += math.Abs(q[i] - r[i])
	}
	for i := 3; i < 6; i++ {
		angle += math.Abs(q[i] - r[i])
	}
	return length + angle, length, angle
}

// Probability estimates the chance that a hit with the given total penalty
// solves the phase problem, via the calibrated logistic fit. The result is
// rounded to three decimal places and decreases monotonically with penalty.
func Probability(totalPenalty float64) float64 {
	x := probIntercept - probSlope*totalPenalty
	return round3(1 / (1 + math.Exp(-x)))
}

// VolumeDifference returns the absolute difference of the two cells'
// volumes, rounded to three decimal places.
func VolumeDifference(query, reference types.UnitCell) float64 {
	return round3(math.Abs(symmetry.Volume(query) - symmetry.Volume(reference)))
}

// WithinTolerance reports whether every parameter of reference lies within
// the per-component tolerance of query. The tolerance vector is computed by
// the caller, normally as the query cell scaled by a fraction. This is the
// cheap gate applied to every database record before scoring.
func WithinTolerance(query, reference types.UnitCell, tolerance [6]float64) bool {
	q := query.Parameters()
	r := reference.Parameters()
	for i := range q {
		if math.Abs(q[i]-r[i]) > tolerance[i] {
			return false
		}
	}
	return true
}

// ToleranceVector scales the query cell component-wise by fraction,
// yielding the per-parameter match window.
func ToleranceVector(query types.UnitCell, fraction float64) [6]float64 {
	p := query.Parameters()
	for i := range p {
		p[i] *= fraction
	}
	return p
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
