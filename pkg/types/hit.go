// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LatticeHit is one database entry that matched a lattice search query.
// Hits are transient: they exist for the duration of a single search call
// and its consumers (summary writer, file materializer).
type LatticeHit struct {
	// PDBCode is the 4-character PDB identifier of the matched entry.
	PDBCode string `json:"pdb_code" yaml:"pdb_code"`

	// PDBPath is the resolved structure file for this entry. Empty until
	// the hit has been materialized by a copy or download.
	PDBPath string `json:"pdb_path,omitempty" yaml:"pdb_path,omitempty"`

	// Alt is the alternate-setting marker byte, 0 when the entry was
	// stored in its primary reduced setting.
	Alt byte `json:"alt" yaml:"alt"`

	// Cell is the Niggli-reduced cell of the matched entry.
	Cell UnitCell `json:"unit_cell" yaml:"unit_cell"`

	// VolumeDifference is |V(query) - V(entry)| in cubic Ångström.
	VolumeDifference float64 `json:"volume_difference" yaml:"volume_difference"`

	// TotalPenalty is LengthPenalty + AnglePenalty. Hits are ranked by
	// this value, ascending.
	TotalPenalty  float64 `json:"total_penalty" yaml:"total_penalty"`
	LengthPenalty float64 `json:"length_penalty" yaml:"length_penalty"`
	AnglePenalty  float64 `json:"angle_penalty" yaml:"angle_penalty"`

	// Probability estimates the chance this entry solves the phase
	// problem by molecular replacement, from the empirical penalty fit.
	Probability float64 `json:"probability_score" yaml:"probability_score"`
}

// AltMarker renders the alternate-setting byte for display: the marker
// character when set, a blank otherwise.
func (h LatticeHit) AltMarker() string {
	if h.Alt == 0 {
		return " "
	}
	return string(rune(h.Alt))
}
