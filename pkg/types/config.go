package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lattice-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the lattice search stage.
type SearchConfig struct {
	// Tolerance is the per-parameter match window as a fraction of the
	// query cell (default 0.05).
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// MaxToKeep is the number of top-ranked hits retained (default 50).
	MaxToKeep int `json:"max_to_keep" yaml:"max_to_keep"`

	// MaxPenalty is the total-penalty cutoff above which a matching
	// entry is discarded (default 12).
	MaxPenalty float64 `json:"max_penalty" yaml:"max_penalty"`

	// DatabasePath is the lattice database file.
	DatabasePath string `json:"database_path" yaml:"database_path"`

	// ModelsDir is the directory candidate structure files resolve into.
	ModelsDir string `json:"models_dir" yaml:"models_dir"`
}

// DatabaseConfig holds settings for building the lattice database.
type DatabaseConfig struct {
	// Path is the lattice database file.
	Path string `json:"path" yaml:"path"`
}

// MaterializeConfig holds settings for resolving hits to structure files.
type MaterializeConfig struct {
	HTTPConfig `yaml:",inline"`

	// MirrorDir is the root of a local sharded PDB mirror. Empty means
	// no mirror is available and files must be downloaded.
	MirrorDir string `json:"mirror_dir,omitempty" yaml:"mirror_dir,omitempty"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// DestinationDir is where materialized structure files are written
	// (contains metadata/ beside the .pdb files).
	DestinationDir string `json:"destination_dir" yaml:"destination_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search      SearchConfig      `json:"search" yaml:"search"`
	Database    DatabaseConfig    `json:"database" yaml:"database"`
	Materialize MaterializeConfig `json:"materialize" yaml:"materialize"`
}
