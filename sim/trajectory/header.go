package trajectory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RunHeader records the parameters of a run next to its output files.
type RunHeader struct {
	Version           int       `yaml:"header_version"`
	CreatedAt         string    `yaml:"created_at,omitempty"`
	Potential         string    `yaml:"potential"`
	Dimension         int       `yaml:"dimension"`
	NumParticles      int       `yaml:"num_particles"`
	Density           float64   `yaml:"density"`
	BoxSize           []float64 `yaml:"box_size,flow"`
	InteractionRange  float64   `yaml:"interaction_range"`
	InteractionEnergy float64   `yaml:"interaction_energy"`
	Seed              int64     `yaml:"seed"`
	SweepsPerReport   int       `yaml:"sweeps_per_report"`
	Reports           int       `yaml:"reports"`

	Moves *MoveHeader `yaml:"moves,omitempty"`
}

// MoveHeader captures move-proposal parameters.
type MoveHeader struct {
	MaxTranslation  float64 `yaml:"max_translation"`
	MaxRotation     float64 `yaml:"max_rotation"`
	ProbTranslate   float64 `yaml:"prob_translate"`
	ReferenceRadius float64 `yaml:"reference_radius"`
	MaxInteractions int     `yaml:"max_interactions"`
	Repulsive       bool    `yaml:"repulsive"`
}

// HeaderVersion is the current RunHeader format version.
const HeaderVersion = 1

// WriteHeader marshals h as YAML to path.
func WriteHeader(path string, h *RunHeader) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling run header: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run header: %w", err)
	}
	return nil
}

// ReadHeader loads a run header written by WriteHeader.
func ReadHeader(path string) (*RunHeader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run header: %w", err)
	}
	var h RunHeader
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing run header: %w", err)
	}
	return &h, nil
}
