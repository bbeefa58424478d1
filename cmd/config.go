package cmd

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vmmc-sim/vmmc-sim/sim/trace"
)

// RunConfig is the YAML document accepted by `vmmc-sim run --config`.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type RunConfig struct {
	System    SystemConfig    `yaml:"system"`
	Potential PotentialConfig `yaml:"potential"`
	Moves     MovesConfig     `yaml:"moves"`
	Output    OutputConfig    `yaml:"output"`
}

// SystemConfig describes the particles and the box.
type SystemConfig struct {
	Dimension            int     `yaml:"dimension"`
	NumParticles         int     `yaml:"num_particles"`
	Density              float64 `yaml:"density"` // volume (area) fraction covered by particles
	Seed                 int64   `yaml:"seed"`
	Isotropic            bool    `yaml:"isotropic"` // false gives every particle an orientation
	InputFile            string  `yaml:"input_file,omitempty"`
	InputHasOrientations bool    `yaml:"input_has_orientations,omitempty"`
}

// PotentialConfig selects the pair potential.
type PotentialConfig struct {
	Name              string  `yaml:"name"` // "lennard-jones" or "cos-squared"
	InteractionEnergy float64 `yaml:"interaction_energy"`
	InteractionRange  float64 `yaml:"interaction_range"`
}

// MovesConfig holds move-proposal parameters.
type MovesConfig struct {
	MaxTranslation  float64 `yaml:"max_translation"`
	MaxRotation     float64 `yaml:"max_rotation"`
	ProbTranslate   float64 `yaml:"prob_translate"`
	ReferenceRadius float64 `yaml:"reference_radius"`
	MaxInteractions int     `yaml:"max_interactions"`
	Repulsive       bool    `yaml:"repulsive"`
}

// OutputConfig controls reporting and files. An empty directory disables
// file output.
type OutputConfig struct {
	Directory       string `yaml:"directory"`
	Reports         int    `yaml:"reports"`
	SweepsPerReport int    `yaml:"sweeps_per_report"`
	Trajectory      bool   `yaml:"trajectory"`
	TraceLevel      string `yaml:"trace_level"`
	TraceMaxRecords int    `yaml:"trace_max_records"`
}

// Potential names.
const (
	PotentialLennardJones = "lennard-jones"
	PotentialCosSquared   = "cos-squared"
)

// DefaultRunConfig returns the settings of the Lennard-Jones demo.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		System: SystemConfig{
			Dimension:    3,
			NumParticles: 1000,
			Density:      0.05,
			Seed:         42,
			Isotropic:    true,
		},
		Potential: PotentialConfig{
			Name:              PotentialLennardJones,
			InteractionEnergy: 2,
			InteractionRange:  2.5,
		},
		Moves: MovesConfig{
			MaxTranslation:  0.15,
			MaxRotation:     0.2,
			ProbTranslate:   0.5,
			ReferenceRadius: 0.5,
			MaxInteractions: 100,
		},
		Output: OutputConfig{
			Directory:       "",
			Reports:         1000,
			SweepsPerReport: 1000,
			Trajectory:      true,
			TraceLevel:      string(trace.TraceLevelNone),
		},
	}
}

// LoadRunConfig reads a YAML run config on top of the defaults.
// Unknown fields are rejected.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run config: %w", err)
	}
	cfg := DefaultRunConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing run config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields the engine does not check itself.
func (c *RunConfig) Validate() error {
	if c.System.Dimension != 2 && c.System.Dimension != 3 {
		return fmt.Errorf("system.dimension must be 2 or 3, got %d", c.System.Dimension)
	}
	if c.System.InputFile == "" && c.System.NumParticles < 1 {
		return fmt.Errorf("system.num_particles must be positive, got %d", c.System.NumParticles)
	}
	if !(c.System.Density > 0) || math.IsInf(c.System.Density, 0) {
		return fmt.Errorf("system.density must be positive, got %v", c.System.Density)
	}
	switch c.Potential.Name {
	case PotentialLennardJones, PotentialCosSquared:
	default:
		return fmt.Errorf("unknown potential %q; valid: %s, %s", c.Potential.Name, PotentialLennardJones, PotentialCosSquared)
	}
	if c.Output.Reports < 0 || c.Output.SweepsPerReport < 1 {
		return fmt.Errorf("output.reports must be non-negative and output.sweeps_per_report positive, got %d and %d",
			c.Output.Reports, c.Output.SweepsPerReport)
	}
	if !trace.IsValidTraceLevel(c.Output.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", c.Output.TraceLevel)
	}
	if c.Output.TraceMaxRecords < 0 {
		return fmt.Errorf("output.trace_max_records must be non-negative, got %d", c.Output.TraceMaxRecords)
	}
	return nil
}

// BoxLength returns the edge of the cubic (square in 2D) box in which n
// unit-diameter particles cover the given volume (area) fraction.
func BoxLength(dimension, n int, density float64) float64 {
	if dimension == 2 {
		return math.Sqrt(float64(n) * math.Pi / (4 * density))
	}
	return math.Cbrt(float64(n) * math.Pi / (6 * density))
}
