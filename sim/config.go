package sim

import (
	"math"
)

// Config groups every construction parameter of an Engine. Buffers are
// copied at construction; the caller may reuse them afterwards.
type Config struct {
	NumParticles int       // fixed particle capacity (must be > 0)
	Dimension    int       // 2 or 3
	Coordinates  []float64 // NumParticles*Dimension initial positions
	Types        []int     // NumParticles type tags
	Orientations []float64 // nil, or NumParticles*Dimension orientation vectors
	Isotropic    []bool    // nil (all isotropic, Orientations must be nil), or one flag per particle

	MaxTrialTranslation float64 // radius of the translation proposal ball
	MaxTrialRotation    float64 // maximum rotation angle (radians)
	ProbTranslate       float64 // probability a move is a translation
	ReferenceRadius     float64 // secondary tuning parameter; stored, does not change the chain
	MaxInteractions     int     // cap on distinct neighbors examined per particle per move

	BoxSize          []float64 // per-axis box lengths
	InteractionRange float64   // cell-list sizing range (≤ half the smallest box length)
	Repulsive        bool      // mode flag; stored, does not change the chain

	Seed int64 // master seed for the partitioned RNG
}

// Validate checks dimensions, buffer sizes and parameter ranges. It
// returns a *ConfigurationError describing the first violation.
func (c *Config) Validate() error {
	if c.Dimension != 2 && c.Dimension != 3 {
		return configErrorf("Dimension", "must be 2 or 3, got %d", c.Dimension)
	}
	if c.NumParticles < 1 {
		return configErrorf("NumParticles", "must be positive, got %d", c.NumParticles)
	}
	if len(c.Coordinates) != c.NumParticles*c.Dimension {
		return configErrorf("Coordinates", "has %d values, want %d", len(c.Coordinates), c.NumParticles*c.Dimension)
	}
	for i, x := range c.Coordinates {
		if !isFinite(x) {
			return configErrorf("Coordinates", "particle %d has non-finite coordinate %v", i/c.Dimension, x)
		}
	}
	if len(c.Types) != c.NumParticles {
		return configErrorf("Types", "has %d values, want %d", len(c.Types), c.NumParticles)
	}
	if c.Orientations != nil && len(c.Orientations) != c.NumParticles*c.Dimension {
		return configErrorf("Orientations", "has %d values, want %d", len(c.Orientations), c.NumParticles*c.Dimension)
	}
	if c.Orientations != nil && c.Isotropic == nil {
		return configErrorf("Isotropic", "orientations were supplied without per-particle flags")
	}
	if c.Isotropic != nil {
		if len(c.Isotropic) != c.NumParticles {
			return configErrorf("Isotropic", "has %d values, want %d", len(c.Isotropic), c.NumParticles)
		}
		for i, iso := range c.Isotropic {
			if iso {
				continue
			}
			if c.Orientations == nil {
				return configErrorf("Orientations", "particle %d is anisotropic but no orientations were supplied", i)
			}
			var n2 float64
			for _, x := range c.Orientations[i*c.Dimension : (i+1)*c.Dimension] {
				n2 += x * x
			}
			if !(n2 > 0) || !isFinite(n2) {
				return configErrorf("Orientations", "particle %d is anisotropic but has a degenerate orientation", i)
			}
		}
	}
	if len(c.BoxSize) != c.Dimension {
		return configErrorf("BoxSize", "has %d lengths, want %d", len(c.BoxSize), c.Dimension)
	}
	minLength := math.Inf(1)
	for i, l := range c.BoxSize {
		if !(l > 0) || !isFinite(l) {
			return configErrorf("BoxSize", "length along axis %d must be a finite positive number, got %v", i, l)
		}
		minLength = math.Min(minLength, l)
	}
	if !(c.InteractionRange > 0) || !isFinite(c.InteractionRange) {
		return configErrorf("InteractionRange", "must be a finite positive number, got %v", c.InteractionRange)
	}
	if c.InteractionRange > 0.5*minLength {
		return configErrorf("InteractionRange", "%v exceeds half the smallest box length %v", c.InteractionRange, minLength)
	}
	if !(c.MaxTrialTranslation >= 0) || !isFinite(c.MaxTrialTranslation) {
		return configErrorf("MaxTrialTranslation", "must be non-negative, got %v", c.MaxTrialTranslation)
	}
	if c.MaxTrialTranslation > 0.5*minLength {
		return configErrorf("MaxTrialTranslation", "%v exceeds half the smallest box length %v", c.MaxTrialTranslation, minLength)
	}
	if !(c.MaxTrialRotation >= 0) || c.MaxTrialRotation > math.Pi {
		return configErrorf("MaxTrialRotation", "must be in [0, pi], got %v", c.MaxTrialRotation)
	}
	if !(c.ProbTranslate >= 0 && c.ProbTranslate <= 1) {
		return configErrorf("ProbTranslate", "must be in [0, 1], got %v", c.ProbTranslate)
	}
	if !(c.ReferenceRadius > 0) || !isFinite(c.ReferenceRadius) {
		return configErrorf("ReferenceRadius", "must be a finite positive number, got %v", c.ReferenceRadius)
	}
	if c.MaxInteractions < 1 {
		return configErrorf("MaxInteractions", "must be positive, got %d", c.MaxInteractions)
	}
	return nil
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
