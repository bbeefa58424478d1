// Tracks chain-wide Monte Carlo statistics such as acceptance ratios and
// cluster sizes.

package sim

import "fmt"

// Outcome is how a single elementary move resolved.
type Outcome int

const (
	// OutcomeAccepted means the cluster was moved and committed.
	OutcomeAccepted Outcome = iota
	// OutcomeRejected means the correction-factor test failed.
	OutcomeRejected
	// OutcomeAborted means cluster growth exceeded the interaction cap.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Statistics aggregates engine-owned counters. It is reset when an engine
// is constructed and updated only when a step resolves.
type Statistics struct {
	Steps    int64 // resolved elementary moves
	Accepted int64
	Rejected int64 // probabilistic rejections
	Aborted  int64 // interaction-cap overflows (also rejections)

	TranslationAttempts int64
	TranslationAccepts  int64
	RotationAttempts    int64
	RotationAccepts     int64

	ClusterSizeSum int64 // sum of cluster sizes over accepted moves
	MaxClusterSize int   // largest accepted cluster

	ClusterSizes map[int]int64 // accepted cluster size -> count
}

func newStatistics() Statistics {
	return Statistics{ClusterSizes: make(map[int]int64)}
}

func (s *Statistics) record(kind MoveKind, outcome Outcome, clusterSize int) {
	s.Steps++
	if kind == MoveTranslation {
		s.TranslationAttempts++
	} else {
		s.RotationAttempts++
	}
	switch outcome {
	case OutcomeAccepted:
		s.Accepted++
		if kind == MoveTranslation {
			s.TranslationAccepts++
		} else {
			s.RotationAccepts++
		}
		s.ClusterSizeSum += int64(clusterSize)
		s.ClusterSizes[clusterSize]++
		s.MaxClusterSize = max(s.MaxClusterSize, clusterSize)
	case OutcomeRejected:
		s.Rejected++
	case OutcomeAborted:
		s.Aborted++
	}
}

// AcceptanceRatio returns accepted / attempted moves, or 0 before any step.
func (s *Statistics) AcceptanceRatio() float64 {
	if s.Steps == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Steps)
}

// TranslationAcceptanceRatio returns the acceptance ratio of translations.
func (s *Statistics) TranslationAcceptanceRatio() float64 {
	if s.TranslationAttempts == 0 {
		return 0
	}
	return float64(s.TranslationAccepts) / float64(s.TranslationAttempts)
}

// RotationAcceptanceRatio returns the acceptance ratio of rotations.
func (s *Statistics) RotationAcceptanceRatio() float64 {
	if s.RotationAttempts == 0 {
		return 0
	}
	return float64(s.RotationAccepts) / float64(s.RotationAttempts)
}

// MeanClusterSize returns the mean size of accepted clusters.
func (s *Statistics) MeanClusterSize() float64 {
	if s.Accepted == 0 {
		return 0
	}
	return float64(s.ClusterSizeSum) / float64(s.Accepted)
}

// clone returns a deep copy safe to hand to callers.
func (s *Statistics) clone() Statistics {
	c := *s
	c.ClusterSizes = make(map[int]int64, len(s.ClusterSizes))
	for k, v := range s.ClusterSizes {
		c.ClusterSizes[k] = v
	}
	return c
}

// Print displays aggregated statistics.
func (s *Statistics) Print() {
	fmt.Println("=== Monte Carlo Statistics ===")
	fmt.Printf("Moves attempted      : %d\n", s.Steps)
	fmt.Printf("Acceptance ratio     : %.4f\n", s.AcceptanceRatio())
	fmt.Printf("  translations       : %.4f (%d attempts)\n", s.TranslationAcceptanceRatio(), s.TranslationAttempts)
	fmt.Printf("  rotations          : %.4f (%d attempts)\n", s.RotationAcceptanceRatio(), s.RotationAttempts)
	fmt.Printf("Cap overflows        : %d\n", s.Aborted)
	if s.Accepted > 0 {
		fmt.Printf("Mean cluster size    : %.3f\n", s.MeanClusterSize())
		fmt.Printf("Max cluster size     : %d\n", s.MaxClusterSize)
	}
}
