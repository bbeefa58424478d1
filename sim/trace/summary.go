package trace

import (
	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics from a MoveTrace.
type TraceSummary struct {
	TotalMoves       int
	AcceptedCount    int
	RejectedCount    int
	AbortedCount     int
	MeanClusterSize  float64 // over accepted moves
	StdClusterSize   float64
	MaxClusterSize   int
	MeanFactor       float64     // mean correction factor over non-aborted moves
	SizeDistribution map[int]int // accepted cluster size → count
}

// Summarize computes aggregate statistics from a MoveTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(mt *MoveTrace) *TraceSummary {
	summary := &TraceSummary{
		SizeDistribution: make(map[int]int),
	}
	if mt == nil {
		return summary
	}

	summary.TotalMoves = len(mt.Moves)
	var sizes, factors []float64
	for _, m := range mt.Moves {
		switch m.Outcome {
		case OutcomeAccepted:
			summary.AcceptedCount++
			summary.SizeDistribution[m.ClusterSize]++
			sizes = append(sizes, float64(m.ClusterSize))
			if m.ClusterSize > summary.MaxClusterSize {
				summary.MaxClusterSize = m.ClusterSize
			}
		case OutcomeRejected:
			summary.RejectedCount++
		case OutcomeAborted:
			summary.AbortedCount++
			continue
		}
		factors = append(factors, m.Factor)
	}

	switch len(sizes) {
	case 0:
	case 1:
		summary.MeanClusterSize = sizes[0]
	default:
		summary.MeanClusterSize, summary.StdClusterSize = stat.MeanStdDev(sizes, nil)
	}
	if len(factors) > 0 {
		summary.MeanFactor = stat.Mean(factors, nil)
	}
	return summary
}
