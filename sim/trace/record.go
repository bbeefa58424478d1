// Package trace provides per-move decision recording for chain analysis.
// It has no dependencies on sim/ and stores pure data types.
package trace

// MoveRecord captures how a single elementary Monte Carlo move resolved.
type MoveRecord struct {
	Step        int64
	Seed        int     // seed particle index
	Kind        string  // "translation" or "rotation"
	Magnitude   float64 // translation length or absolute rotation angle
	ClusterSize int     // particles admitted before resolution
	Outcome     string  // "accepted", "rejected" or "aborted"
	Factor      float64 // correction factor the acceptance test used (0 if aborted)
}

// Record outcome values.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeAborted  = "aborted"
)
