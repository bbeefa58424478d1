package trace

// TraceLevel controls the verbosity of move tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelMoves captures every elementary move.
	TraceLevelMoves TraceLevel = "moves"
	// TraceLevelAccepted captures accepted moves only.
	TraceLevelAccepted TraceLevel = "accepted"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:     true,
	TraceLevelMoves:    true,
	TraceLevelAccepted: true,
	"":                 true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level      TraceLevel
	MaxRecords int // 0 = unbounded; older records are kept, newer ones dropped
}

// MoveTrace collects move records during a run.
type MoveTrace struct {
	Config  TraceConfig
	Moves   []MoveRecord
	Dropped int64 // records discarded after MaxRecords was reached
}

// NewMoveTrace creates a MoveTrace ready for recording.
func NewMoveTrace(config TraceConfig) *MoveTrace {
	return &MoveTrace{
		Config: config,
		Moves:  make([]MoveRecord, 0),
	}
}

// Enabled reports whether any records will be kept.
func (mt *MoveTrace) Enabled() bool {
	return mt != nil && mt.Config.Level != TraceLevelNone && mt.Config.Level != ""
}

// RecordMove appends a move record, honoring the level and size limit.
func (mt *MoveTrace) RecordMove(record MoveRecord) {
	if !mt.Enabled() {
		return
	}
	if mt.Config.Level == TraceLevelAccepted && record.Outcome != OutcomeAccepted {
		return
	}
	if mt.Config.MaxRecords > 0 && len(mt.Moves) >= mt.Config.MaxRecords {
		mt.Dropped++
		return
	}
	mt.Moves = append(mt.Moves, record)
}
