package sim

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmmc-sim/vmmc-sim/sim/internal/testutil"
	"github.com/vmmc-sim/vmmc-sim/sim/trace"
)

// randomPositions scatters n points in a box without checking overlaps.
func randomPositions(seed int64, n int, boxSize []float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	pos := make([]float64, 0, n*len(boxSize))
	for i := 0; i < n; i++ {
		for _, l := range boxSize {
			pos = append(pos, rng.Float64()*l)
		}
	}
	return pos
}

func TestEngine_NoInteractions_EveryMoveAcceptedAlone(t *testing.T) {
	// GIVEN 20 particles whose model reports no interactions
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, func(float64) float64 { return 0 })
	m.interactionsHook = func(_ int, buf []int) ([]int, bool) { return buf, true }
	e := mustEngine(t, testConfig(box, randomPositions(1, 20, box)...), m)

	// WHEN 1000 moves run
	require.NoError(t, e.Advance(1000))

	// THEN every move is accepted as a single-particle cluster
	assert.Equal(t, 1.0, e.AcceptanceRatio())
	assert.Equal(t, 1.0, e.MeanClusterSize())
	assert.Equal(t, int64(1000), e.Steps())
	assert.Len(t, m.accepted, 1000)
}

func TestEngine_SingleParticle_AcceptanceConvergesToOne(t *testing.T) {
	box := []float64{10, 10, 10}
	m := newPairModel(t, box, 2, func(float64) float64 { return 0 })
	e := mustEngine(t, testConfig(box, 3, 4, 5), m)

	require.NoError(t, e.Advance(500))

	assert.Equal(t, 1.0, e.AcceptanceRatio())
	stats := e.Statistics()
	assert.Equal(t, stats.TranslationAttempts+stats.RotationAttempts, int64(500))
}

func TestEngine_IsolatedPair_ClusterSizeOne(t *testing.T) {
	// GIVEN two particles far beyond the cut-off
	box := []float64{20, 20}
	m := newPairModel(t, box, 1.5, squareWell(1, 1.5))
	cfg := testConfig(box, 2, 2, 12, 12)
	cfg.MaxTrialTranslation = 0.2
	e := mustEngine(t, cfg, m)

	for i := 0; i < 200; i++ {
		res, err := e.Step()
		require.NoError(t, err)
		assert.Equal(t, 1, res.ClusterSize)
		assert.Equal(t, OutcomeAccepted, res.Outcome)
	}
}

func TestGrowCluster_FormedLink_FactorIsReverseOverForward(t *testing.T) {
	// GIVEN a bonded pair and a translation that stretches the bond
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, parabolicWell)
	e := mustEngine(t, testConfig(box, 5, 5, 6.1, 5), m)
	e.linkRNG = testutil.NewScriptedSource(1, 0.0) // link forms
	move := NewTranslationMove([]float64{-0.3, 0})

	// WHEN the cluster is grown from particle 0
	factor, aborted, err := e.growCluster(0, &move)

	// THEN both particles move and the factor is p_rev / p_link
	require.NoError(t, err)
	require.False(t, aborted)
	assert.Equal(t, []int{0, 1}, e.cluster)
	pLink := linkProb(m, []float64{5, 5}, []float64{4.7, 5}, []float64{6.1, 5})
	pRev := linkProb(m, []float64{5, 5}, []float64{5.3, 5}, []float64{6.1, 5})
	require.Greater(t, pLink, pRev)
	require.Greater(t, pRev, 0.0)
	assert.InDelta(t, pRev/pLink, factor, 1e-9)
	// (1-e^-0.03) / (1-e^-0.15) worked by hand
	assert.InDelta(t, 0.2121763, factor, 1e-6)
}

func TestLinkProbability_SquareWellValues(t *testing.T) {
	tests := []struct {
		name       string
		eOld, eNew float64
		want       float64
	}{
		{"leaving a unit well", -1, 0, 0.6321205588},
		{"entering a unit well", 0, -1, 0},
		{"climbing a unit barrier", 0, 1, 0.6321205588},
		{"no energy change", -1, -1, 0},
		{"leaving a deep well", -30, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, linkProbability(tt.eOld, tt.eNew), 1e-9)
		})
	}
}

func TestGrowCluster_PartnerInRangeOnlyOfReversePosition_EntersFactor(t *testing.T) {
	// GIVEN p=0 and q=2 out of range before and after the move, but q
	// repelled by p's reverse position; r=1 bonds to both
	box := []float64{10, 10}
	m := newPairModel(t, box, 1.5, func(r float64) float64 {
		if r < 1.3 {
			return parabolicWell(r)
		}
		return 1
	})
	cfg := testConfig(box, 5, 5, 5.8, 5.6, 6.6, 5)
	e := mustEngine(t, cfg, m)
	// 0->1 forms, 0->2 cannot form, 1->2 forms
	script := testutil.NewScriptedSource(1, 0.0, 0.0, 0.0)
	e.linkRNG = script
	move := NewTranslationMove([]float64{-0.2, 0})

	factor, aborted, err := e.growCluster(0, &move)

	require.NoError(t, err)
	require.False(t, aborted)
	assert.Equal(t, []int{0, 1, 2}, e.cluster)
	assert.Equal(t, 3, script.Drawn)
	// THEN the factor carries (1-p_rev) = e^-1 for the 0-2 pair on top of
	// the two formed links, each (1-e^-0.022944) / (1-e^-0.027619)
	assert.InDelta(t, 0.2550538, factor, 1e-6)
}

func TestGrowCluster_FailedLinkToLaterMember_ContributesFailureRatio(t *testing.T) {
	// GIVEN 0-1 and 1-2 bonded, and 2 also within range of 0
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, parabolicWell)
	p0, p1, p2 := []float64{5, 5}, []float64{6.1, 5}, []float64{6.6, 5.9}
	e := mustEngine(t, testConfig(box, append(append(append([]float64{}, p0...), p1...), p2...)...), m)
	// 0->1 forms, 0->2 fails, 1->2 forms
	script := testutil.NewScriptedSource(1, 0.0, 0.99, 0.0)
	e.linkRNG = script
	move := NewTranslationMove([]float64{-0.3, 0})

	factor, aborted, err := e.growCluster(0, &move)

	require.NoError(t, err)
	require.False(t, aborted)
	assert.ElementsMatch(t, []int{0, 1, 2}, e.cluster)
	assert.Equal(t, 3, script.Drawn)

	p0New, p0Rev := []float64{4.7, 5}, []float64{5.3, 5}
	p1New, p1Rev := []float64{5.8, 5}, []float64{6.4, 5}
	link01, rev01 := linkProb(m, p0, p0New, p1), linkProb(m, p0, p0Rev, p1)
	link02, rev02 := linkProb(m, p0, p0New, p2), linkProb(m, p0, p0Rev, p2)
	link12, rev12 := linkProb(m, p1, p1New, p2), linkProb(m, p1, p1Rev, p2)
	require.Greater(t, 0.99, link02, "0->2 must fail with the scripted draw")
	require.Greater(t, link12, 0.0)

	want := (rev01 / link01) * (rev12 / link12) * (1 - rev02) / (1 - link02)
	assert.InDelta(t, want, factor, 1e-9)
}

func TestGrowCluster_FailedLinkToOutsider_ContributesNothing(t *testing.T) {
	// GIVEN a pair where the stretched link fails
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, parabolicWell)
	e := mustEngine(t, testConfig(box, 5, 5, 6.1, 5), m)
	e.linkRNG = testutil.NewScriptedSource(1, 0.999)
	move := NewTranslationMove([]float64{-0.3, 0})

	factor, aborted, err := e.growCluster(0, &move)

	require.NoError(t, err)
	require.False(t, aborted)
	assert.Equal(t, []int{0}, e.cluster)
	assert.Equal(t, 1.0, factor)
}

func TestGrowCluster_ImpossibleReverseLink_FactorZero(t *testing.T) {
	// GIVEN a square-well pair: leaving the well links, re-entering never does
	box := []float64{10, 10}
	m := newPairModel(t, box, 1.5, squareWell(1, 1.5))
	e := mustEngine(t, testConfig(box, 5, 5, 6, 5), m)
	e.linkRNG = testutil.NewScriptedSource(1, 0.1)
	move := NewTranslationMove([]float64{-0.6, 0})

	factor, _, err := e.growCluster(0, &move)

	require.NoError(t, err)
	assert.Zero(t, factor)
}

func TestEngine_RejectedAndAbortedMoves_LeaveStateBitIdentical(t *testing.T) {
	// GIVEN a dense square-well system of anisotropic particles where many
	// translations and rotations are rejected
	box := []float64{8, 8}
	const n = 40
	m := newPairModel(t, box, 1.5, squareWell(3, 1.5))
	cfg := testConfig(box, randomPositions(7, n, box)...)
	cfg.MaxTrialTranslation = 1
	cfg.MaxTrialRotation = 1
	cfg.ProbTranslate = 0.5
	cfg.MaxInteractions = 6
	cfg.Orientations = make([]float64, 0, 2*n)
	orng := rand.New(rand.NewSource(8))
	for i := 0; i < n; i++ {
		a := orng.Float64() * 2 * math.Pi
		cfg.Orientations = append(cfg.Orientations, math.Cos(a), math.Sin(a))
	}
	cfg.Isotropic = make([]bool, n)
	e := mustEngine(t, cfg, m)

	nonAccepted, rotations := 0, 0
	for step := 0; step < 2000; step++ {
		before := e.Positions()
		orientBefore := e.Orientations()
		cellsBefore := make([]int, n)
		for i := range cellsBefore {
			cellsBefore[i] = e.CellOf(i)
		}

		res, err := e.Step()
		require.NoError(t, err)

		if res.Outcome != OutcomeAccepted {
			nonAccepted++
			if res.Move.Kind == MoveRotation {
				rotations++
			}
			testutil.AssertBitIdentical(t, "positions", before, e.Positions())
			testutil.AssertBitIdentical(t, "orientations", orientBefore, e.Orientations())
			for i := range cellsBefore {
				require.Equal(t, cellsBefore[i], e.CellOf(i))
			}
		}
	}
	require.Positive(t, nonAccepted)
	require.Positive(t, rotations)
	stats := e.Statistics()
	assert.Equal(t, stats.Steps, stats.Accepted+stats.Rejected+stats.Aborted)
}

func TestEngine_AcceptedMove_UpdatesCellList(t *testing.T) {
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, func(float64) float64 { return 0 })
	e := mustEngine(t, testConfig(box, randomPositions(3, 30, box)...), m)

	require.NoError(t, e.Advance(3000))

	for i := 0; i < 30; i++ {
		assert.Equal(t, e.cells.Index(e.Position(i)), e.CellOf(i), "particle %d", i)
	}
}

func TestEngine_CapOverflow_AlwaysAborts(t *testing.T) {
	// GIVEN a tight triangle with a cap of one neighbor
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, squareWell(1, 1.5))
	cfg := testConfig(box, 5, 5, 6, 5, 5.5, 5.8)
	cfg.MaxInteractions = 1
	cfg.MaxTrialTranslation = 0.1
	cfg.MaxTrialRotation = 0.1
	e := mustEngine(t, cfg, m)
	before := e.Positions()

	for i := 0; i < 100; i++ {
		res, err := e.Step()
		require.NoError(t, err)
		assert.Equal(t, OutcomeAborted, res.Outcome)
	}

	testutil.AssertBitIdentical(t, "positions", before, e.Positions())
	assert.Equal(t, int64(100), e.Statistics().Aborted)
	assert.Zero(t, e.AcceptanceRatio())
	assert.Empty(t, m.accepted)
}

func TestEngine_NaNPairEnergy_ReturnsModelError(t *testing.T) {
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, func(float64) float64 { return math.NaN() })
	e := mustEngine(t, testConfig(box, 5, 5, 5.5, 5), m)
	before := e.Positions()

	_, err := e.Step()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModel))
	var me *ModelError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "pair energy", me.Op)
	testutil.AssertBitIdentical(t, "positions", before, e.Positions())
	assert.Zero(t, e.Statistics().Steps)
}

func TestEngine_InvalidCandidates_ReturnModelError(t *testing.T) {
	tests := []struct {
		name string
		hook func(i int, buf []int) ([]int, bool)
	}{
		{"index out of range", func(_ int, buf []int) ([]int, bool) { return append(buf, 5), true }},
		{"negative index", func(_ int, buf []int) ([]int, bool) { return append(buf, -1), true }},
		{"list longer than particle count", func(_ int, buf []int) ([]int, bool) { return append(buf, 1, 0, 1), true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := []float64{10, 10}
			m := newPairModel(t, box, 2, squareWell(1, 1.5))
			m.interactionsHook = tt.hook
			e := mustEngine(t, testConfig(box, 5, 5, 5.5, 5), m)

			err := e.Advance(10)

			assert.ErrorIs(t, err, ErrModel)
			assert.Zero(t, e.Steps())
		})
	}
}

func TestEngine_SelfInCandidates_Ignored(t *testing.T) {
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, func(float64) float64 { return 0 })
	m.interactionsHook = func(i int, buf []int) ([]int, bool) { return append(buf, i), true }
	e := mustEngine(t, testConfig(box, 2, 2, 7, 7), m)

	require.NoError(t, e.Advance(50))
	assert.Equal(t, 1.0, e.MeanClusterSize())
}

func TestEngine_CommitEnergyFailure_RollsBack(t *testing.T) {
	// GIVEN a lone particle whose energy becomes NaN after the move
	box := []float64{10, 10}
	m := newPairModel(t, box, 2, squareWell(1, 1.5))
	calls := 0
	m.energyHook = func(int) (float64, bool) {
		calls++
		if calls == 2 {
			return math.NaN(), true
		}
		return 0, true
	}
	e := mustEngine(t, testConfig(box, 5, 5), m)
	before := e.Positions()
	cellBefore := e.CellOf(0)

	_, err := e.Step()

	// THEN the move is abandoned and nothing changed
	require.ErrorIs(t, err, ErrModel)
	testutil.AssertBitIdentical(t, "positions", before, e.Positions())
	assert.Equal(t, cellBefore, e.CellOf(0))
	assert.Empty(t, m.accepted)
}

func TestEngine_SameSeed_IdenticalChains(t *testing.T) {
	box := []float64{12, 12, 12}
	run := func(seed int64) []float64 {
		m := newPairModel(t, box, 1.5, squareWell(2, 1.5))
		cfg := testConfig(box, randomPositions(11, 60, box)...)
		cfg.Seed = seed
		cfg.ProbTranslate = 0.5
		e := mustEngine(t, cfg, m)
		require.NoError(t, e.Sweep(20))
		return e.Positions()
	}

	a, b := run(5), run(5)
	testutil.AssertBitIdentical(t, "positions", a, b)
	assert.NotEqual(t, a, run(6))
}

func TestEngine_RotationsTurnAnisotropicOrientations(t *testing.T) {
	// GIVEN an anisotropic and an isotropic particle under rotations only
	box := []float64{10, 10, 10}
	m := newPairModel(t, box, 2, func(float64) float64 { return 0 })
	cfg := testConfig(box, 2, 2, 2, 7, 7, 7)
	cfg.Orientations = []float64{0, 0, 2, 1, 0, 0}
	cfg.Isotropic = []bool{false, true}
	cfg.ProbTranslate = 0
	e := mustEngine(t, cfg, m)
	require.InDeltaSlice(t, []float64{0, 0, 1}, e.Orientation(0), 1e-12)

	require.NoError(t, e.Advance(200))

	// THEN orientation 0 stays unit length and has moved; 1 is untouched
	o := e.Orientation(0)
	assert.InDelta(t, 1, o[0]*o[0]+o[1]*o[1]+o[2]*o[2], 1e-9)
	assert.NotEqual(t, []float64{0, 0, 1}, o)
	assert.Equal(t, []float64{0, 0, 0}, e.Orientation(1))
	// single-particle rotations pivot on the seed itself
	assert.InDeltaSlice(t, []float64{2, 2, 2}, e.Position(0), 1e-9)
}

func TestEngine_SquareWellPair_SamplesBoltzmann(t *testing.T) {
	if testing.Short() {
		t.Skip("long statistical test")
	}
	// GIVEN two particles in a 4x4 box with a unit square well of radius 1.5
	box := []float64{4, 4}
	const width = 1.5
	m := newPairModel(t, box, width, squareWell(1, width))
	cfg := testConfig(box, 1, 1, 3, 3)
	cfg.InteractionRange = width
	cfg.MaxTrialTranslation = 1
	cfg.ProbTranslate = 0.7
	e := mustEngine(t, cfg, m)

	// WHEN the chain is sampled
	require.NoError(t, e.Advance(10000))
	bound, samples := 0, 0
	for i := 0; i < 20000; i++ {
		require.NoError(t, e.Advance(10))
		if e.box.Distance2(e.store.Position(0), e.store.Position(1)) < width*width {
			bound++
		}
		samples++
	}

	// THEN the bound fraction matches the Boltzmann weight of the well
	wellArea := math.Pi * width * width
	boundWeight := wellArea * math.E
	want := boundWeight / (boundWeight + 16 - wellArea)
	assert.InDelta(t, want, float64(bound)/float64(samples), 0.04)
	assert.Greater(t, e.MeanClusterSize(), 1.0)
}

func TestEngine_Trace_RecordsEveryMove(t *testing.T) {
	box := []float64{10, 10}
	m := newPairModel(t, box, 1.5, squareWell(1, 1.5))
	e := mustEngine(t, testConfig(box, randomPositions(2, 10, box)...), m)
	tr := trace.NewMoveTrace(trace.TraceConfig{Level: trace.TraceLevelMoves})
	e.SetTrace(tr)

	require.NoError(t, e.Advance(50))

	require.Len(t, tr.Moves, 50)
	stats := e.Statistics()
	summary := trace.Summarize(tr)
	assert.Equal(t, int(stats.Accepted), summary.AcceptedCount)
	assert.Equal(t, int64(1), tr.Moves[0].Step)
	assert.Equal(t, int64(50), tr.Moves[49].Step)

	e.SetTrace(nil)
	require.NoError(t, e.Advance(5))
	assert.Len(t, tr.Moves, 50)
}
