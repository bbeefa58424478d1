package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/vmmc-sim/vmmc-sim/sim/cells"
	"github.com/vmmc-sim/vmmc-sim/sim/geom"
	"github.com/vmmc-sim/vmmc-sim/sim/particle"
	"github.com/vmmc-sim/vmmc-sim/sim/trace"
)

// StepResult reports how one elementary move resolved.
type StepResult struct {
	Step        int64
	Seed        int
	Move        Move
	ClusterSize int
	Outcome     Outcome
	Factor      float64 // correction factor used by the acceptance test (0 if aborted)
}

// frustratedLink is a link that failed to form during cluster growth.
// Whether it matters is only known once growth has finished.
type frustratedLink struct {
	from, to         int
	forward, reverse float64
}

// Engine runs Virtual-Move Monte Carlo on a fixed set of particles.
//
// The committed particle store and cell list are mutated only when a move
// is accepted. Trial positions live in scratch buffers owned by the step
// in progress and are never visible through View.
//
// Thread-safety: NOT thread-safe. The Markov chain is sequential.
type Engine struct {
	cfg   Config
	box   *geom.Box
	store *particle.Store
	cells *cells.List
	model Model

	rng     *PartitionedRNG
	seedRNG RandomSource
	moveRNG RandomSource
	linkRNG RandomSource

	stats Statistics
	trace *trace.MoveTrace
	steps int64

	// Per-step scratch. A slot is valid when its stamp equals stamp.
	stamp         int64
	memberStamp   []int64
	trialStamp    []int64
	reverseStamp  []int64
	cluster       []int // members in admission order; doubles as the BFS queue
	trialPos      []float64
	trialOrient   []float64
	reversePos    []float64
	reverseOrient []float64
	frustrated    []frustratedLink

	// Candidate de-duplication, stamped per query.
	seenStamp  []int64
	seenEpoch  int64
	candidates []int
	queryBuf   []int

	// Commit scratch.
	oldEnergy []float64
	newEnergy []float64
	backup    []float64
}

// NewEngine validates cfg, copies the initial configuration into an owned
// particle store, wraps every position into the box and registers all
// particles in a fresh cell list. Any validation failure is returned as a
// *ConfigurationError.
func NewEngine(cfg Config, model Model) (*Engine, error) {
	if model == nil {
		return nil, configErrorf("Model", "must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	box, err := geom.NewBox(cfg.BoxSize)
	if err != nil {
		return nil, configErrorf("BoxSize", "%v", err)
	}

	n, dim := cfg.NumParticles, cfg.Dimension
	coords := make([]float64, len(cfg.Coordinates))
	copy(coords, cfg.Coordinates)
	for i := 0; i < n; i++ {
		box.Wrap(coords[i*dim : (i+1)*dim])
	}
	store, err := particle.NewStore(n, dim, coords, cfg.Types, cfg.Orientations, cfg.Isotropic)
	if err != nil {
		return nil, configErrorf("Particles", "%v", err)
	}
	cl, err := cells.New(cfg.BoxSize, cfg.InteractionRange, n)
	if err != nil {
		return nil, configErrorf("InteractionRange", "%v", err)
	}
	for i := 0; i < n; i++ {
		cl.Register(i, store.Position(i))
	}

	rng := NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	e := &Engine{
		cfg:           cfg,
		box:           box,
		store:         store,
		cells:         cl,
		model:         model,
		rng:           rng,
		seedRNG:       rng.ForSubsystem(SubsystemSeed),
		moveRNG:       rng.ForSubsystem(SubsystemMove),
		linkRNG:       rng.ForSubsystem(SubsystemLink),
		stats:         newStatistics(),
		memberStamp:   make([]int64, n),
		trialStamp:    make([]int64, n),
		reverseStamp:  make([]int64, n),
		cluster:       make([]int, 0, n),
		trialPos:      make([]float64, n*dim),
		trialOrient:   make([]float64, n*dim),
		reversePos:    make([]float64, n*dim),
		reverseOrient: make([]float64, n*dim),
		seenStamp:     make([]int64, n),
		oldEnergy:     make([]float64, n),
		newEnergy:     make([]float64, n),
		backup:        make([]float64, 2*n*dim),
	}
	// Drop caller aliases: the engine keeps only what it copied.
	e.cfg.Coordinates, e.cfg.Types, e.cfg.Orientations, e.cfg.Isotropic = nil, nil, nil, nil

	logrus.Infof("VMMC engine: %d particles, %dD box %v, range=%v, cap=%d, translate=%v rotate=%v pTranslate=%v",
		n, dim, cfg.BoxSize, cfg.InteractionRange, cfg.MaxInteractions,
		cfg.MaxTrialTranslation, cfg.MaxTrialRotation, cfg.ProbTranslate)
	return e, nil
}

// === View ===

// Box returns the simulation box.
func (e *Engine) Box() *geom.Box { return e.box }

// Dimension returns the number of spatial axes.
func (e *Engine) Dimension() int { return e.cfg.Dimension }

// NumParticles returns the fixed particle count.
func (e *Engine) NumParticles() int { return e.cfg.NumParticles }

// State returns the committed state of particle i.
func (e *Engine) State(i int) particle.State { return e.store.State(i) }

// Neighbors appends the cell-list neighbors of position to buf.
func (e *Engine) Neighbors(position []float64, buf []int) []int {
	return e.cells.Neighbors(position, buf)
}

// === Accessors ===

// Positions returns a copy of all committed positions (n*dim values).
func (e *Engine) Positions() []float64 { return e.store.Positions() }

// Orientations returns a copy of all committed orientations.
func (e *Engine) Orientations() []float64 { return e.store.Orientations() }

// Position returns a copy of particle i's committed position.
func (e *Engine) Position(i int) []float64 {
	return append([]float64(nil), e.store.Position(i)...)
}

// Orientation returns a copy of particle i's committed orientation.
func (e *Engine) Orientation(i int) []float64 {
	return append([]float64(nil), e.store.Orientation(i)...)
}

// Types returns a copy of the particle type tags.
func (e *Engine) Types() []int { return e.store.Types() }

// Cells returns the committed cell list. Callers must not mutate it.
func (e *Engine) Cells() *cells.List { return e.cells }

// CellOf returns the cell particle i is registered in.
func (e *Engine) CellOf(i int) int { return e.cells.CellOf(i) }

// Statistics returns a snapshot of the chain statistics.
func (e *Engine) Statistics() Statistics { return e.stats.clone() }

// AcceptanceRatio returns the cumulative acceptance ratio.
func (e *Engine) AcceptanceRatio() float64 { return e.stats.AcceptanceRatio() }

// MeanClusterSize returns the mean size of accepted clusters.
func (e *Engine) MeanClusterSize() float64 { return e.stats.MeanClusterSize() }

// Steps returns the number of elementary moves resolved so far.
func (e *Engine) Steps() int64 { return e.steps }

// ReferenceRadius returns the configured secondary tuning parameter.
func (e *Engine) ReferenceRadius() float64 { return e.cfg.ReferenceRadius }

// Repulsive returns the configured mode flag.
func (e *Engine) Repulsive() bool { return e.cfg.Repulsive }

// SetTrace attaches a move trace; nil detaches it.
func (e *Engine) SetTrace(t *trace.MoveTrace) { e.trace = t }

// === Markov chain ===

// Advance runs n elementary moves sequentially. It stops at the first
// model contract violation, which is returned as a *ModelError.
func (e *Engine) Advance(n int) error {
	for k := 0; k < n; k++ {
		if _, err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Sweep runs k sweeps of NumParticles elementary moves each.
func (e *Engine) Sweep(k int) error {
	return e.Advance(k * e.cfg.NumParticles)
}

// Step runs one elementary move: select a seed, propose a rigid move, grow
// the cluster and accept or reject it. A returned error leaves committed
// state and statistics untouched.
func (e *Engine) Step() (StepResult, error) {
	seed := e.seedRNG.Intn(e.cfg.NumParticles)
	move := proposeMove(e.moveRNG, e.cfg.Dimension, e.cfg.ProbTranslate, e.cfg.MaxTrialTranslation, e.cfg.MaxTrialRotation)
	res := StepResult{Step: e.steps + 1, Seed: seed, Move: move}

	factor, aborted, err := e.growCluster(seed, &move)
	if err != nil {
		logrus.Errorf("step %d: %v", res.Step, err)
		return res, err
	}
	res.ClusterSize = len(e.cluster)

	switch {
	case aborted:
		res.Outcome = OutcomeAborted
		logrus.Debugf("step %d: cluster growth from seed %d exceeded %d interactions", res.Step, seed, e.cfg.MaxInteractions)
	case factor >= 1 || (factor > 0 && e.linkRNG.Float64() < factor):
		res.Factor = factor
		if err := e.commit(); err != nil {
			logrus.Errorf("step %d: %v", res.Step, err)
			return res, err
		}
		res.Outcome = OutcomeAccepted
	default:
		res.Factor = factor
		res.Outcome = OutcomeRejected
	}

	e.steps++
	e.stats.record(move.Kind, res.Outcome, res.ClusterSize)
	if e.trace.Enabled() {
		e.trace.RecordMove(trace.MoveRecord{
			Step:        res.Step,
			Seed:        seed,
			Kind:        move.Kind.String(),
			Magnitude:   move.magnitude(),
			ClusterSize: res.ClusterSize,
			Outcome:     res.Outcome.String(),
			Factor:      res.Factor,
		})
	}
	logrus.Tracef("step %d: seed=%d %s size=%d factor=%.4g %s",
		res.Step, seed, move.Kind, res.ClusterSize, res.Factor, res.Outcome)
	return res, nil
}

// growCluster builds the cluster for one move breadth-first from seed and
// returns the correction factor for the acceptance test. aborted is set
// when a member's distinct neighbor count, over its committed, trial and
// reverse positions, exceeds the interaction cap.
//
// Every tested pair (p, q) contributes to the factor:
//   - formed link:                      p_rev / p_link
//   - failed link, q joins later:       (1 - p_rev) / (1 - p_link)
//   - failed link, q stays outside:     1 (the Boltzmann factor of the
//     realised energy change cancels the failure ratio exactly)
//
// p_rev is the link probability under the inverse virtual move of p.
func (e *Engine) growCluster(seed int, move *Move) (factor float64, aborted bool, err error) {
	e.stamp++
	e.cluster = e.cluster[:0]
	e.frustrated = e.frustrated[:0]
	center := e.store.Position(seed)

	e.admit(seed)
	factor = 1
	for head := 0; head < len(e.cluster); head++ {
		p := e.cluster[head]
		cands, err := e.candidatesFor(p, move, center)
		if err != nil {
			return 0, false, err
		}
		if len(cands) > e.cfg.MaxInteractions {
			return 0, true, nil
		}

		pOld := e.store.State(p)
		pNew := e.trialState(p, move, center)
		pRev := e.reverseState(p, move, center)
		for _, q := range cands {
			if e.isMember(q) {
				continue
			}
			qState := e.store.State(q)
			eOld, err := e.pairEnergy(pOld, qState)
			if err != nil {
				return 0, false, err
			}
			eNew, err := e.pairEnergy(pNew, qState)
			if err != nil {
				return 0, false, err
			}
			eRev, err := e.pairEnergy(pRev, qState)
			if err != nil {
				return 0, false, err
			}
			forward := linkProbability(eOld, eNew)
			reverse := linkProbability(eOld, eRev)

			if e.linkRNG.Float64() < forward {
				factor *= reverse / forward
				e.admit(q)
			} else {
				e.frustrated = append(e.frustrated, frustratedLink{from: p, to: q, forward: forward, reverse: reverse})
			}
		}
		if factor == 0 {
			// The reverse move can never form this cluster; stop early.
			return 0, false, nil
		}
	}

	for _, f := range e.frustrated {
		if e.isMember(f.to) {
			factor *= (1 - f.reverse) / (1 - f.forward)
		}
	}
	return factor, false, nil
}

// linkProbability is the probability that a virtual move taking a pair's
// energy from eOld to eNew drags the partner along.
func linkProbability(eOld, eNew float64) float64 {
	return math.Max(0, math.Min(1, 1-math.Exp(eOld-eNew)))
}

func (e *Engine) admit(i int) {
	e.memberStamp[i] = e.stamp
	e.cluster = append(e.cluster, i)
}

func (e *Engine) isMember(i int) bool { return e.memberStamp[i] == e.stamp }

// trialState returns particle i with the move applied.
func (e *Engine) trialState(i int, move *Move, center []float64) particle.State {
	dim := e.cfg.Dimension
	pos := e.trialPos[i*dim : (i+1)*dim]
	orient := e.trialOrient[i*dim : (i+1)*dim]
	if e.trialStamp[i] != e.stamp {
		move.apply(e.box, center, e.store.Position(i), e.store.Orientation(i), e.store.HasOrientation(i), false, pos, orient)
		e.trialStamp[i] = e.stamp
	}
	st := e.store.State(i)
	st.Position, st.Orientation = pos, orient
	return st
}

// reverseState returns particle i with the inverse move applied.
func (e *Engine) reverseState(i int, move *Move, center []float64) particle.State {
	dim := e.cfg.Dimension
	pos := e.reversePos[i*dim : (i+1)*dim]
	orient := e.reverseOrient[i*dim : (i+1)*dim]
	if e.reverseStamp[i] != e.stamp {
		move.apply(e.box, center, e.store.Position(i), e.store.Orientation(i), e.store.HasOrientation(i), true, pos, orient)
		e.reverseStamp[i] = e.stamp
	}
	st := e.store.State(i)
	st.Position, st.Orientation = pos, orient
	return st
}

// candidatesFor returns the distinct particles the model reports around
// p's committed, trial and reverse positions, excluding p itself. A
// partner reachable only from the reverse position has a forward link
// probability of zero but still enters the factor if it joins the cluster.
func (e *Engine) candidatesFor(p int, move *Move, center []float64) ([]int, error) {
	e.seenEpoch++
	e.candidates = e.candidates[:0]

	queries := [3]particle.State{
		e.store.State(p),
		e.trialState(p, move, center),
		e.reverseState(p, move, center),
	}
	for _, st := range queries {
		var err error
		e.queryBuf, err = e.model.Interactions(e, p, st.Position, st.Orientation, e.queryBuf[:0])
		if err != nil {
			return nil, &ModelError{Particle: p, Op: "interactions", Err: err}
		}
		if len(e.queryBuf) > e.cfg.NumParticles {
			return nil, &ModelError{Particle: p, Op: "interactions",
				Err: fmt.Errorf("list of %d candidates exceeds particle count %d", len(e.queryBuf), e.cfg.NumParticles)}
		}
		for _, q := range e.queryBuf {
			if q < 0 || q >= e.cfg.NumParticles {
				return nil, &ModelError{Particle: p, Op: "interactions", Err: fmt.Errorf("candidate index %d out of range", q)}
			}
			if q == p || e.seenStamp[q] == e.seenEpoch {
				continue
			}
			e.seenStamp[q] = e.seenEpoch
			e.candidates = append(e.candidates, q)
		}
	}
	return e.candidates, nil
}

func (e *Engine) pairEnergy(a, b particle.State) (float64, error) {
	u, err := e.model.PairEnergy(a, b)
	if err != nil {
		return 0, &ModelError{Particle: a.Index, Op: "pair energy", Err: err}
	}
	if math.IsNaN(u) || math.IsInf(u, 0) {
		return 0, &ModelError{Particle: a.Index, Op: "pair energy", Err: fmt.Errorf("non-finite energy %v with particle %d", u, b.Index)}
	}
	return u, nil
}

func (e *Engine) energy(i int) (float64, error) {
	u, err := e.model.Energy(e, i)
	if err != nil {
		return 0, &ModelError{Particle: i, Op: "energy", Err: err}
	}
	if math.IsNaN(u) || math.IsInf(u, 0) {
		return 0, &ModelError{Particle: i, Op: "energy", Err: fmt.Errorf("non-finite energy %v", u)}
	}
	return u, nil
}

// commit applies the trial state of every cluster member to the store and
// cell list, then notifies the model. If the model fails mid-way the
// previous committed state is restored.
func (e *Engine) commit() error {
	dim := e.cfg.Dimension
	for _, i := range e.cluster {
		u, err := e.energy(i)
		if err != nil {
			return err
		}
		e.oldEnergy[i] = u
	}

	for k, i := range e.cluster {
		b := e.backup[2*k*dim : 2*(k+1)*dim]
		copy(b[:dim], e.store.Position(i))
		copy(b[dim:], e.store.Orientation(i))
		e.store.Set(i, e.trialPos[i*dim:(i+1)*dim], e.trialOrient[i*dim:(i+1)*dim])
		e.cells.Update(i, e.store.Position(i))
	}

	for _, i := range e.cluster {
		u, err := e.energy(i)
		if err != nil {
			e.rollback()
			return err
		}
		e.newEnergy[i] = u
	}
	for _, i := range e.cluster {
		e.model.OnAccept(i, e.oldEnergy[i], e.newEnergy[i])
	}
	return nil
}

func (e *Engine) rollback() {
	dim := e.cfg.Dimension
	for k, i := range e.cluster {
		b := e.backup[2*k*dim : 2*(k+1)*dim]
		e.store.Set(i, b[:dim], b[dim:])
		e.cells.Update(i, e.store.Position(i))
	}
}
