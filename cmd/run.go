package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/vmmc-sim/vmmc-sim/sim"
	"github.com/vmmc-sim/vmmc-sim/sim/geom"
	"github.com/vmmc-sim/vmmc-sim/sim/particle"
	"github.com/vmmc-sim/vmmc-sim/sim/potential"
	"github.com/vmmc-sim/vmmc-sim/sim/trace"
	"github.com/vmmc-sim/vmmc-sim/sim/trajectory"
)

// Output file names inside OutputConfig.Directory.
const (
	headerFile     = "run.yaml"
	trajectoryFile = "trajectory.xyz"
	vmdFile        = "vmd.tcl"
	energyFile     = "energy.csv"
)

// energyModel is a sim.Model that tracks its total energy.
type energyModel interface {
	sim.Model
	Range() float64
	Initialise(v sim.View) error
	TotalEnergy() float64
	MeanEnergy(v sim.View) float64
}

// RunSummary is what a finished run reports.
type RunSummary struct {
	Statistics    sim.Statistics
	FinalEnergy   float64
	MeanEnergy    float64 // mean over reports of the per-particle energy
	StdEnergy     float64
	Sweeps        int64
	Trace         *trace.TraceSummary // nil unless tracing was enabled
	WallClockTime time.Duration
}

// newModel builds the configured potential.
func newModel(box *geom.Box, pc PotentialConfig) (energyModel, error) {
	switch pc.Name {
	case PotentialLennardJones:
		return potential.NewLennardJones(box, pc.InteractionEnergy, pc.InteractionRange)
	case PotentialCosSquared:
		return potential.NewCosSquared(box, pc.InteractionEnergy, pc.InteractionRange)
	default:
		return nil, fmt.Errorf("unknown potential %q", pc.Name)
	}
}

// initialConfiguration loads the input table or generates random positions.
func initialConfiguration(rc *RunConfig, rng *sim.PartitionedRNG) (*geom.Box, *particle.Configuration, error) {
	dim := rc.System.Dimension
	var conf *particle.Configuration
	n := rc.System.NumParticles
	if rc.System.InputFile != "" {
		var err error
		conf, err = particle.ReadConfiguration(rc.System.InputFile, dim, rc.System.InputHasOrientations)
		if err != nil {
			return nil, nil, err
		}
		if got := len(conf.Types); got != n {
			logrus.Warnf("input file %s has %d particles; overriding num_particles=%d", rc.System.InputFile, got, n)
			n = got
		}
	}

	length := BoxLength(dim, n, rc.System.Density)
	lengths := make([]float64, dim)
	for k := range lengths {
		lengths[k] = length
	}
	box, err := geom.NewBox(lengths)
	if err != nil {
		return nil, nil, err
	}
	if conf == nil {
		conf, err = particle.RandomConfiguration(box, n, rng.ForSubsystem(sim.SubsystemInit))
		if err != nil {
			return nil, nil, err
		}
	}
	return box, conf, nil
}

// engineConfig maps a RunConfig onto the engine's construction parameters.
func engineConfig(rc *RunConfig, box *geom.Box, conf *particle.Configuration, interactionRange float64) sim.Config {
	n := len(conf.Types)
	cfg := sim.Config{
		NumParticles:        n,
		Dimension:           box.Dimension(),
		Coordinates:         conf.Positions,
		Types:               conf.Types,
		MaxTrialTranslation: rc.Moves.MaxTranslation,
		MaxTrialRotation:    rc.Moves.MaxRotation,
		ProbTranslate:       rc.Moves.ProbTranslate,
		ReferenceRadius:     rc.Moves.ReferenceRadius,
		MaxInteractions:     rc.Moves.MaxInteractions,
		BoxSize:             box.Lengths(),
		InteractionRange:    interactionRange,
		Repulsive:           rc.Moves.Repulsive,
		Seed:                rc.System.Seed,
	}
	if !rc.System.Isotropic && conf.Orientations != nil {
		cfg.Orientations = conf.Orientations
		cfg.Isotropic = make([]bool, n)
	}
	return cfg
}

// runSimulation executes the demo loop: build the system, then alternate
// SweepsPerReport sweeps with a report until Reports reports are done.
// One progress line per report is written to progress.
func runSimulation(rc *RunConfig, progress io.Writer) (*RunSummary, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(rc.System.Seed))

	box, conf, err := initialConfiguration(rc, rng)
	if err != nil {
		return nil, fmt.Errorf("initial configuration: %w", err)
	}
	model, err := newModel(box, rc.Potential)
	if err != nil {
		return nil, fmt.Errorf("potential: %w", err)
	}
	engine, err := sim.NewEngine(engineConfig(rc, box, conf, model.Range()), model)
	if err != nil {
		return nil, err
	}
	if err := model.Initialise(engine); err != nil {
		return nil, fmt.Errorf("initial energy: %w", err)
	}
	logrus.Infof("box %v, %d cells, initial energy %.4f, reference radius %v, repulsive %v",
		box.Lengths(), engine.Cells().NumCells(), model.TotalEnergy(), engine.ReferenceRadius(), engine.Repulsive())

	var mt *trace.MoveTrace
	if level := trace.TraceLevel(rc.Output.TraceLevel); level != trace.TraceLevelNone && level != "" {
		mt = trace.NewMoveTrace(trace.TraceConfig{Level: level, MaxRecords: rc.Output.TraceMaxRecords})
		engine.SetTrace(mt)
	}

	out, err := openOutputs(rc, box, engine.NumParticles())
	if err != nil {
		return nil, err
	}
	defer out.close()

	energies := make([]float64, 0, rc.Output.Reports)
	var sweeps int64
	for r := 0; r < rc.Output.Reports; r++ {
		if err := engine.Sweep(rc.Output.SweepsPerReport); err != nil {
			return nil, fmt.Errorf("sweep %d: %w", sweeps, err)
		}
		sweeps += int64(rc.Output.SweepsPerReport)

		if err := out.report(r == 0, sweeps, engine, model); err != nil {
			return nil, err
		}
		energies = append(energies, model.MeanEnergy(engine))
		fmt.Fprintf(progress, "sweeps = %9.4e, energy = %5.4f\n", float64(sweeps), model.TotalEnergy())
		logrus.Debugf("report %d: acceptance = %.4f, mean cluster size = %.3f",
			r+1, engine.AcceptanceRatio(), engine.MeanClusterSize())
	}

	summary := &RunSummary{
		Statistics:    engine.Statistics(),
		FinalEnergy:   model.TotalEnergy(),
		Sweeps:        sweeps,
		WallClockTime: time.Since(start),
	}
	switch len(energies) {
	case 0:
	case 1:
		summary.MeanEnergy = energies[0]
	default:
		summary.MeanEnergy, summary.StdEnergy = stat.MeanStdDev(energies, nil)
	}
	if mt != nil {
		summary.Trace = trace.Summarize(mt)
	}
	logrus.Infof("run finished: %d particles, %d sweeps in %v", engine.NumParticles(), sweeps, summary.WallClockTime)
	return summary, nil
}

// outputs bundles the per-run output files. The zero value writes nothing.
type outputs struct {
	dir        string
	trajectory bool
	energyLog  *trajectory.EnergyLog
	dimension  int
}

func openOutputs(rc *RunConfig, box *geom.Box, numParticles int) (*outputs, error) {
	out := &outputs{dir: rc.Output.Directory, trajectory: rc.Output.Trajectory, dimension: box.Dimension()}
	if out.dir == "" {
		return out, nil
	}
	if err := os.MkdirAll(out.dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	header := &trajectory.RunHeader{
		Version:           trajectory.HeaderVersion,
		CreatedAt:         time.Now().UTC().Format(time.RFC3339),
		Potential:         rc.Potential.Name,
		Dimension:         rc.System.Dimension,
		NumParticles:      numParticles,
		Density:           rc.System.Density,
		BoxSize:           box.Lengths(),
		InteractionRange:  rc.Potential.InteractionRange,
		InteractionEnergy: rc.Potential.InteractionEnergy,
		Seed:              rc.System.Seed,
		SweepsPerReport:   rc.Output.SweepsPerReport,
		Reports:           rc.Output.Reports,
		Moves: &trajectory.MoveHeader{
			MaxTranslation:  rc.Moves.MaxTranslation,
			MaxRotation:     rc.Moves.MaxRotation,
			ProbTranslate:   rc.Moves.ProbTranslate,
			ReferenceRadius: rc.Moves.ReferenceRadius,
			MaxInteractions: rc.Moves.MaxInteractions,
			Repulsive:       rc.Moves.Repulsive,
		},
	}
	if err := trajectory.WriteHeader(filepath.Join(out.dir, headerFile), header); err != nil {
		return nil, err
	}
	if out.trajectory {
		if err := trajectory.WriteVMDScript(filepath.Join(out.dir, vmdFile), trajectoryFile, box.Lengths()); err != nil {
			return nil, err
		}
	}
	log, err := trajectory.CreateEnergyLog(filepath.Join(out.dir, energyFile))
	if err != nil {
		return nil, err
	}
	out.energyLog = log
	return out, nil
}

func (o *outputs) report(first bool, sweeps int64, e *sim.Engine, m energyModel) error {
	if o.dir == "" {
		return nil
	}
	if o.trajectory {
		frame := trajectory.Frame{Sweeps: sweeps, Dimension: o.dimension, Positions: e.Positions(), Types: e.Types()}
		if err := trajectory.AppendXYZ(filepath.Join(o.dir, trajectoryFile), frame, first); err != nil {
			return err
		}
	}
	return o.energyLog.Append(trajectory.EnergyRecord{
		Sweeps:          sweeps,
		Energy:          m.TotalEnergy(),
		MeanEnergy:      m.MeanEnergy(e),
		AcceptanceRatio: e.AcceptanceRatio(),
		MeanClusterSize: e.MeanClusterSize(),
	})
}

func (o *outputs) close() {
	if o.energyLog == nil {
		return
	}
	if err := o.energyLog.Close(); err != nil {
		logrus.Errorf("closing energy log: %v", err)
	}
}

// printSummary writes the end-of-run report to stdout.
func printSummary(s *RunSummary) {
	fmt.Println("=== Run Summary ===")
	fmt.Printf("Sweeps               : %d\n", s.Sweeps)
	fmt.Printf("Final energy         : %.4f\n", s.FinalEnergy)
	fmt.Printf("Energy per particle  : %.4f ± %.4f\n", s.MeanEnergy, s.StdEnergy)
	fmt.Printf("Wall-clock time      : %v\n", s.WallClockTime)
	s.Statistics.Print()
	if s.Trace != nil {
		fmt.Println("=== Trace Summary ===")
		fmt.Printf("Recorded moves       : %d (accepted %d, rejected %d, aborted %d)\n",
			s.Trace.TotalMoves, s.Trace.AcceptedCount, s.Trace.RejectedCount, s.Trace.AbortedCount)
		fmt.Printf("Cluster size         : %.3f ± %.3f (max %d)\n",
			s.Trace.MeanClusterSize, s.Trace.StdClusterSize, s.Trace.MaxClusterSize)
	}
}
