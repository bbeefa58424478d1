package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags; when set they override the config file
	configPath      string  // YAML run config
	logLevel        string  // Log verbosity level
	seed            int64   // Master seed of the Markov chain
	dimension       int     // 2 or 3
	numParticles    int     // Number of particles
	density         float64 // Volume (area) fraction
	potentialName   string  // lennard-jones or cos-squared
	epsilon         float64 // Interaction energy in kBT
	cutOff          float64 // Interaction range in particle diameters
	maxTranslation  float64 // Radius of the translation proposal ball
	maxRotation     float64 // Maximum rotation angle (radians)
	probTranslate   float64 // Probability a move is a translation
	maxInteractions int     // Cap on neighbors examined per particle per move
	reports         int     // Number of reports
	sweepsPerReport int     // Sweeps between reports
	outputDir       string  // Directory for trajectory, header and energy log
	inputFile       string  // Initial configuration table
	anisotropic     bool    // Give every particle an orientation
	traceLevel      string  // Move trace verbosity
	traceMax        int     // Max trace records kept
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "vmmc-sim",
	Short: "Virtual-Move Monte Carlo simulation of short-ranged particle systems",
}

// runCmd executes the simulation using the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a VMMC simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		rc, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Starting %s simulation: %d particles in %dD, density=%v, seed=%d",
			rc.Potential.Name, rc.System.NumParticles, rc.System.Dimension, rc.System.Density, rc.System.Seed)

		summary, err := runSimulation(rc, os.Stdout)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		fmt.Println("\nComplete!")
		printSummary(summary)
	},
}

// validateCmd checks a config file without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a run configuration",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		rc, err := resolveRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("configuration valid: %s, %d particles, box length %.4f\n",
			rc.Potential.Name, rc.System.NumParticles, BoxLength(rc.System.Dimension, rc.System.NumParticles, rc.System.Density))
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveRunConfig loads --config (or the defaults) and applies every flag
// the user set explicitly.
func resolveRunConfig(cmd *cobra.Command) (*RunConfig, error) {
	rc := DefaultRunConfig()
	if configPath != "" {
		var err error
		if rc, err = LoadRunConfig(configPath); err != nil {
			return nil, err
		}
	}
	applyFlagOverrides(cmd, rc)
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return rc, nil
}

func applyFlagOverrides(cmd *cobra.Command, rc *RunConfig) {
	changed := cmd.Flags().Changed
	if changed("seed") {
		rc.System.Seed = seed
	}
	if changed("dimension") {
		rc.System.Dimension = dimension
	}
	if changed("particles") {
		rc.System.NumParticles = numParticles
	}
	if changed("density") {
		rc.System.Density = density
	}
	if changed("input") {
		rc.System.InputFile = inputFile
	}
	if changed("anisotropic") {
		rc.System.Isotropic = !anisotropic
	}
	if changed("potential") {
		rc.Potential.Name = potentialName
	}
	if changed("epsilon") {
		rc.Potential.InteractionEnergy = epsilon
	}
	if changed("range") {
		rc.Potential.InteractionRange = cutOff
	}
	if changed("max-translation") {
		rc.Moves.MaxTranslation = maxTranslation
	}
	if changed("max-rotation") {
		rc.Moves.MaxRotation = maxRotation
	}
	if changed("prob-translate") {
		rc.Moves.ProbTranslate = probTranslate
	}
	if changed("max-interactions") {
		rc.Moves.MaxInteractions = maxInteractions
	}
	if changed("reports") {
		rc.Output.Reports = reports
	}
	if changed("sweeps") {
		rc.Output.SweepsPerReport = sweepsPerReport
	}
	if changed("output") {
		rc.Output.Directory = outputDir
	}
	if changed("trace-level") {
		rc.Output.TraceLevel = traceLevel
	}
	if changed("trace-max") {
		rc.Output.TraceMaxRecords = traceMax
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func registerFlags(cmd *cobra.Command) {
	d := DefaultRunConfig()
	cmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().Int64Var(&seed, "seed", d.System.Seed, "Master seed of the Markov chain")

	// System
	cmd.Flags().IntVar(&dimension, "dimension", d.System.Dimension, "Spatial dimension (2 or 3)")
	cmd.Flags().IntVar(&numParticles, "particles", d.System.NumParticles, "Number of particles")
	cmd.Flags().Float64Var(&density, "density", d.System.Density, "Volume (area) fraction occupied by particles")
	cmd.Flags().StringVar(&inputFile, "input", "", "Initial configuration table (type, coordinates[, orientation])")
	cmd.Flags().BoolVar(&anisotropic, "anisotropic", false, "Give every particle an orientation")

	// Potential
	cmd.Flags().StringVar(&potentialName, "potential", d.Potential.Name, "Pair potential (lennard-jones, cos-squared)")
	cmd.Flags().Float64Var(&epsilon, "epsilon", d.Potential.InteractionEnergy, "Interaction energy in kBT")
	cmd.Flags().Float64Var(&cutOff, "range", d.Potential.InteractionRange, "Interaction range in particle diameters")

	// Moves
	cmd.Flags().Float64Var(&maxTranslation, "max-translation", d.Moves.MaxTranslation, "Radius of the translation proposal ball")
	cmd.Flags().Float64Var(&maxRotation, "max-rotation", d.Moves.MaxRotation, "Maximum rotation angle in radians")
	cmd.Flags().Float64Var(&probTranslate, "prob-translate", d.Moves.ProbTranslate, "Probability a move is a translation")
	cmd.Flags().IntVar(&maxInteractions, "max-interactions", d.Moves.MaxInteractions, "Cap on neighbors examined per particle per move")

	// Output
	cmd.Flags().IntVar(&reports, "reports", d.Output.Reports, "Number of reports")
	cmd.Flags().IntVar(&sweepsPerReport, "sweeps", d.Output.SweepsPerReport, "Monte Carlo sweeps between reports")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (empty disables file output)")
	cmd.Flags().StringVar(&traceLevel, "trace-level", d.Output.TraceLevel, "Move trace level (none, moves, accepted)")
	cmd.Flags().IntVar(&traceMax, "trace-max", 0, "Maximum trace records kept (0 = unbounded)")
}

// init sets up CLI flags and subcommands
func init() {
	registerFlags(runCmd)
	registerFlags(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
