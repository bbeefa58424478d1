// Package sim provides the Virtual-Move Monte Carlo (VMMC) cluster-move engine.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - model.go: the callback contract a potential implements (Model, View)
//   - move.go: rigid-body moves (translation, rotation about the seed) and their proposal
//   - engine.go: seed selection, breadth-first cluster growth, the acceptance test and commit
//
// # Architecture
//
// The sim package defines the engine and its contract; substrates and collaborators
// live in sub-packages:
//   - sim/geom/: periodic box (minimum image, wrap) and rotations
//   - sim/cells/: cell list bounding neighbor search
//   - sim/particle/: arena particle store and initial configurations
//   - sim/potential/: Lennard-Jones and cosine-squared models
//   - sim/trace/: per-move decision records
//   - sim/trajectory/: xyz, VMD and energy-log writers
//
// # Commit/trial separation
//
// One elementary move runs SelectSeed → ProposeMove → GrowCluster → Resolve.
// During growth every candidate particle gets a provisional transformed state held in
// engine scratch buffers. The particle store and cell list change only when a move is
// accepted, so a rejected or aborted move leaves them bit-identical.
//
// # Errors
//
// Construction failures are *ConfigurationError (errors.Is(err, ErrConfiguration)).
// Model callbacks that return non-finite energies or invalid candidate lists abort the
// step with a *ModelError (errors.Is(err, ErrModel)). Rejections, including interaction
// cap overflows, are outcomes recorded in Statistics, not errors.
package sim
