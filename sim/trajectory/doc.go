// Package trajectory writes simulation output: xyz coordinate frames, a VMD
// visualisation script, a YAML run header and a CSV log of energies and
// acceptance statistics.
package trajectory
