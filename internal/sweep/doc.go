// Package sweep holds the data model of an ablation sweep and the
// configuration space generator.
//
// # Core Concepts
//
//   - Axis: an ordered, fixed set of string tokens (dataset, activation,
//     init strategy) known when the sweep is defined.
//
//   - RunConfiguration: one point of the Cartesian product of the axes plus
//     the sweep seed. Configurations are plain comparable values; two of them
//     are equal iff every axis value and the seed match.
//
//   - Space: the deterministic, restartable enumeration of all
//     configurations. The outermost axis (dataset) varies slowest.
//
//   - RunResult: the terminal metrics extracted from one successful run.
//
// The space never filters or deduplicates. Callers that want a subset filter
// the sequence themselves.
package sweep
