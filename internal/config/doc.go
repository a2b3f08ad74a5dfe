// Package config defines the format-agnostic sweep definition, along with the
// Loader interface that format-specific packages implement.
//
// The `config.Sweep` is the single source of truth for the app layer: it
// yields the configuration space, the artifact layout and the fixed build
// and run settings. Concrete loaders for HCL and YAML live in separate
// packages and both fill their optional fields from Default.
package config
