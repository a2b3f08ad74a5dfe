// Package app contains the core application logic. It wires a loaded sweep
// definition to the executor and its collaborators, and exposes the run,
// plan, clean and best operations decoupled from any specific entrypoint
// like a CLI.
package app
