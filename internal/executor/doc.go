// Package executor drives a sweep: it feeds every configuration of a space
// through the patch, build, run, extract and append pipeline on a bounded
// worker pool.
//
// Failures of a single configuration are recovered locally and reported as
// an outcome.Kind on the Report. The only sweep-fatal condition is a failed
// append to the aggregate store, which cancels in-flight work and is
// returned from Run.
package executor
