// Package daemon runs the catalog pipeline on a fixed cadence.
//
// A run fires as soon as the scheduler starts and then once per interval.
// Runs execute synchronously inside the loop and take a flock-based run lock
// that the one-shot `run` command shares, so two passes never overlap even
// across processes. On start the daemon warns about a latest run token that
// never finished.
//
// Keep pipeline logic in internal/pipeline: the daemon only owns timing,
// locking, and lifecycle.
package daemon
