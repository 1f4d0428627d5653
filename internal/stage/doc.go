// Package stage defines the contract between the pipeline runner and its
// stages, and the run context they share.
package stage
