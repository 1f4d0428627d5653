// Package main hosts the songaday CLI entrypoint and command graph.
//
// The Cobra command tree runs the catalog pipeline once or on a schedule,
// inspects run tokens, answers read-only catalog queries, and scaffolds
// configuration. Configuration resolution, store and index opening, and
// logging setup live here so subcommands stay declarative.
//
// Add behaviour to the internal packages first and surface it through a
// command here.
package main
