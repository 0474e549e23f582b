// Package main hosts the flacfixer CLI entrypoint and command graph.
//
// The Cobra-based command tree wires terminal invocations to the rewrite
// engine, the run history ledger, single-file inspection, and configuration
// scaffolding. It centralizes configuration resolution and logger setup so
// subcommands can focus on flags and output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
