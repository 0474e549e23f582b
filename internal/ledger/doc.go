// Package ledger records run history in a SQLite database under the state
// directory: one row per run and one per processed file, pruned to the
// configured number of recent runs.
package ledger
