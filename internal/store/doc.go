// Package store persists organization run history in SQLite.
//
// Each run records the plan the model proposed, the outcome of applying it,
// and enough bookkeeping for the CLI to list, retry, and clear runs. The
// database lives in the daemon's state directory and uses WAL mode so the
// CLI can read it while the daemon writes.
package store
