// Package organize applies AI-proposed organization plans to a workspace.
//
// The engine consumes a Plan (groupings to create plus item relocations),
// creates the missing groupings through the injected grouping store, resolves
// each relocation to a concrete destination, executes the relocations through
// the injected item store, and aggregates the outcome into a Result. Partial
// application is an accepted, reported outcome: per-grouping and per-item
// failures never abort the batch and never escape Apply.
package organize
