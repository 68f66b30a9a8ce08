// Package workflow drives organization runs from claim to completion.
//
// A single background loop claims pending runs from the store, gathers the
// workspace's ungrouped items and existing groupings, asks the planner for a
// plan, and applies it through the organization engine. Run outcomes are
// persisted, counted, and pushed to the notifier; loop errors back off and
// retry rather than killing the daemon.
package workflow
