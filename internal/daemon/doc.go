// Package daemon wires the store, backend client, and workflow manager into a
// single long-running service and guards it with a file lock so only one
// instance organizes a workspace at a time.
package daemon
