// Package api defines the view types shared between the daemon's IPC surface
// and the CLI renderers.
package api
