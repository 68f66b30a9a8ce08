// Package preflight provides readiness checks for external services
// and filesystem paths that pairkeep depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and refuses to start when a check
//     fails, so the workflow never burns runs against a doomed configuration.
//   - The CLI "pairkeep status" command uses individual check functions
//     to display service health.
package preflight
