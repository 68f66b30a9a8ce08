// Package services provides the shared error taxonomy and context helpers
// used by collaborator clients and the organization workflow.
package services
