// Package llm asks a hosted language model to propose organization plans for
// ungrouped workspace items. Responses are JSON-only; transient provider
// failures are retried with capped exponential backoff.
package llm
