// Package metrics exposes run outcome counters over an optional Prometheus
// scrape endpoint.
package metrics
