// Package backend talks to the hosted pairkeep workspace service.
//
// The client implements the grouping and item store contracts consumed by the
// organization engine, plus the read operations the workflow needs to gather
// ungrouped items and existing groupings. The backend is authoritative; the
// client never caches its state.
package backend
