package organize

import (
	"fmt"
	"strings"
)

// ReasonUnresolvedDestination is recorded for relocations whose destination
// cannot be resolved to a grouping identifier. No store call is made for them.
const ReasonUnresolvedDestination = "unresolved-destination"

// Plan is the proposed reorganization: new groupings to create plus item
// relocations into them. It is produced externally (typically by the LLM
// analysis step) and treated as opaque, already-validated input.
type Plan struct {
	NewGroupings []string     `json:"new_groupings"`
	Relocations  []Relocation `json:"relocations"`
}

// Relocation instructs the engine to move one item into a destination
// grouping. Exactly one of GroupingID and GroupingName is expected to resolve
// the destination; GroupingID wins when both are present.
type Relocation struct {
	ItemID       string `json:"item_id"`
	GroupingID   string `json:"grouping_id,omitempty"`
	GroupingName string `json:"grouping_name,omitempty"`
}

// Grouping is a named collection that items can belong to.
type Grouping struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by,omitempty"`
}

// Failure records one relocation that could not be applied.
type Failure struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// Result aggregates the outcome of applying a plan.
type Result struct {
	CreatedGroupings map[string]string `json:"created_groupings"`
	SuccessCount     int               `json:"success_count"`
	Failures         []Failure         `json:"failures"`
}

// Summary renders the caller-facing one-line outcome.
func (r *Result) Summary() string {
	if r == nil {
		return "nothing organized"
	}
	if len(r.Failures) == 0 {
		return fmt.Sprintf("organized %d items", r.SuccessCount)
	}
	return fmt.Sprintf("organized %d items, %d failed", r.SuccessCount, len(r.Failures))
}

// IsEmpty reports whether the plan proposes no work at all.
func (p *Plan) IsEmpty() bool {
	return p == nil || (len(p.NewGroupings) == 0 && len(p.Relocations) == 0)
}

// dedupeNames trims and deduplicates grouping names preserving first-seen
// order. Blank names are dropped.
func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
