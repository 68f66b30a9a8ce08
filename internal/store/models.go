package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pairkeep/internal/organize"
)

// Status represents the lifecycle of an organization run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusPlanned   Status = "planned"
	StatusApplying  Status = "applying"
	StatusApplied   Status = "applied"
	StatusFailed    Status = "failed"
)

// DaemonStopReason is the error message set on runs failed during shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusAnalyzing,
	StatusPlanned,
	StatusApplying,
	StatusApplied,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusAnalyzing: {},
	StatusApplying:  {},
}

// Run is one pass of the organization workflow persisted in SQLite.
type Run struct {
	ID           int64
	Status       Status
	Trigger      string
	ItemCount    int
	PlanJSON     string
	ResultJSON   string
	SuccessCount int
	FailureCount int
	ErrorMessage string
	NeedsReview  bool
	ReviewReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HealthSummary describes aggregated run counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Applied    int
	Failed     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsProcessing returns true when the run reflects an in-flight operation.
func (r Run) IsProcessing() bool {
	return IsProcessingStatus(r.Status)
}

// SetPlan stores the proposed plan and advances the run to planned.
func (r *Run) SetPlan(plan *organize.Plan) error {
	encoded, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	r.PlanJSON = string(encoded)
	r.Status = StatusPlanned
	return nil
}

// Plan decodes the stored plan, or nil when none was recorded.
func (r *Run) Plan() (*organize.Plan, error) {
	if strings.TrimSpace(r.PlanJSON) == "" {
		return nil, nil
	}
	var plan organize.Plan
	if err := json.Unmarshal([]byte(r.PlanJSON), &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	return &plan, nil
}

// SetResult stores the apply outcome and advances the run to applied. Runs
// with failures are flagged for review so they surface in the CLI.
func (r *Run) SetResult(result *organize.Result) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	r.ResultJSON = string(encoded)
	r.Status = StatusApplied
	r.ErrorMessage = ""
	if result != nil {
		r.SuccessCount = result.SuccessCount
		r.FailureCount = len(result.Failures)
		if r.FailureCount > 0 {
			r.NeedsReview = true
			r.ReviewReason = result.Summary()
		}
	}
	return nil
}

// Result decodes the stored apply outcome, or nil when none was recorded.
func (r *Run) Result() (*organize.Result, error) {
	if strings.TrimSpace(r.ResultJSON) == "" {
		return nil, nil
	}
	var result organize.Result
	if err := json.Unmarshal([]byte(r.ResultJSON), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}

// SetFailed marks the run as failed with the given error message.
func (r *Run) SetFailed(message string) {
	r.Status = StatusFailed
	r.ErrorMessage = message
}
