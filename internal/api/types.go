package api

import "time"

// RunView is the serialization-friendly projection of a stored run shared by
// the IPC layer and the CLI renderers.
type RunView struct {
	ID           int64     `json:"id"`
	Status       string    `json:"status"`
	Trigger      string    `json:"trigger,omitempty"`
	ItemCount    int       `json:"item_count"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	NeedsReview  bool      `json:"needs_review"`
	ReviewReason string    `json:"review_reason,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FailureView is one per-item failure inside a run result.
type FailureView struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// RunDetailView extends RunView with the decoded plan and result.
type RunDetailView struct {
	RunView
	NewGroupings     []string          `json:"new_groupings,omitempty"`
	Relocations      int               `json:"relocations"`
	CreatedGroupings map[string]string `json:"created_groupings,omitempty"`
	Failures         []FailureView     `json:"failures,omitempty"`
}

// GroupingView is the projection of a workspace grouping.
type GroupingView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedBy string `json:"created_by,omitempty"`
}
