package backend

import "time"

// Item is a note or task owned by the workspace. Only the grouping membership
// field is ever mutated by this client; items are never created or deleted
// through it.
type Item struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Note       string     `json:"note,omitempty"`
	GroupingID string     `json:"grouping_id,omitempty"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	CreatedBy  string     `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Ungrouped reports whether the item has no grouping membership.
func (i Item) Ungrouped() bool {
	return i.GroupingID == ""
}

type createGroupingRequest struct {
	Name      string `json:"name"`
	CreatedBy string `json:"created_by,omitempty"`
}

type updateItemRequest struct {
	GroupingID string `json:"grouping_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}
