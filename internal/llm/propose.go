package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pairkeep/internal/backend"
	"pairkeep/internal/organize"
)

// planProposalPrompt instructs the model to sort loose items into groupings.
const planProposalPrompt = `You organize a shared household workspace of notes and tasks.
You receive the workspace's existing groupings and a list of ungrouped items.
Assign every item you can to a grouping. Prefer existing groupings; propose a
new grouping only when no existing one fits and at least two items belong in it.
Leave an item out of the response if no sensible grouping exists for it.

Respond with JSON only, in this shape:
{
  "new_groupings": ["<name>", ...],
  "relocations": [
    {"item_id": "<id>", "grouping_id": "<existing grouping id or empty>", "grouping_name": "<grouping name>"}
  ]
}

Use grouping_id when moving an item into an existing grouping. Use
grouping_name (and leave grouping_id empty) when the destination is one of the
new_groupings. Never invent item ids.`

type proposalPayload struct {
	NewGroupings []string `json:"new_groupings"`
	Relocations  []struct {
		ItemID       string `json:"item_id"`
		GroupingID   string `json:"grouping_id"`
		GroupingName string `json:"grouping_name"`
	} `json:"relocations"`
}

type promptItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Note  string `json:"note,omitempty"`
	DueAt string `json:"due_at,omitempty"`
}

type promptGrouping struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProposePlan asks the model for an organization plan covering the supplied
// ungrouped items. The returned plan is a proposal; the organization engine
// decides what actually happens to it.
func (c *Client) ProposePlan(ctx context.Context, items []backend.Item, existing []organize.Grouping) (*organize.Plan, error) {
	if len(items) == 0 {
		return nil, errors.New("llm propose: no items to organize")
	}

	userPrompt, err := buildProposalPrompt(items, existing)
	if err != nil {
		return nil, err
	}
	content, err := c.CompleteJSON(ctx, planProposalPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var payload proposalPayload
	if err := DecodeModelJSON(content, &payload); err != nil {
		return nil, fmt.Errorf("llm propose: parse payload: %w", err)
	}
	return payload.toPlan(items), nil
}

func buildProposalPrompt(items []backend.Item, existing []organize.Grouping) (string, error) {
	promptItems := make([]promptItem, 0, len(items))
	for _, item := range items {
		entry := promptItem{ID: item.ID, Title: item.Title, Note: item.Note}
		if item.DueAt != nil {
			entry.DueAt = item.DueAt.Format("2006-01-02")
		}
		promptItems = append(promptItems, entry)
	}
	promptGroupings := make([]promptGrouping, 0, len(existing))
	for _, grouping := range existing {
		promptGroupings = append(promptGroupings, promptGrouping{ID: grouping.ID, Name: grouping.Name})
	}
	encoded, err := json.Marshal(struct {
		Groupings []promptGrouping `json:"existing_groupings"`
		Items     []promptItem     `json:"ungrouped_items"`
	}{promptGroupings, promptItems})
	if err != nil {
		return "", fmt.Errorf("llm propose: encode prompt: %w", err)
	}
	return string(encoded), nil
}

// toPlan converts the decoded payload into an engine plan, dropping entries
// that reference item ids the workspace never sent.
func (p proposalPayload) toPlan(items []backend.Item) *organize.Plan {
	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		known[item.ID] = struct{}{}
	}

	plan := &organize.Plan{}
	for _, name := range p.NewGroupings {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			plan.NewGroupings = append(plan.NewGroupings, trimmed)
		}
	}
	for _, move := range p.Relocations {
		itemID := strings.TrimSpace(move.ItemID)
		if itemID == "" {
			continue
		}
		if _, ok := known[itemID]; !ok {
			continue
		}
		plan.Relocations = append(plan.Relocations, organize.Relocation{
			ItemID:       itemID,
			GroupingID:   strings.TrimSpace(move.GroupingID),
			GroupingName: strings.TrimSpace(move.GroupingName),
		})
	}
	return plan
}
