package api

import (
	"pairkeep/internal/organize"
	"pairkeep/internal/store"
)

// FromRun projects a stored run into its view form.
func FromRun(run *store.Run) RunView {
	if run == nil {
		return RunView{}
	}
	return RunView{
		ID:           run.ID,
		Status:       string(run.Status),
		Trigger:      run.Trigger,
		ItemCount:    run.ItemCount,
		SuccessCount: run.SuccessCount,
		FailureCount: run.FailureCount,
		NeedsReview:  run.NeedsReview,
		ReviewReason: run.ReviewReason,
		Error:        run.ErrorMessage,
		CreatedAt:    run.CreatedAt,
		UpdatedAt:    run.UpdatedAt,
	}
}

// FromRunDetail projects a stored run including its decoded plan and result.
// Decode failures are tolerated; the detail view then carries the base fields
// only, since a corrupt payload should not hide the run itself.
func FromRunDetail(run *store.Run) RunDetailView {
	detail := RunDetailView{RunView: FromRun(run)}
	if run == nil {
		return detail
	}
	if plan, err := run.Plan(); err == nil && plan != nil {
		detail.NewGroupings = append(detail.NewGroupings, plan.NewGroupings...)
		detail.Relocations = len(plan.Relocations)
	}
	if result, err := run.Result(); err == nil && result != nil {
		if len(result.CreatedGroupings) > 0 {
			detail.CreatedGroupings = make(map[string]string, len(result.CreatedGroupings))
			for name, id := range result.CreatedGroupings {
				detail.CreatedGroupings[name] = id
			}
		}
		for _, failure := range result.Failures {
			detail.Failures = append(detail.Failures, FailureView{ItemID: failure.ItemID, Reason: failure.Reason})
		}
	}
	return detail
}

// FromGrouping projects a workspace grouping into its view form.
func FromGrouping(grouping organize.Grouping) GroupingView {
	return GroupingView{
		ID:        grouping.ID,
		Name:      grouping.Name,
		CreatedBy: grouping.CreatedBy,
	}
}
