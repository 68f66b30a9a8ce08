package ipc

import "pairkeep/internal/api"

// StartRequest resumes background run processing.
type StartRequest struct{}

// StartResponse indicates whether processing was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest halts background run processing.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// RunView mirrors the run projection for IPC callers.
type RunView = api.RunView

// RunDetailView mirrors the detailed run projection for IPC callers.
type RunDetailView = api.RunDetailView

// GroupingView mirrors the grouping projection for IPC callers.
type GroupingView = api.GroupingView

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running    bool           `json:"running"`
	Workspace  string         `json:"workspace"`
	RunStats   map[string]int `json:"run_stats"`
	LastError  string         `json:"last_error"`
	LastRun    *RunView       `json:"last_run"`
	LockPath   string         `json:"lock_path"`
	RunDBPath  string         `json:"run_db_path"`
	NeedReview int            `json:"need_review"`
	PID        int            `json:"pid"`
}

// OrganizeRequest queues a new organization run.
type OrganizeRequest struct {
	Trigger string `json:"trigger"`
}

// OrganizeResponse reports the queued run.
type OrganizeResponse struct {
	Run RunView `json:"run"`
}

// RunsListRequest filters run listing by status.
type RunsListRequest struct {
	Statuses []string `json:"statuses"`
}

// RunsListResponse contains run history entries.
type RunsListResponse struct {
	Runs []RunView `json:"runs"`
}

// RunDescribeRequest fetches a single run by id.
type RunDescribeRequest struct {
	ID int64 `json:"id"`
}

// RunDescribeResponse contains a single run with plan and result details.
type RunDescribeResponse struct {
	Run RunDetailView `json:"run"`
}

// RunsRetryRequest retries failed runs. Empty list means all failed runs.
type RunsRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// RunsRetryResponse reports number of retried runs.
type RunsRetryResponse struct {
	Updated int64 `json:"updated"`
}

// RunsClearCompletedRequest removes applied runs.
type RunsClearCompletedRequest struct{}

// RunsClearCompletedResponse reports number of removed runs.
type RunsClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// RunsClearAllRequest removes all runs.
type RunsClearAllRequest struct{}

// RunsClearAllResponse reports number of removed runs.
type RunsClearAllResponse struct {
	Removed int64 `json:"removed"`
}

// GroupingsListRequest fetches workspace groupings.
type GroupingsListRequest struct{}

// GroupingsListResponse contains workspace groupings.
type GroupingsListResponse struct {
	Groupings []GroupingView `json:"groupings"`
}

// ExportCalendarRequest writes due-dated items to an ICS file.
type ExportCalendarRequest struct{}

// ExportCalendarResponse reports the written file and event count.
type ExportCalendarResponse struct {
	Path   string `json:"path"`
	Events int    `json:"events"`
}

// LogTailRequest reads daemon log lines. A negative offset requests the
// last Limit lines; a non-negative offset resumes reading from that byte.
type LogTailRequest struct {
	Offset int64 `json:"offset"`
	Limit  int   `json:"limit"`
}

// LogTailResponse carries log lines and the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
