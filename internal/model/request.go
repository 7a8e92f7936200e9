package model

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	AssigneeID  string   `json:"assigneeId"`
	TeamID      *int64   `json:"teamId"`
	Steps       []string `json:"steps"`
	Checklist   []string `json:"checklist"`
	DueDate     string   `json:"dueDate"`
}

// PatchTaskRequest carries exactly one of three edits; the first non-nil
// field in declaration order wins. Version is the task version the steps
// were edited from and only applies to the steps edit.
type PatchTaskRequest struct {
	Steps      *[]Step `json:"steps"`
	Complete   *bool   `json:"complete"`
	AssigneeID *string `json:"assigneeId"`
	Version    *int    `json:"version"`
}
