package model

import "time"

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    int        `json:"priority"`
	Steps       []Step     `json:"steps"`
	TeamID      *int64     `json:"team_id"`
	AssignedTo  string     `json:"assigned_to"`
	AssignedBy  string     `json:"assigned_by"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt *time.Time `json:"completed_at"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Completed сообщает, закрыта ли задача. Переход в completed необратим.
func (t Task) Completed() bool {
	return t.CompletedAt != nil
}

// TaskView - задача в том виде, в котором ее видит клиент API.
type TaskView struct {
	Task
	ReassignmentChain []Profile `json:"reassignmentChain"`
}

type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type TaskScope string

const (
	ScopeAny      TaskScope = ""
	ScopeAssigned TaskScope = "assigned"
	ScopeCreated  TaskScope = "created"
)

type TaskFilter struct {
	UserID    string
	Scope     TaskScope
	Completed *bool
	TeamID    *int64
}

const (
	PriorityMin     = 1
	PriorityMax     = 10
	PriorityDefault = 5
)

// DueDateLayout - единственный формат, в котором принимается срок задачи.
const DueDateLayout = "2006-01-02"
