// Package policy decides which user may do what with a task.
package policy

import "github.com/BuzzLyutic/team-tasks/internal/model"

type Action string

const (
	ActionRead     Action = "read"
	ActionUpdate   Action = "update"
	ActionComplete Action = "complete"
	ActionReassign Action = "reassign"
	ActionDelete   Action = "delete"
)

// CanPerform reports whether userID may perform action on t.
// The creator (AssignedBy) never changes, so reassign and delete stay with
// them after the task moves to someone else.
func CanPerform(action Action, t model.Task, userID string) bool {
	if userID == "" {
		return false
	}
	related := userID == t.AssignedTo || userID == t.AssignedBy

	switch action {
	case ActionRead:
		return related
	case ActionUpdate:
		return !t.Completed() && related
	case ActionComplete:
		return userID == t.AssignedTo
	case ActionReassign, ActionDelete:
		return userID == t.AssignedBy
	default:
		return false
	}
}

// CanCreateInTeam reports whether a member with role may create team tasks.
func CanCreateInTeam(role model.Role) bool {
	return role == model.RoleOwner || role == model.RoleAdmin
}
