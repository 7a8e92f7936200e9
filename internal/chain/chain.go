// Package chain derives the history of assignees of a task from its step log.
package chain

import (
	"context"

	"github.com/BuzzLyutic/team-tasks/internal/model"
)

// ProfileLookup resolves user ids to display profiles. Unknown ids are
// simply absent from the result.
type ProfileLookup interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.Profile, error)
}

// IDs returns every user that held the task, oldest first, ending with the
// current assignee. A user that held it more than once keeps only the first
// position.
func IDs(steps []model.Step, assignedTo string) []string {
	ids := append(model.PreviousAssignees(steps), assignedTo)
	return dedup(ids)
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Resolve maps ids to profiles preserving order and dropping unresolved ids.
func Resolve(ids []string, profiles map[string]model.Profile) []model.Profile {
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Attach builds the reassignment chain of every task with one profile lookup.
func Attach(ctx context.Context, lookup ProfileLookup, tasks ...model.Task) ([]model.TaskView, error) {
	perTask := make([][]string, len(tasks))
	var all []string
	for i, t := range tasks {
		perTask[i] = IDs(t.Steps, t.AssignedTo)
		all = append(all, perTask[i]...)
	}

	profiles := make(map[string]model.Profile)
	if all = dedup(all); len(all) > 0 {
		found, err := lookup.GetByIDs(ctx, all)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			profiles[p.ID] = p
		}
	}

	views := make([]model.TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = model.TaskView{Task: t, ReassignmentChain: Resolve(perTask[i], profiles)}
	}
	return views, nil
}

// Build is Attach for a single task.
func Build(ctx context.Context, lookup ProfileLookup, t model.Task) (model.TaskView, error) {
	views, err := Attach(ctx, lookup, t)
	if err != nil {
		return model.TaskView{}, err
	}
	return views[0], nil
}
