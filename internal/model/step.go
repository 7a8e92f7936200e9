package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type StepKind string

const (
	KindStep         StepKind = "step"
	KindChecklist    StepKind = "checklist"
	KindReassignment StepKind = "reassignment"
)

var (
	ErrUnknownStepKind = errors.New("unknown step type")
	ErrEmptyStepValue  = errors.New("step value is empty")
	ErrStepID          = errors.New("step id is missing or duplicated")
)

// Step is one entry of a task's step log. For reassignment entries Value
// holds the id of the assignee the task was taken from.
type Step struct {
	ID      string   `json:"id"`
	Kind    StepKind `json:"type"`
	Value   string   `json:"value"`
	Checked bool     `json:"checked"`
}

// NewStep returns an entry of the given kind with a fresh id.
func NewStep(kind StepKind, value string) Step {
	return Step{
		ID:    uuid.NewString(),
		Kind:  kind,
		Value: strings.TrimSpace(value),
	}
}

func ReassignmentFrom(prevAssignee string) Step {
	return NewStep(KindReassignment, prevAssignee)
}

// Normalize drops the checked flag on kinds that cannot be checked.
func (s Step) Normalize() Step {
	s.Value = strings.TrimSpace(s.Value)
	if s.Kind != KindChecklist {
		s.Checked = false
	}
	return s
}

func (s Step) Validate() error {
	switch s.Kind {
	case KindStep, KindChecklist, KindReassignment:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStepKind, s.Kind)
	}
	if strings.TrimSpace(s.Value) == "" {
		return ErrEmptyStepValue
	}
	return nil
}

// ValidateSteps checks every entry and id uniqueness within the log.
func ValidateSteps(steps []Step) error {
	seen := make(map[string]struct{}, len(steps))
	for i, s := range steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: %w", i, ErrStepID)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("steps[%d]: %w", i, ErrStepID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

func NormalizeSteps(steps []Step) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Normalize())
	}
	return out
}

// BuildLog turns the free-text steps and checklist items of a new task into
// a step log: all steps first, then all checklist items. Blank texts are skipped.
func BuildLog(steps, checklist []string) []Step {
	log := make([]Step, 0, len(steps)+len(checklist))
	for _, v := range steps {
		if strings.TrimSpace(v) != "" {
			log = append(log, NewStep(KindStep, v))
		}
	}
	for _, v := range checklist {
		if strings.TrimSpace(v) != "" {
			log = append(log, NewStep(KindChecklist, v))
		}
	}
	return log
}

// PreviousAssignees returns the values of reassignment entries in log order.
func PreviousAssignees(steps []Step) []string {
	var ids []string
	for _, s := range steps {
		if s.Kind == KindReassignment {
			ids = append(ids, s.Value)
		}
	}
	return ids
}

// MergeLog takes the step and checklist entries from edited and appends the
// reassignment entries of stored in their original order. Reassignment
// entries in edited are discarded: the history is only written by reassigning.
func MergeLog(edited, stored []Step) []Step {
	out := make([]Step, 0, len(edited)+len(stored))
	for _, s := range edited {
		if s.Kind != KindReassignment {
			out = append(out, s)
		}
	}
	for _, s := range stored {
		if s.Kind == KindReassignment {
			out = append(out, s)
		}
	}
	return out
}
