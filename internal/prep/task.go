// internal/prep/task.go
package prep

import (
	"fmt"
	"math"
	"time"

	"kitchenops/internal/data"
)

// Action is a kitchen-floor transition on a single task.
type Action string

const (
	ActionIncrement Action = "increment"
	ActionComplete  Action = "complete"
	ActionSkip      Action = "skip"
	ActionReset     Action = "reset"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionIncrement, ActionComplete, ActionSkip, ActionReset:
		return a, nil
	}
	return "", fmt.Errorf("unknown task action %q", s)
}

// TransitionError rejects an action or patch that would leave the task in an
// illegal state.
type TransitionError struct {
	From   data.TaskStatus
	To     data.TaskStatus
	Reason string
}

func (e *TransitionError) Error() string {
	if e.To == "" || e.To == e.From {
		return fmt.Sprintf("invalid task update from %s: %s", e.From, e.Reason)
	}
	return fmt.Sprintf("invalid task transition %s -> %s: %s", e.From, e.To, e.Reason)
}

// Apply computes the patch for action on task. It does not touch storage.
func Apply(task data.PrepTask, action Action, now time.Time) (data.TaskPatch, error) {
	var patch data.TaskPatch
	now = now.UTC()

	switch action {
	case ActionIncrement:
		if task.Status.Terminal() {
			return patch, &TransitionError{From: task.Status, Reason: "task is already " + string(task.Status)}
		}
		done := math.Min(task.QuantityDone+1, task.QuantityNeeded)
		patch.QuantityDone = &done
		switch {
		case done >= task.QuantityNeeded:
			patch.Status = statusPtr(data.StatusDone)
			patch.CompletedAt = data.Some(now)
		case task.QuantityDone == 0:
			patch.Status = statusPtr(data.StatusInProgress)
			patch.StartedAt = data.Some(now)
		}

	case ActionComplete:
		if task.Status.Terminal() {
			return patch, &TransitionError{From: task.Status, To: data.StatusDone, Reason: "task is already " + string(task.Status)}
		}
		done := task.QuantityNeeded
		patch.QuantityDone = &done
		patch.Status = statusPtr(data.StatusDone)
		patch.CompletedAt = data.Some(now)

	case ActionSkip:
		if task.Status.Terminal() {
			return patch, &TransitionError{From: task.Status, To: data.StatusSkipped, Reason: "task is already " + string(task.Status)}
		}
		patch.Status = statusPtr(data.StatusSkipped)

	case ActionReset:
		if !task.Status.Terminal() {
			return patch, &TransitionError{From: task.Status, To: data.StatusPending, Reason: "only done or skipped tasks can be reset"}
		}
		zero := 0.0
		patch.Status = statusPtr(data.StatusPending)
		patch.QuantityDone = &zero
		patch.StartedAt = data.Null[time.Time]()
		patch.CompletedAt = data.Null[time.Time]()

	default:
		return patch, fmt.Errorf("unknown task action %q", action)
	}

	return patch, nil
}

// CheckPatch rejects a direct update whose status change is not allowed or
// whose result is inconsistent.
func CheckPatch(task data.PrepTask, patch data.TaskPatch) error {
	if patch.Status != nil && *patch.Status != task.Status {
		// done and skipped only move back to pending.
		if task.Status.Terminal() && *patch.Status != data.StatusPending {
			return &TransitionError{From: task.Status, To: *patch.Status, Reason: "reset the task before changing its status"}
		}
	}

	next := patch.ApplyTo(task)
	fail := func(reason string) error {
		return &TransitionError{From: task.Status, To: next.Status, Reason: reason}
	}

	if next.QuantityDone > next.QuantityNeeded {
		return fail("quantity_done cannot exceed quantity_needed")
	}
	switch next.Status {
	case data.StatusDone:
		if next.QuantityDone != next.QuantityNeeded {
			return fail("a done task must have quantity_done equal to quantity_needed")
		}
	case data.StatusInProgress:
		if next.QuantityDone >= next.QuantityNeeded {
			return fail("an in-progress task must have quantity_done below quantity_needed")
		}
	case data.StatusPending:
		if next.QuantityDone != 0 {
			return fail("a pending task must have quantity_done of 0")
		}
	}
	if next.CompletedAt != nil && next.Status != data.StatusDone {
		return fail("completed_at may only be set on a done task")
	}
	if next.Status == data.StatusDone && next.CompletedAt == nil {
		return fail("a done task must have completed_at")
	}
	if next.Status == data.StatusPending && next.StartedAt != nil {
		return fail("a pending task must not have started_at")
	}
	return nil
}

func statusPtr(s data.TaskStatus) *data.TaskStatus { return &s }
