package prep

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenops/internal/data"
)

var stamp = time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)

// task builds a task whose timestamps agree with its status.
func task(status data.TaskStatus, done, needed float64) data.PrepTask {
	t := data.PrepTask{ID: "t1", Status: status, QuantityDone: done, QuantityNeeded: needed}
	switch status {
	case data.StatusInProgress:
		t.StartedAt = &stamp
	case data.StatusDone:
		t.StartedAt, t.CompletedAt = &stamp, &stamp
	}
	return t
}

func isTransitionError(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

func TestIncrement(t *testing.T) {
	t.Run("single step completes", func(t *testing.T) {
		patch, err := Apply(task(data.StatusPending, 0, 1), ActionIncrement, stamp)
		require.NoError(t, err)
		next := patch.ApplyTo(task(data.StatusPending, 0, 1))
		assert.Equal(t, data.StatusDone, next.Status)
		assert.Equal(t, 1.0, next.QuantityDone)
		require.NotNil(t, next.CompletedAt)
		assert.Equal(t, stamp, *next.CompletedAt)
		assert.Nil(t, next.StartedAt)
	})

	t.Run("first step starts", func(t *testing.T) {
		patch, err := Apply(task(data.StatusPending, 0, 5), ActionIncrement, stamp)
		require.NoError(t, err)
		next := patch.ApplyTo(task(data.StatusPending, 0, 5))
		assert.Equal(t, data.StatusInProgress, next.Status)
		assert.Equal(t, 1.0, next.QuantityDone)
		require.NotNil(t, next.StartedAt)
		assert.Nil(t, next.CompletedAt)
	})

	t.Run("middle step keeps status", func(t *testing.T) {
		patch, err := Apply(task(data.StatusInProgress, 2, 5), ActionIncrement, stamp)
		require.NoError(t, err)
		assert.Nil(t, patch.Status)
		assert.False(t, patch.StartedAt.Set)
		assert.Equal(t, 3.0, *patch.QuantityDone)
	})

	t.Run("fractional need is clamped", func(t *testing.T) {
		patch, err := Apply(task(data.StatusInProgress, 2, 2.5), ActionIncrement, stamp)
		require.NoError(t, err)
		assert.Equal(t, 2.5, *patch.QuantityDone)
		assert.Equal(t, data.StatusDone, *patch.Status)
	})

	t.Run("terminal tasks reject increment", func(t *testing.T) {
		_, err := Apply(task(data.StatusDone, 3, 3), ActionIncrement, stamp)
		assert.True(t, isTransitionError(err))
		_, err = Apply(task(data.StatusSkipped, 0, 3), ActionIncrement, stamp)
		assert.True(t, isTransitionError(err))
	})
}

func TestIncrementNeverOverflows(t *testing.T) {
	// A task sitting at its target in a non-terminal status still clamps.
	patch, err := Apply(task(data.StatusInProgress, 4, 4), ActionIncrement, stamp)
	require.NoError(t, err)
	assert.Equal(t, 4.0, *patch.QuantityDone)
	assert.Equal(t, data.StatusDone, *patch.Status)
}

func TestCompleteSkipReset(t *testing.T) {
	t.Run("complete all", func(t *testing.T) {
		patch, err := Apply(task(data.StatusInProgress, 1, 6), ActionComplete, stamp)
		require.NoError(t, err)
		next := patch.ApplyTo(task(data.StatusInProgress, 1, 6))
		assert.Equal(t, data.StatusDone, next.Status)
		assert.Equal(t, 6.0, next.QuantityDone)
		assert.NotNil(t, next.CompletedAt)
	})

	t.Run("skip leaves quantities", func(t *testing.T) {
		patch, err := Apply(task(data.StatusInProgress, 2, 6), ActionSkip, stamp)
		require.NoError(t, err)
		assert.Equal(t, data.StatusSkipped, *patch.Status)
		assert.Nil(t, patch.QuantityDone)
	})

	t.Run("reset done task", func(t *testing.T) {
		done := task(data.StatusDone, 6, 6)
		done.StartedAt, done.CompletedAt = &stamp, &stamp

		patch, err := Apply(done, ActionReset, stamp)
		require.NoError(t, err)
		next := patch.ApplyTo(done)
		assert.Equal(t, data.StatusPending, next.Status)
		assert.Equal(t, 0.0, next.QuantityDone)
		assert.Nil(t, next.StartedAt)
		assert.Nil(t, next.CompletedAt)
		assert.NoError(t, CheckPatch(done, patch))
	})

	t.Run("reset requires terminal", func(t *testing.T) {
		_, err := Apply(task(data.StatusPending, 0, 6), ActionReset, stamp)
		assert.True(t, isTransitionError(err))
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := Apply(task(data.StatusPending, 0, 6), Action("explode"), stamp)
		assert.Error(t, err)
		assert.False(t, isTransitionError(err))
	})
}

func TestActionsProduceConsistentTasks(t *testing.T) {
	start := task(data.StatusPending, 0, 3)
	for _, action := range []Action{ActionIncrement, ActionIncrement, ActionIncrement} {
		patch, err := Apply(start, action, stamp)
		require.NoError(t, err)
		require.NoError(t, CheckPatch(start, patch))
		start = patch.ApplyTo(start)
	}
	assert.Equal(t, data.StatusDone, start.Status)
	assert.Equal(t, 3.0, start.QuantityDone)
}

func TestCheckPatch(t *testing.T) {
	status := func(s data.TaskStatus) *data.TaskStatus { return &s }
	qty := func(f float64) *float64 { return &f }

	tests := []struct {
		name  string
		task  data.PrepTask
		patch data.TaskPatch
		ok    bool
	}{
		{"empty patch", task(data.StatusInProgress, 1, 4), data.TaskPatch{}, true},
		{"notes only", task(data.StatusDone, 4, 4), data.TaskPatch{Notes: data.Some("checked")}, true},
		{"done with full quantity", task(data.StatusInProgress, 1, 4),
			data.TaskPatch{Status: status(data.StatusDone), QuantityDone: qty(4), CompletedAt: data.Some(stamp)}, true},
		{"done without completed_at", task(data.StatusInProgress, 1, 4),
			data.TaskPatch{Status: status(data.StatusDone), QuantityDone: qty(4)}, false},
		{"done clearing completed_at", task(data.StatusDone, 4, 4),
			data.TaskPatch{CompletedAt: data.Null[time.Time]()}, false},
		{"done with short quantity", task(data.StatusInProgress, 1, 4),
			data.TaskPatch{Status: status(data.StatusDone)}, false},
		{"quantity over need", task(data.StatusInProgress, 1, 4),
			data.TaskPatch{QuantityDone: qty(5)}, false},
		{"in progress at target", task(data.StatusPending, 0, 4),
			data.TaskPatch{Status: status(data.StatusInProgress), QuantityDone: qty(4)}, false},
		{"pending with progress", task(data.StatusInProgress, 2, 4),
			data.TaskPatch{Status: status(data.StatusPending)}, false},
		{"pending cleared", task(data.StatusInProgress, 2, 4),
			data.TaskPatch{Status: status(data.StatusPending), QuantityDone: qty(0), StartedAt: data.Null[time.Time]()}, true},
		{"pending keeping started_at", task(data.StatusInProgress, 2, 4),
			data.TaskPatch{Status: status(data.StatusPending), QuantityDone: qty(0)}, false},
		{"started_at on pending", task(data.StatusPending, 0, 4),
			data.TaskPatch{StartedAt: data.Some(stamp)}, false},
		{"reset done task by patch", task(data.StatusDone, 4, 4),
			data.TaskPatch{Status: status(data.StatusPending), QuantityDone: qty(0), StartedAt: data.Null[time.Time](), CompletedAt: data.Null[time.Time]()}, true},
		{"skip from pending", task(data.StatusPending, 0, 4),
			data.TaskPatch{Status: status(data.StatusSkipped)}, true},
		{"done to skipped", task(data.StatusDone, 4, 4),
			data.TaskPatch{Status: status(data.StatusSkipped)}, false},
		{"skipped to in progress", task(data.StatusSkipped, 0, 4),
			data.TaskPatch{Status: status(data.StatusInProgress), QuantityDone: qty(1)}, false},
		{"completed_at on pending", task(data.StatusPending, 0, 4),
			data.TaskPatch{CompletedAt: data.Some(stamp)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPatch(tt.task, tt.patch)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, isTransitionError(err), "expected TransitionError, got %v", err)
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("skip")
	require.NoError(t, err)
	assert.Equal(t, ActionSkip, a)

	_, err = ParseAction("cancel")
	assert.Error(t, err)
}
