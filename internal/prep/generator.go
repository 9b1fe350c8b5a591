// internal/prep/generator.go
package prep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"kitchenops/internal/data"
	"kitchenops/internal/logger"
)

// ErrListLocked is returned when regenerating a list that has been locked.
var ErrListLocked = errors.New("prep list is locked")

// NoParLevelsError reports a weekday without configured par levels.
type NoParLevelsError struct {
	Weekday time.Weekday
}

func (e *NoParLevelsError) Error() string {
	return "No par levels found for " + e.Weekday.String()
}

// TxRunner runs fn in one transaction. *data.Store implements it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q *data.Queries) error) error
}

// Publisher receives an invalidation per changed prep date. *realtime.Broker implements it.
type Publisher interface {
	Publish(topic string)
}

// Result is the outcome of a generation run.
type Result struct {
	ID        string `json:"id"`
	PrepDate  string `json:"prep_date"`
	TaskCount int    `json:"task_count"`
}

// Weekday returns the day of week of a YYYY-MM-DD date, evaluated at noon so
// no zone offset can move it to a neighbouring day.
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse("2006-01-02T15:04:05", date+"T12:00:00")
	if err != nil {
		return 0, fmt.Errorf("invalid prep date %q: %w", date, err)
	}
	return t.Weekday(), nil
}

// Generator materializes a day's prep list from the standing par levels.
type Generator struct {
	store TxRunner
	pub   Publisher
	group singleflight.Group
}

func NewGenerator(store TxRunner, pub Publisher) *Generator {
	return &Generator{store: store, pub: pub}
}

// Generate (re)creates the task set for prepDate. Concurrent calls for the same
// date share one run and its result.
func (g *Generator) Generate(ctx context.Context, prepDate string, createdBy *string) (Result, error) {
	weekday, err := Weekday(prepDate)
	if err != nil {
		return Result{}, err
	}

	v, err, shared := g.group.Do(prepDate, func() (any, error) {
		// The run outlives the first caller's cancellation since others may share it.
		return g.generate(context.WithoutCancel(ctx), prepDate, weekday, createdBy)
	})
	if err != nil {
		return Result{}, err
	}
	if shared {
		logger.LogDebug("Prep list generation for %s shared with a concurrent request", prepDate)
	}
	return v.(Result), nil
}

func (g *Generator) generate(ctx context.Context, prepDate string, weekday time.Weekday, createdBy *string) (Result, error) {
	var res Result

	err := g.store.WithTx(ctx, func(q *data.Queries) error {
		pars, err := q.ParLevelsForWeekday(ctx, int(weekday))
		if err != nil {
			return err
		}
		if len(pars) == 0 {
			return &NoParLevelsError{Weekday: weekday}
		}

		existing, err := q.FindPrepListByDate(ctx, prepDate)
		switch {
		case err == nil && existing.IsLocked:
			return ErrListLocked
		case err != nil && !errors.Is(err, data.ErrNotFound):
			return err
		}

		list, err := q.UpsertPrepList(ctx, prepDate, createdBy)
		if err != nil {
			return err
		}
		removed, err := q.DeletePrepTasksForList(ctx, list.ID)
		if err != nil {
			return err
		}

		tasks := make([]data.NewPrepTask, 0, len(pars))
		for _, p := range pars {
			tasks = append(tasks, data.NewPrepTask{
				PrepListID:     list.ID,
				MenuItemID:     p.MenuItemID,
				QuantityNeeded: p.ParQuantity,
			})
		}
		count, err := q.InsertPrepTasks(ctx, tasks)
		if err != nil {
			return err
		}

		if removed > 0 {
			logger.LogInfo("Replaced %d task(s) on prep list %s", removed, prepDate)
		}
		res = Result{ID: list.ID, PrepDate: list.PrepDate, TaskCount: count}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	logger.LogInfo("Generated prep list %s (%s) with %d task(s)", prepDate, weekday, res.TaskCount)
	if g.pub != nil {
		g.pub.Publish(prepDate)
	}
	return res, nil
}
