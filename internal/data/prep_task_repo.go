// internal/data/prep_task_repo.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// PREP TASK REPOSITORY
// =============================================================================

// prepTaskSelect joins each task to its menu item, the item's station and the
// owning list's date.
const prepTaskSelect = `
	SELECT t.id, t.prep_list_id, t.menu_item_id, t.quantity_needed, t.quantity_done, t.status,
		t.assigned_to, t.notes, t.started_at, t.completed_at, t.created_at, t.updated_at,
		m.id, m.name, m.station_id, m.recipe_id, m.unit, m.is_active, m.created_at, m.updated_at,
		s.id, s.name, s.color, s.display_order, s.is_active, s.created_at,
		l.prep_date
	FROM prep_tasks t
	JOIN prep_lists l ON l.id = t.prep_list_id
	JOIN menu_items m ON m.id = t.menu_item_id
	LEFT JOIN stations s ON s.id = m.station_id`

const prepTaskOrder = ` ORDER BY COALESCE(s.display_order, 2147483647), s.name, m.name, t.id`

func scanPrepTask(row scanner) (*PrepTask, error) {
	var (
		t                  PrepTask
		assignedTo, notes  sql.NullString
		started, completed textTime
		created, updated   textTime
		item               menuItemColumns
		st                 joinedStation
	)
	dest := []any{
		&t.ID, &t.PrepListID, &t.MenuItemID, &t.QuantityNeeded, &t.QuantityDone, &t.Status,
		&assignedTo, &notes, &started, &completed, &created, &updated,
	}
	dest = append(dest, item.dest()...)
	dest = append(dest, st.dest()...)
	dest = append(dest, &t.PrepDate)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	t.AssignedTo = nullableString(assignedTo)
	t.Notes = nullableString(notes)
	t.StartedAt = started.ptr()
	t.CompletedAt = completed.ptr()
	t.CreatedAt, t.UpdatedAt = created.Time, updated.Time
	t.MenuItem = item.menuItem()
	t.MenuItem.Station = st.station()
	return &t, nil
}

// tasksForList loads a list's tasks ordered by station then menu item.
func (q *Queries) tasksForList(ctx context.Context, listID string) ([]PrepTask, error) {
	rows, err := q.query(ctx, prepTaskSelect+` WHERE t.prep_list_id = ?`+prepTaskOrder, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prep tasks: %w", err)
	}
	defer rows.Close()

	tasks := []PrepTask{}
	for rows.Next() {
		t, err := scanPrepTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prep task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (q *Queries) GetPrepTask(ctx context.Context, id string) (*PrepTask, error) {
	t, err := scanPrepTask(q.queryRow(ctx, prepTaskSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Prep task")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prep task: %w", err)
	}
	return t, nil
}

// InsertPrepTasks inserts pending tasks with quantity_done 0 and returns how many were written.
func (q *Queries) InsertPrepTasks(ctx context.Context, tasks []NewPrepTask) (int, error) {
	const stmt = `
		INSERT INTO prep_tasks (id, prep_list_id, menu_item_id, quantity_needed, quantity_done, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)`

	now := formatTime(q.now())
	for i, t := range tasks {
		if _, err := q.exec(ctx, stmt, uuid.NewString(), t.PrepListID, t.MenuItemID, t.QuantityNeeded,
			string(StatusPending), now, now); err != nil {
			return i, fmt.Errorf("failed to insert prep task %d: %w", i, err)
		}
	}
	return len(tasks), nil
}

func (q *Queries) DeletePrepTasksForList(ctx context.Context, listID string) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM prep_tasks WHERE prep_list_id = ?`, listID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete prep tasks: %w", err)
	}
	return res.RowsAffected()
}

// UpdatePrepTask applies the set fields of patch, bumps updated_at and returns
// the joined row.
func (q *Queries) UpdatePrepTask(ctx context.Context, id string, patch TaskPatch) (*PrepTask, error) {
	if patch.IsEmpty() {
		return q.GetPrepTask(ctx, id)
	}

	var set assignments
	if patch.Status != nil {
		set.add("status", string(*patch.Status))
	}
	if patch.QuantityDone != nil {
		set.add("quantity_done", *patch.QuantityDone)
	}
	if patch.Notes.Set {
		set.add("notes", stringArg(patch.Notes.Value))
	}
	if patch.AssignedTo.Set {
		set.add("assigned_to", stringArg(patch.AssignedTo.Value))
	}
	if patch.StartedAt.Set {
		set.add("started_at", formatNullableTime(patch.StartedAt.Value))
	}
	if patch.CompletedAt.Set {
		set.add("completed_at", formatNullableTime(patch.CompletedAt.Value))
	}
	set.add("updated_at", formatTime(q.now()))

	res, err := q.exec(ctx, `UPDATE prep_tasks SET `+set.clause()+` WHERE id = ?`, append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update prep task: %w", err)
	}
	if err := affectedOrNotFound(res, "Prep task"); err != nil {
		return nil, err
	}
	return q.GetPrepTask(ctx, id)
}
