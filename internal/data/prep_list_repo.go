// internal/data/prep_list_repo.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// PREP LIST REPOSITORY
// =============================================================================

const prepListColumns = `id, prep_date, notes, created_by, is_locked, created_at`

func scanPrepList(row scanner) (*PrepList, error) {
	var (
		l                PrepList
		notes, createdBy sql.NullString
		created          textTime
	)
	if err := row.Scan(&l.ID, &l.PrepDate, &notes, &createdBy, &l.IsLocked, &created); err != nil {
		return nil, err
	}
	l.Notes = nullableString(notes)
	l.CreatedBy = nullableString(createdBy)
	l.CreatedAt = created.Time
	return &l, nil
}

func (q *Queries) listPrepLists(ctx context.Context, stmt string, args ...any) ([]PrepList, error) {
	rows, err := q.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list prep lists: %w", err)
	}
	defer rows.Close()

	lists := []PrepList{}
	for rows.Next() {
		l, err := scanPrepList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prep list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// ListPrepLists returns the most recent lists by prep_date, without tasks.
func (q *Queries) ListPrepLists(ctx context.Context, limit int) ([]PrepList, error) {
	return q.listPrepLists(ctx, `SELECT `+prepListColumns+` FROM prep_lists ORDER BY prep_date DESC LIMIT ?`, limit)
}

// PrepListsBefore returns up to limit lists older than date, oldest first.
func (q *Queries) PrepListsBefore(ctx context.Context, date string, limit int) ([]PrepList, error) {
	return q.listPrepLists(ctx,
		`SELECT `+prepListColumns+` FROM prep_lists WHERE prep_date < ? ORDER BY prep_date LIMIT ?`, date, limit)
}

func (q *Queries) findPrepList(ctx context.Context, where string, arg any) (*PrepList, error) {
	l, err := scanPrepList(q.queryRow(ctx, `SELECT `+prepListColumns+` FROM prep_lists WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Prep list")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prep list: %w", err)
	}
	return l, nil
}

// FindPrepListByDate returns the list for a date without its tasks.
func (q *Queries) FindPrepListByDate(ctx context.Context, date string) (*PrepList, error) {
	return q.findPrepList(ctx, `prep_date = ?`, date)
}

// GetPrepList returns a list with its tasks joined to menu item and station.
func (q *Queries) GetPrepList(ctx context.Context, id string) (*PrepList, error) {
	l, err := q.findPrepList(ctx, `id = ?`, id)
	if err != nil {
		return nil, err
	}
	if l.Tasks, err = q.tasksForList(ctx, l.ID); err != nil {
		return nil, err
	}
	return l, nil
}

// GetPrepListByDate is GetPrepList keyed by prep_date.
func (q *Queries) GetPrepListByDate(ctx context.Context, date string) (*PrepList, error) {
	l, err := q.FindPrepListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	if l.Tasks, err = q.tasksForList(ctx, l.ID); err != nil {
		return nil, err
	}
	return l, nil
}

// UpsertPrepList creates the list for date or returns the existing one. A
// non-nil createdBy replaces the stored creator.
func (q *Queries) UpsertPrepList(ctx context.Context, date string, createdBy *string) (*PrepList, error) {
	const stmt = `
		INSERT INTO prep_lists (id, prep_date, created_by, is_locked, created_at)
		VALUES (?, ?, ?, FALSE, ?)
		ON CONFLICT (prep_date)
		DO UPDATE SET created_by = COALESCE(excluded.created_by, prep_lists.created_by)
		RETURNING ` + prepListColumns

	l, err := scanPrepList(q.queryRow(ctx, stmt, uuid.NewString(), date, stringArg(createdBy), formatTime(q.now())))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert prep list: %w", translateError(err))
	}
	return l, nil
}

// UpdatePrepListByDate applies the set fields of patch to the list for date.
func (q *Queries) UpdatePrepListByDate(ctx context.Context, date string, patch PrepListPatch) (*PrepList, error) {
	var set assignments
	if patch.Notes.Set {
		set.add("notes", stringArg(patch.Notes.Value))
	}
	if patch.IsLocked != nil {
		set.add("is_locked", *patch.IsLocked)
	}
	if set.empty() {
		return q.FindPrepListByDate(ctx, date)
	}

	res, err := q.exec(ctx, `UPDATE prep_lists SET `+set.clause()+` WHERE prep_date = ?`, append(set.args, date)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update prep list: %w", err)
	}
	if err := affectedOrNotFound(res, "Prep list"); err != nil {
		return nil, err
	}
	return q.FindPrepListByDate(ctx, date)
}

// DeletePrepList removes a list's tasks and then the list, returning the
// deleted list. Run it inside WithTx.
func (q *Queries) DeletePrepList(ctx context.Context, id string) (*PrepList, error) {
	l, err := q.findPrepList(ctx, `id = ?`, id)
	if err != nil {
		return nil, err
	}
	if _, err := q.DeletePrepTasksForList(ctx, id); err != nil {
		return nil, err
	}
	res, err := q.exec(ctx, `DELETE FROM prep_lists WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to delete prep list: %w", err)
	}
	if err := affectedOrNotFound(res, "Prep list"); err != nil {
		return nil, err
	}
	return l, nil
}
