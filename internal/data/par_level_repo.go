// internal/data/par_level_repo.go
package data

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// PAR LEVEL REPOSITORY
// =============================================================================

const parLevelSelect = `
	SELECT p.id, p.menu_item_id, p.day_of_week, p.par_quantity, p.created_at, p.updated_at,
		m.id, m.name, m.unit
	FROM par_levels p
	JOIN menu_items m ON m.id = p.menu_item_id`

func scanParLevel(row scanner) (*ParLevel, error) {
	var (
		p                ParLevel
		ref              MenuItemRef
		created, updated textTime
	)
	if err := row.Scan(&p.ID, &p.MenuItemID, &p.DayOfWeek, &p.ParQuantity, &created, &updated,
		&ref.ID, &ref.Name, &ref.Unit); err != nil {
		return nil, err
	}
	p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
	p.MenuItem = &ref
	return &p, nil
}

func (q *Queries) listParLevels(ctx context.Context, where string, args ...any) ([]ParLevel, error) {
	rows, err := q.query(ctx, parLevelSelect+where+` ORDER BY p.day_of_week, m.name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list par levels: %w", err)
	}
	defer rows.Close()

	levels := []ParLevel{}
	for rows.Next() {
		p, err := scanParLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan par level: %w", err)
		}
		levels = append(levels, *p)
	}
	return levels, rows.Err()
}

// ListParLevels returns every par level, optionally for one menu item.
func (q *Queries) ListParLevels(ctx context.Context, menuItemID string) ([]ParLevel, error) {
	if menuItemID != "" {
		return q.listParLevels(ctx, ` WHERE p.menu_item_id = ?`, menuItemID)
	}
	return q.listParLevels(ctx, "")
}

// ParLevelsForWeekday returns every par level for a weekday, whether or not
// the menu item is active.
func (q *Queries) ParLevelsForWeekday(ctx context.Context, dayOfWeek int) ([]ParLevel, error) {
	return q.listParLevels(ctx, ` WHERE p.day_of_week = ?`, dayOfWeek)
}

// UpsertParLevel inserts or replaces the quantity for (menu_item_id, day_of_week).
func (q *Queries) UpsertParLevel(ctx context.Context, e ParLevelEntry) (*ParLevel, error) {
	now := formatTime(q.now())

	const stmt = `
		INSERT INTO par_levels (id, menu_item_id, day_of_week, par_quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (menu_item_id, day_of_week)
		DO UPDATE SET par_quantity = excluded.par_quantity, updated_at = excluded.updated_at
		RETURNING id, menu_item_id, day_of_week, par_quantity, created_at, updated_at`

	var (
		p                ParLevel
		created, updated textTime
	)
	err := q.queryRow(ctx, stmt, uuid.NewString(), e.MenuItemID, e.DayOfWeek, e.ParQuantity, now, now).
		Scan(&p.ID, &p.MenuItemID, &p.DayOfWeek, &p.ParQuantity, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert par level: %w", translateError(err))
	}
	p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
	return &p, nil
}

// UpsertParLevels upserts every entry in order. Callers wrap it in WithTx for atomicity.
func (q *Queries) UpsertParLevels(ctx context.Context, entries []ParLevelEntry) ([]ParLevel, error) {
	out := make([]ParLevel, 0, len(entries))
	for i, e := range entries {
		p, err := q.UpsertParLevel(ctx, e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, *p)
	}
	return out, nil
}
