// internal/data/menu_item_repo.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// MENU ITEM REPOSITORY
// =============================================================================

const menuItemSelect = `
	SELECT m.id, m.name, m.station_id, m.recipe_id, m.unit, m.is_active, m.created_at, m.updated_at,
		s.id, s.name, s.color, s.display_order, s.is_active, s.created_at,
		r.id, r.name
	FROM menu_items m
	LEFT JOIN stations s ON s.id = m.station_id
	LEFT JOIN recipes r ON r.id = m.recipe_id`

// joinedStation collects the nullable columns of a LEFT JOINed station.
type joinedStation struct {
	id, name, color sql.NullString
	order           sql.NullInt64
	active          sql.NullBool
	created         textTime
}

func (j *joinedStation) dest() []any {
	return []any{&j.id, &j.name, &j.color, &j.order, &j.active, &j.created}
}

func (j *joinedStation) station() *Station {
	if !j.id.Valid {
		return nil
	}
	return &Station{
		ID:           j.id.String,
		Name:         j.name.String,
		Color:        j.color.String,
		DisplayOrder: int(j.order.Int64),
		IsActive:     j.active.Bool,
		CreatedAt:    j.created.Time,
	}
}

// menuItemColumns scans m.* of menuItemSelect.
type menuItemColumns struct {
	item                MenuItem
	stationID, recipeID sql.NullString
	created, updated    textTime
}

func (c *menuItemColumns) dest() []any {
	return []any{&c.item.ID, &c.item.Name, &c.stationID, &c.recipeID, &c.item.Unit, &c.item.IsActive, &c.created, &c.updated}
}

func (c *menuItemColumns) menuItem() *MenuItem {
	m := c.item
	m.StationID = nullableString(c.stationID)
	m.RecipeID = nullableString(c.recipeID)
	m.CreatedAt, m.UpdatedAt = c.created.Time, c.updated.Time
	return &m
}

func scanMenuItem(row scanner) (*MenuItem, error) {
	var (
		cols               menuItemColumns
		st                 joinedStation
		recipeID, recipeNm sql.NullString
	)
	dest := append(cols.dest(), st.dest()...)
	dest = append(dest, &recipeID, &recipeNm)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	m := cols.menuItem()
	m.Station = st.station()
	if recipeID.Valid {
		m.Recipe = &RecipeRef{ID: recipeID.String, Name: recipeNm.String}
	}
	return m, nil
}

// ListMenuItems returns menu items by name with station and recipe joined.
func (q *Queries) ListMenuItems(ctx context.Context, filter MenuItemFilter) ([]MenuItem, error) {
	stmt := menuItemSelect + ` WHERE 1 = 1`
	var args []any
	if filter.ActiveOnly {
		stmt += ` AND m.is_active = TRUE`
	}
	if filter.StationID != "" {
		stmt += ` AND m.station_id = ?`
		args = append(args, filter.StationID)
	}
	stmt += ` ORDER BY m.name`

	rows, err := q.query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	defer rows.Close()

	items := []MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (q *Queries) GetMenuItem(ctx context.Context, id string) (*MenuItem, error) {
	m, err := scanMenuItem(q.queryRow(ctx, menuItemSelect+` WHERE m.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Menu item")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return m, nil
}

func (q *Queries) InsertMenuItem(ctx context.Context, in NewMenuItem) (*MenuItem, error) {
	now := q.now()
	m := MenuItem{
		ID:        uuid.NewString(),
		Name:      in.Name,
		StationID: in.StationID,
		RecipeID:  in.RecipeID,
		Unit:      in.Unit,
		IsActive:  in.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	const stmt = `
		INSERT INTO menu_items (id, name, station_id, recipe_id, unit, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.exec(ctx, stmt, m.ID, m.Name, stringArg(m.StationID), stringArg(m.RecipeID), m.Unit, m.IsActive,
		formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert menu item: %w", err)
	}
	return &m, nil
}

// UpdateMenuItem applies the set fields of patch and bumps updated_at.
func (q *Queries) UpdateMenuItem(ctx context.Context, id string, patch MenuItemPatch) (*MenuItem, error) {
	var set assignments
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.StationID.Set {
		set.add("station_id", stringArg(patch.StationID.Value))
	}
	if patch.RecipeID.Set {
		set.add("recipe_id", stringArg(patch.RecipeID.Value))
	}
	if patch.Unit != nil {
		set.add("unit", *patch.Unit)
	}
	if patch.IsActive != nil {
		set.add("is_active", *patch.IsActive)
	}
	if set.empty() {
		return q.GetMenuItem(ctx, id)
	}
	set.add("updated_at", formatTime(q.now()))

	res, err := q.exec(ctx, `UPDATE menu_items SET `+set.clause()+` WHERE id = ?`, append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	if err := affectedOrNotFound(res, "Menu item"); err != nil {
		return nil, err
	}
	return q.GetMenuItem(ctx, id)
}

func (q *Queries) DeleteMenuItem(ctx context.Context, id string) error {
	res, err := q.exec(ctx, `DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	return affectedOrNotFound(res, "Menu item")
}
