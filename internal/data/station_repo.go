// internal/data/station_repo.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// STATION REPOSITORY
// =============================================================================

const stationColumns = `id, name, color, display_order, is_active, created_at`

func scanStation(row scanner) (*Station, error) {
	var (
		st      Station
		created textTime
	)
	if err := row.Scan(&st.ID, &st.Name, &st.Color, &st.DisplayOrder, &st.IsActive, &created); err != nil {
		return nil, err
	}
	st.CreatedAt = created.Time
	return &st, nil
}

// ListStations returns stations by display_order, then name.
func (q *Queries) ListStations(ctx context.Context, activeOnly bool) ([]Station, error) {
	stmt := `SELECT ` + stationColumns + ` FROM stations`
	if activeOnly {
		stmt += ` WHERE is_active = TRUE`
	}
	stmt += ` ORDER BY display_order, name`

	rows, err := q.query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	defer rows.Close()

	stations := []Station{}
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station: %w", err)
		}
		stations = append(stations, *st)
	}
	return stations, rows.Err()
}

func (q *Queries) GetStation(ctx context.Context, id string) (*Station, error) {
	st, err := scanStation(q.queryRow(ctx, `SELECT `+stationColumns+` FROM stations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Station")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}
	return st, nil
}

func (q *Queries) InsertStation(ctx context.Context, in NewStation) (*Station, error) {
	st := Station{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Color:        in.Color,
		DisplayOrder: in.DisplayOrder,
		IsActive:     in.IsActive,
		CreatedAt:    q.now(),
	}

	const stmt = `INSERT INTO stations (id, name, color, display_order, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := q.exec(ctx, stmt, st.ID, st.Name, st.Color, st.DisplayOrder, st.IsActive, formatTime(st.CreatedAt)); err != nil {
		return nil, fmt.Errorf("failed to insert station: %w", err)
	}
	return &st, nil
}

// UpdateStation applies the non-nil fields of patch.
func (q *Queries) UpdateStation(ctx context.Context, id string, patch StationPatch) (*Station, error) {
	var set assignments
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Color != nil {
		set.add("color", *patch.Color)
	}
	if patch.DisplayOrder != nil {
		set.add("display_order", *patch.DisplayOrder)
	}
	if patch.IsActive != nil {
		set.add("is_active", *patch.IsActive)
	}
	if set.empty() {
		return q.GetStation(ctx, id)
	}

	res, err := q.exec(ctx, `UPDATE stations SET `+set.clause()+` WHERE id = ?`, append(set.args, id)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update station: %w", err)
	}
	if err := affectedOrNotFound(res, "Station"); err != nil {
		return nil, err
	}
	return q.GetStation(ctx, id)
}

func (q *Queries) DeleteStation(ctx context.Context, id string) error {
	res, err := q.exec(ctx, `DELETE FROM stations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete station: %w", err)
	}
	return affectedOrNotFound(res, "Station")
}
