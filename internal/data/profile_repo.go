// internal/data/profile_repo.go
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// PROFILE REPOSITORY
// =============================================================================

func (q *Queries) GetProfile(ctx context.Context, id string) (*Profile, error) {
	const stmt = `SELECT id, full_name, role, station_id, created_at, updated_at FROM profiles WHERE id = ?`

	var (
		p                   Profile
		fullName, stationID sql.NullString
		created, updated    textTime
	)
	err := q.queryRow(ctx, stmt, id).Scan(&p.ID, &fullName, &p.Role, &stationID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("Profile")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p.FullName = nullableString(fullName)
	p.StationID = nullableString(stationID)
	p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
	return &p, nil
}

func (q *Queries) InsertProfile(ctx context.Context, in NewProfile) (*Profile, error) {
	now := q.now()
	p := Profile{
		ID:        uuid.NewString(),
		FullName:  in.FullName,
		Role:      in.Role,
		StationID: in.StationID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Role == "" {
		p.Role = RoleCook
	}

	const stmt = `INSERT INTO profiles (id, full_name, role, station_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := q.exec(ctx, stmt, p.ID, stringArg(p.FullName), p.Role, stringArg(p.StationID),
		formatTime(now), formatTime(now)); err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	return &p, nil
}
