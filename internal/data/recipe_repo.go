// internal/data/recipe_repo.go
package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// RECIPE REPOSITORY
// =============================================================================

func (q *Queries) ListRecipes(ctx context.Context) ([]Recipe, error) {
	const stmt = `
		SELECT id, name, description, method, yield_amount, yield_unit, shelf_life, is_active, created_at, updated_at
		FROM recipes ORDER BY name`

	rows, err := q.query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []Recipe{}
	for rows.Next() {
		var (
			r                                          Recipe
			desc, method, yieldAmount, yieldUnit, life sql.NullString
			created, updated                           textTime
		)
		if err := rows.Scan(&r.ID, &r.Name, &desc, &method, &yieldAmount, &yieldUnit, &life, &r.IsActive, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		r.Description = nullableString(desc)
		r.Method = nullableString(method)
		r.YieldAmount = nullableString(yieldAmount)
		r.YieldUnit = nullableString(yieldUnit)
		r.ShelfLife = nullableString(life)
		r.CreatedAt, r.UpdatedAt = created.Time, updated.Time
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

func (q *Queries) InsertRecipe(ctx context.Context, in NewRecipe) (*Recipe, error) {
	now := q.now()
	r := Recipe{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Method:      in.Method,
		YieldAmount: in.YieldAmount,
		YieldUnit:   in.YieldUnit,
		ShelfLife:   in.ShelfLife,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	const stmt = `
		INSERT INTO recipes (id, name, description, method, yield_amount, yield_unit, shelf_life, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.exec(ctx, stmt,
		r.ID, r.Name, stringArg(r.Description), stringArg(r.Method), stringArg(r.YieldAmount),
		stringArg(r.YieldUnit), stringArg(r.ShelfLife), r.IsActive, formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert recipe: %w", err)
	}
	return &r, nil
}
