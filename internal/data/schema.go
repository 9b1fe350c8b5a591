// internal/data/schema.go
package data

import (
	"context"
	"fmt"

	"kitchenops/internal/logger"
)

// =============================================================================
// SCHEMA DEFINITIONS
// =============================================================================

// Column types are portable between SQLite and PostgreSQL. Timestamps are
// RFC 3339 TEXT, calendar dates are YYYY-MM-DD TEXT.

const profilesTableSchema = `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		full_name TEXT,
		role TEXT NOT NULL DEFAULT 'cook' CHECK (role IN ('admin', 'chef', 'cook')),
		station_id TEXT REFERENCES stations(id) ON DELETE SET NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`

const stationsTableSchema = `
	CREATE TABLE IF NOT EXISTS stations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '#6B7280',
		display_order INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	)`

const recipesTableSchema = `
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		method TEXT,
		yield_amount TEXT,
		yield_unit TEXT,
		shelf_life TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`

const menuItemsTableSchema = `
	CREATE TABLE IF NOT EXISTS menu_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		station_id TEXT REFERENCES stations(id) ON DELETE SET NULL,
		recipe_id TEXT REFERENCES recipes(id) ON DELETE SET NULL,
		unit TEXT NOT NULL DEFAULT 'portions',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`

const parLevelsTableSchema = `
	CREATE TABLE IF NOT EXISTS par_levels (
		id TEXT PRIMARY KEY,
		menu_item_id TEXT NOT NULL REFERENCES menu_items(id) ON DELETE CASCADE,
		day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
		par_quantity DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (par_quantity >= 0),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (menu_item_id, day_of_week)
	)`

const salesRecordsTableSchema = `
	CREATE TABLE IF NOT EXISTS sales_records (
		id TEXT PRIMARY KEY,
		menu_item_id TEXT NOT NULL REFERENCES menu_items(id) ON DELETE CASCADE,
		sale_date TEXT NOT NULL,
		quantity_sold INTEGER NOT NULL DEFAULT 0 CHECK (quantity_sold >= 0),
		created_at TEXT NOT NULL
	)`

const prepListsTableSchema = `
	CREATE TABLE IF NOT EXISTS prep_lists (
		id TEXT PRIMARY KEY,
		prep_date TEXT NOT NULL UNIQUE,
		notes TEXT,
		created_by TEXT REFERENCES profiles(id) ON DELETE SET NULL,
		is_locked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	)`

const prepTasksTableSchema = `
	CREATE TABLE IF NOT EXISTS prep_tasks (
		id TEXT PRIMARY KEY,
		prep_list_id TEXT NOT NULL REFERENCES prep_lists(id) ON DELETE CASCADE,
		menu_item_id TEXT NOT NULL REFERENCES menu_items(id),
		quantity_needed DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (quantity_needed >= 0),
		quantity_done DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (quantity_done >= 0),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'in_progress', 'done', 'skipped')),
		assigned_to TEXT REFERENCES profiles(id) ON DELETE SET NULL,
		notes TEXT,
		started_at TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`

var indexSchemas = []string{
	`CREATE INDEX IF NOT EXISTS idx_menu_items_station ON menu_items(station_id)`,
	`CREATE INDEX IF NOT EXISTS idx_par_levels_day ON par_levels(day_of_week)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_records_item_date ON sales_records(menu_item_id, sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_records_date ON sales_records(sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_prep_tasks_list ON prep_tasks(prep_list_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prep_tasks_status ON prep_tasks(status)`,
}

// =============================================================================
// TABLE CREATION
// =============================================================================

// Migrate creates every table and index. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	tables := []struct {
		name   string
		schema string
	}{
		{"stations", stationsTableSchema},
		{"profiles", profilesTableSchema},
		{"recipes", recipesTableSchema},
		{"menu_items", menuItemsTableSchema},
		{"par_levels", parLevelsTableSchema},
		{"sales_records", salesRecordsTableSchema},
		{"prep_lists", prepListsTableSchema},
		{"prep_tasks", prepTasksTableSchema},
	}

	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, table.schema); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}
	for _, stmt := range indexSchemas {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	logger.LogInfo("Database schema ready (%d tables)", len(tables))
	return nil
}
