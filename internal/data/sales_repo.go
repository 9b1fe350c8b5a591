// internal/data/sales_repo.go
package data

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// =============================================================================
// SALES RECORD REPOSITORY
// =============================================================================

func salesWhere(f SalesFilter) (string, []any) {
	where := ` WHERE 1 = 1`
	var args []any
	if f.MenuItemID != "" {
		where += ` AND s.menu_item_id = ?`
		args = append(args, f.MenuItemID)
	}
	if f.From != "" {
		where += ` AND s.sale_date >= ?`
		args = append(args, f.From)
	}
	if f.To != "" {
		where += ` AND s.sale_date <= ?`
		args = append(args, f.To)
	}
	return where, args
}

// ListSalesRecords returns one page of sales records, newest sale_date first, and the
// total number of matching rows.
func (q *Queries) ListSalesRecords(ctx context.Context, f SalesFilter, limit, offset int) ([]SalesRecord, int, error) {
	where, args := salesWhere(f)

	var total int
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM sales_records s`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales records: %w", err)
	}

	stmt := `
		SELECT s.id, s.menu_item_id, s.sale_date, s.quantity_sold, s.created_at, m.id, m.name
		FROM sales_records s
		JOIN menu_items m ON m.id = s.menu_item_id` + where + `
		ORDER BY s.sale_date DESC, s.created_at DESC, s.id
		LIMIT ? OFFSET ?`

	rows, err := q.query(ctx, stmt, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sales records: %w", err)
	}
	defer rows.Close()

	records := []SalesRecord{}
	for rows.Next() {
		var (
			r       SalesRecord
			ref     MenuItemRef
			created textTime
		)
		if err := rows.Scan(&r.ID, &r.MenuItemID, &r.SaleDate, &r.QuantitySold, &created, &ref.ID, &ref.Name); err != nil {
			return nil, 0, fmt.Errorf("failed to scan sales record: %w", err)
		}
		r.CreatedAt = created.Time
		r.MenuItem = &ref
		records = append(records, r)
	}
	return records, total, rows.Err()
}

// InsertSalesRecord inserts one record and returns it with its menu item joined.
func (q *Queries) InsertSalesRecord(ctx context.Context, in NewSalesRecord) (*SalesRecord, error) {
	r := SalesRecord{
		ID:           uuid.NewString(),
		MenuItemID:   in.MenuItemID,
		SaleDate:     in.SaleDate,
		QuantitySold: in.QuantitySold,
		CreatedAt:    q.now(),
	}

	const stmt = `INSERT INTO sales_records (id, menu_item_id, sale_date, quantity_sold, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := q.exec(ctx, stmt, r.ID, r.MenuItemID, r.SaleDate, r.QuantitySold, formatTime(r.CreatedAt)); err != nil {
		return nil, fmt.Errorf("failed to insert sales record: %w", err)
	}

	ref := MenuItemRef{ID: r.MenuItemID}
	if err := q.queryRow(ctx, `SELECT name FROM menu_items WHERE id = ?`, r.MenuItemID).Scan(&ref.Name); err != nil {
		return nil, fmt.Errorf("failed to load sales record menu item: %w", err)
	}
	r.MenuItem = &ref
	return &r, nil
}
