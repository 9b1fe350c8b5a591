// internal/validation/schemas.go
package validation

import (
	"fmt"
	"regexp"

	"kitchenops/internal/data"
)

const (
	maxParEntries = 500
	maxNotesLen   = 1000
	maxRecipeText = 2000
	defaultUnit   = "portions"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// TaskActions are the state machine actions accepted by the actions endpoint.
var TaskActions = []string{"increment", "complete", "skip", "reset"}

func taskStatusNames() []string {
	names := make([]string, len(data.TaskStatuses))
	for i, s := range data.TaskStatuses {
		names[i] = string(s)
	}
	return names
}

// =============================================================================
// STATIONS
// =============================================================================

func (r *reader) color(required bool) *string {
	v := r.str("color", 0, 0, required, false)
	if v.Value != nil && !hexColorRe.MatchString(*v.Value) {
		r.fail("color", "Must be a hex color like #ef4444")
		return nil
	}
	return v.Value
}

// Station validates a station create payload.
func Station(raw any) (data.NewStation, error) {
	r, err := newReader(raw)
	if err != nil {
		return data.NewStation{}, err
	}

	out := data.NewStation{IsActive: true}
	if v := r.str("name", 1, 100, true, false); v.Value != nil {
		out.Name = *v.Value
	}
	if v := r.color(true); v != nil {
		out.Color = *v
	}
	if v := r.intRange("display_order", 0, -1, false); v != nil {
		out.DisplayOrder = *v
	}
	if v := r.boolean("is_active"); v != nil {
		out.IsActive = *v
	}
	return out, r.err()
}

// StationPatch validates a partial station update. Every field is optional.
func StationPatch(raw any) (data.StationPatch, error) {
	r, err := newReader(raw)
	if err != nil {
		return data.StationPatch{}, err
	}

	return data.StationPatch{
		Name:         r.str("name", 1, 100, false, false).Value,
		Color:        r.color(false),
		DisplayOrder: r.intRange("display_order", 0, -1, false),
		IsActive:     r.boolean("is_active"),
	}, r.err()
}

// =============================================================================
// RECIPES AND MENU ITEMS
// =============================================================================

func Recipe(raw any) (data.NewRecipe, error) {
	r, err := newReader(raw)
	if err != nil {
		return data.NewRecipe{}, err
	}

	out := data.NewRecipe{
		Description: r.str("description", 0, maxRecipeText, false, true).Value,
		Method:      r.str("method", 0, maxRecipeText, false, true).Value,
		YieldAmount: r.str("yield_amount", 0, maxRecipeText, false, true).Value,
		YieldUnit:   r.str("yield_unit", 0, maxRecipeText, false, true).Value,
		ShelfLife:   r.str("shelf_life", 0, maxRecipeText, false, true).Value,
		IsActive:    true,
	}
	if v := r.str("name", 1, 200, true, false); v.Value != nil {
		out.Name = *v.Value
	}
	if v := r.boolean("is_active"); v != nil {
		out.IsActive = *v
	}
	return out, r.err()
}

// MenuItem validates a menu item create payload; unit defaults to "portions".
func MenuItem(raw any) (data.NewMenuItem, error) {
	r, err := newReader(raw)
	if err != nil {
		return data.NewMenuItem{}, err
	}

	out := data.NewMenuItem{
		StationID: r.uuid("station_id", false, true).Value,
		RecipeID:  r.uuid("recipe_id", false, true).Value,
		Unit:      defaultUnit,
		IsActive:  true,
	}
	if v := r.str("name", 1, 200, true, false); v.Value != nil {
		out.Name = *v.Value
	}
	if v := r.str("unit", 1, 50, false, false); v.Value != nil {
		out.Unit = *v.Value
	}
	if v := r.boolean("is_active"); v != nil {
		out.IsActive = *v
	}
	return out, r.err()
}

// MenuItemPatch validates a partial menu item update. No defaults are applied.
func MenuItemPatch(raw any) (data.MenuItemPatch, error) {
	r, err := newReader(raw)
	if err != nil {
		return data.MenuItemPatch{}, err
	}

	return data.MenuItemPatch{
		Name:      r.str("name", 1, 200, false, false).Value,
		StationID: r.uuid("station_id", false, true),
		RecipeID:  r.uuid("recipe_id", false, true),
		Unit:      r.str("unit", 1, 50, false, false).Value,
		IsActive:  r.boolean("is_active"),
	}, r.err()
}

// =============================================================================
// PAR LEVELS AND SALES
// =============================================================================

func (r *reader) parEntry() data.ParLevelEntry {
	var e data.ParLevelEntry
	if v := r.uuid("menu_item_id", true, false); v.Value != nil {
		e.MenuItemID = *v.Value
	}
	if v := r.intRange("day_of_week", 0, 6, true); v != nil {
		e.DayOfWeek = *v
	}
	if v := r.nonNegative("par_quantity", true); v != nil {
		e.ParQuantity = *v
	}
	return e
}

// ParLevels validates a bulk upsert payload {entries: [...]} of 1 to 500 entries.
func ParLevels(raw any) ([]data.ParLevelEntry, error) {
	r, err := newReader(raw)
	if err != nil {
		return nil, err
	}

	v, ok := r.lookup("entries", true)
	if !ok {
		return nil, r.err()
	}
	items, isArr := v.([]any)
	if !isArr {
		r.fail("entries", "Expected array, received "+typeName(v))
		return nil, r.err()
	}
	if len(items) < 1 {
		r.fail("entries", "Array must contain at least 1 element(s)")
		return nil, r.err()
	}
	if len(items) > maxParEntries {
		r.fail("entries", fmt.Sprintf("Array must contain at most %d element(s)", maxParEntries))
		return nil, r.err()
	}

	entries := make([]data.ParLevelEntry, 0, len(items))
	for i, item := range items {
		prefix := fmt.Sprintf("entries[%d].", i)
		obj, isObj := item.(map[string]any)
		if !isObj {
			r.errs.add(fmt.Sprintf("entries[%d]", i), "Expected object, received "+typeName(item))
			continue
		}
		entries = append(entries, r.child(obj, prefix).parEntry())
	}
	if err := r.err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func SalesRecord(raw any) (data.NewSalesRecord, error) {
	r, err := newReader(raw)
	if err != nil {
		return data.NewSalesRecord{}, err
	}

	var out data.NewSalesRecord
	if v := r.uuid("menu_item_id", true, false); v.Value != nil {
		out.MenuItemID = *v.Value
	}
	if v := r.date("sale_date", true); v != nil {
		out.SaleDate = *v
	}
	if v := r.intRange("quantity_sold", 0, -1, true); v != nil {
		out.QuantitySold = *v
	}
	return out, r.err()
}

// =============================================================================
// PREP LISTS AND TASKS
// =============================================================================

// GeneratePrepList validates {prep_date} and returns the date.
func GeneratePrepList(raw any) (string, error) {
	r, err := newReader(raw)
	if err != nil {
		return "", err
	}
	date := r.date("prep_date", true)
	if err := r.err(); err != nil {
		return "", err
	}
	return *date, nil
}

func PrepListPatch(raw any) (data.PrepListPatch, error) {
	r, err := newReader(raw)
	if err != nil {
		return data.PrepListPatch{}, err
	}

	return data.PrepListPatch{
		Notes:    r.str("notes", 0, maxNotesLen, false, true),
		IsLocked: r.boolean("is_locked"),
	}, r.err()
}

// TaskPatch validates a partial prep task update. An empty object is valid.
func TaskPatch(raw any) (data.TaskPatch, error) {
	r, err := newReader(raw)
	if err != nil {
		return data.TaskPatch{}, err
	}

	var out data.TaskPatch
	if v := r.enum("status", taskStatusNames()); v != nil {
		status := data.TaskStatus(*v)
		out.Status = &status
	}
	if v := r.intRange("quantity_done", 0, -1, false); v != nil {
		done := float64(*v)
		out.QuantityDone = &done
	}
	out.Notes = r.str("notes", 0, maxNotesLen, false, true)
	out.AssignedTo = r.uuid("assigned_to", false, true)
	out.StartedAt = r.timestamp("started_at")
	out.CompletedAt = r.timestamp("completed_at")
	return out, r.err()
}

// TaskAction validates {action} against TaskActions.
func TaskAction(raw any) (string, error) {
	r, err := newReader(raw)
	if err != nil {
		return "", err
	}
	if _, ok := r.lookup("action", true); !ok {
		return "", r.err()
	}
	action := r.enum("action", TaskActions)
	if err := r.err(); err != nil {
		return "", err
	}
	return *action, nil
}
