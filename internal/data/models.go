// internal/data/models.go
package data

import "time"

// =============================================================================
// ENTITIES
// =============================================================================

type Station struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Color        string    `json:"color"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Recipe struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Method      *string   `json:"method"`
	YieldAmount *string   `json:"yield_amount"`
	YieldUnit   *string   `json:"yield_unit"`
	ShelfLife   *string   `json:"shelf_life"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecipeRef is the id/name pair joined onto menu items.
type RecipeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MenuItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StationID *string   `json:"station_id"`
	RecipeID  *string   `json:"recipe_id"`
	Unit      string    `json:"unit"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Joined
	Station *Station   `json:"station,omitempty"`
	Recipe  *RecipeRef `json:"recipe,omitempty"`
}

// MenuItemRef is the short menu item projection joined onto par levels and sales.
type MenuItemRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Unit string `json:"unit,omitempty"`
}

type ParLevel struct {
	ID          string    `json:"id"`
	MenuItemID  string    `json:"menu_item_id"`
	DayOfWeek   int       `json:"day_of_week"` // 0=Sunday, 6=Saturday
	ParQuantity float64   `json:"par_quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	MenuItem *MenuItemRef `json:"menu_item,omitempty"`
}

type SalesRecord struct {
	ID           string    `json:"id"`
	MenuItemID   string    `json:"menu_item_id"`
	SaleDate     string    `json:"sale_date"`
	QuantitySold int       `json:"quantity_sold"`
	CreatedAt    time.Time `json:"created_at"`

	MenuItem *MenuItemRef `json:"menu_item,omitempty"`
}

type PrepList struct {
	ID        string    `json:"id"`
	PrepDate  string    `json:"prep_date"`
	Notes     *string   `json:"notes"`
	CreatedBy *string   `json:"created_by"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`

	Tasks []PrepTask `json:"prep_tasks,omitempty"`
}

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
	StatusSkipped    TaskStatus = "skipped"
)

// TaskStatuses lists every valid status in lifecycle order.
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusDone, StatusSkipped}

// Terminal reports whether the status ends the task's lifecycle.
func (s TaskStatus) Terminal() bool {
	return s == StatusDone || s == StatusSkipped
}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type PrepTask struct {
	ID             string     `json:"id"`
	PrepListID     string     `json:"prep_list_id"`
	MenuItemID     string     `json:"menu_item_id"`
	QuantityNeeded float64    `json:"quantity_needed"`
	QuantityDone   float64    `json:"quantity_done"`
	Status         TaskStatus `json:"status"`
	AssignedTo     *string    `json:"assigned_to"`
	Notes          *string    `json:"notes"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	MenuItem *MenuItem `json:"menu_item,omitempty"`

	// PrepDate is the owning list's date, used as the real-time topic.
	PrepDate string `json:"-"`
}

type Profile struct {
	ID        string    `json:"id"`
	FullName  *string   `json:"full_name"`
	Role      string    `json:"role"`
	StationID *string   `json:"station_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// INPUTS AND PATCHES
// =============================================================================

// Nullable is a patch field that may be absent (Set false), explicitly null
// (Set true, Value nil) or set to a value.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func Null[T any]() Nullable[T] { return Nullable[T]{Set: true} }

func Some[T any](v T) Nullable[T] { return Nullable[T]{Set: true, Value: &v} }

type NewStation struct {
	Name         string
	Color        string
	DisplayOrder int
	IsActive     bool
}

type StationPatch struct {
	Name         *string
	Color        *string
	DisplayOrder *int
	IsActive     *bool
}

type NewRecipe struct {
	Name        string
	Description *string
	Method      *string
	YieldAmount *string
	YieldUnit   *string
	ShelfLife   *string
	IsActive    bool
}

type NewMenuItem struct {
	Name      string
	StationID *string
	RecipeID  *string
	Unit      string
	IsActive  bool
}

type MenuItemPatch struct {
	Name      *string
	StationID Nullable[string]
	RecipeID  Nullable[string]
	Unit      *string
	IsActive  *bool
}

type MenuItemFilter struct {
	StationID  string
	ActiveOnly bool
}

type ParLevelEntry struct {
	MenuItemID  string
	DayOfWeek   int
	ParQuantity float64
}

type NewSalesRecord struct {
	MenuItemID   string
	SaleDate     string
	QuantitySold int
}

type SalesFilter struct {
	MenuItemID string
	From       string
	To         string
}

type PrepListPatch struct {
	Notes    Nullable[string]
	IsLocked *bool
}

type NewPrepTask struct {
	PrepListID     string
	MenuItemID     string
	QuantityNeeded float64
}

type TaskPatch struct {
	Status       *TaskStatus
	QuantityDone *float64
	Notes        Nullable[string]
	AssignedTo   Nullable[string]
	StartedAt    Nullable[time.Time]
	CompletedAt  Nullable[time.Time]
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Status == nil && p.QuantityDone == nil && !p.Notes.Set &&
		!p.AssignedTo.Set && !p.StartedAt.Set && !p.CompletedAt.Set
}

// ApplyTo returns a copy of task with the patch applied.
func (p TaskPatch) ApplyTo(task PrepTask) PrepTask {
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.QuantityDone != nil {
		task.QuantityDone = *p.QuantityDone
	}
	if p.Notes.Set {
		task.Notes = p.Notes.Value
	}
	if p.AssignedTo.Set {
		task.AssignedTo = p.AssignedTo.Value
	}
	if p.StartedAt.Set {
		task.StartedAt = p.StartedAt.Value
	}
	if p.CompletedAt.Set {
		task.CompletedAt = p.CompletedAt.Value
	}
	return task
}

type NewProfile struct {
	FullName  *string
	Role      string
	StationID *string
}

// Profile roles.
const (
	RoleAdmin = "admin"
	RoleChef  = "chef"
	RoleCook  = "cook"
)
