// internal/report/progress.go
package report

import (
	"math"
	"sort"

	"kitchenops/internal/data"
)

// UnassignedStation groups tasks whose menu item has no station.
const UnassignedStation = "Unassigned"

// Counts tallies tasks by status.
type Counts struct {
	Total      int `json:"total"`
	Done       int `json:"done"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
	Skipped    int `json:"skipped"`
	Percent    int `json:"percent"`
}

func (c *Counts) add(status data.TaskStatus) {
	c.Total++
	switch status {
	case data.StatusDone:
		c.Done++
	case data.StatusInProgress:
		c.InProgress++
	case data.StatusSkipped:
		c.Skipped++
	default:
		c.Pending++
	}
}

func (c *Counts) finish() {
	if c.Total == 0 {
		c.Percent = 0
		return
	}
	c.Percent = int(math.Round(float64(c.Done) / float64(c.Total) * 100))
}

// StationProgress is one station's slice of the day.
type StationProgress struct {
	StationID *string `json:"station_id"`
	Name      string  `json:"name"`
	Color     string  `json:"color,omitempty"`
	Counts

	order int
}

// Progress summarizes a prep list for dashboards.
type Progress struct {
	PrepListID string            `json:"prep_list_id"`
	PrepDate   string            `json:"prep_date"`
	IsLocked   bool              `json:"is_locked"`
	Overall    Counts            `json:"overall"`
	Stations   []StationProgress `json:"stations"`
}

// ComputeProgress groups the list's tasks by station. Stations are ordered by
// display order then name, with the unassigned group last.
func ComputeProgress(list *data.PrepList) Progress {
	out := Progress{
		PrepListID: list.ID,
		PrepDate:   list.PrepDate,
		IsLocked:   list.IsLocked,
		Stations:   []StationProgress{},
	}

	byKey := make(map[string]*StationProgress)
	for _, task := range list.Tasks {
		out.Overall.add(task.Status)

		key, group := "", StationProgress{Name: UnassignedStation, order: math.MaxInt}
		if task.MenuItem != nil && task.MenuItem.Station != nil {
			st := task.MenuItem.Station
			id := st.ID
			key = st.ID
			group = StationProgress{StationID: &id, Name: st.Name, Color: st.Color, order: st.DisplayOrder}
		}

		sp, ok := byKey[key]
		if !ok {
			sp = &group
			byKey[key] = sp
		}
		sp.add(task.Status)
	}
	out.Overall.finish()

	for _, sp := range byKey {
		sp.finish()
		out.Stations = append(out.Stations, *sp)
	}
	sort.Slice(out.Stations, func(i, j int) bool {
		a, b := out.Stations[i], out.Stations[j]
		if a.order != b.order {
			return a.order < b.order
		}
		return a.Name < b.Name
	})
	return out
}
