// test_data.go - seeded stations, menu items, pars and sales
package testing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"kitchenops/internal/data"
)

// TestKitchen is a seeded set of stations and menu items with par levels.
type TestKitchen struct {
	Grill  *data.Station
	Pastry *data.Station
	Items  []*data.MenuItem
}

// Weekday dates used across tests.
const (
	Wednesday = "2026-02-11"
	Thursday  = "2026-02-12"
)

// GenerateTestKitchen creates two stations and three menu items. Every item has
// a Wednesday par; only the first has a Thursday par.
func (ts *TestSuite) GenerateTestKitchen(t *testing.T) TestKitchen {
	t.Helper()
	ctx := context.Background()

	grill, err := ts.Store.InsertStation(ctx, data.NewStation{Name: "Grill", Color: "#ef4444", DisplayOrder: 1, IsActive: true})
	ts.AssertNoError(t, err)
	pastry, err := ts.Store.InsertStation(ctx, data.NewStation{Name: "Pastry", Color: "#22c55e", DisplayOrder: 2, IsActive: true})
	ts.AssertNoError(t, err)

	kitchen := TestKitchen{Grill: grill, Pastry: pastry}
	seeds := []struct {
		name    string
		station *data.Station
		par     float64
	}{
		{"Burger Patties", grill, 4},
		{"Chicken Thighs", grill, 2},
		{"Croissant Dough", pastry, 3},
	}
	for i, seed := range seeds {
		item, err := ts.Store.InsertMenuItem(ctx, data.NewMenuItem{
			Name:      seed.name,
			StationID: &seed.station.ID,
			Unit:      "portions",
			IsActive:  true,
		})
		ts.AssertNoError(t, err)

		_, err = ts.Store.UpsertParLevel(ctx, data.ParLevelEntry{MenuItemID: item.ID, DayOfWeek: int(time.Wednesday), ParQuantity: seed.par})
		ts.AssertNoError(t, err)
		if i == 0 {
			_, err = ts.Store.UpsertParLevel(ctx, data.ParLevelEntry{MenuItemID: item.ID, DayOfWeek: int(time.Thursday), ParQuantity: 6})
			ts.AssertNoError(t, err)
		}
		kitchen.Items = append(kitchen.Items, item)
	}
	return kitchen
}

// GenerateSales records one sale per day for item, ending on lastDay.
func (ts *TestSuite) GenerateSales(t *testing.T, itemID, lastDay string, days int) {
	t.Helper()
	end, err := time.Parse(time.DateOnly, lastDay)
	ts.AssertNoError(t, err)

	for i := 0; i < days; i++ {
		day := end.AddDate(0, 0, -i).Format(time.DateOnly)
		_, err := ts.Store.InsertSalesRecord(context.Background(), data.NewSalesRecord{
			MenuItemID:   itemID,
			SaleDate:     day,
			QuantitySold: 10 + i,
		})
		if err != nil {
			t.Fatalf("Failed to insert sale for %s: %v", day, err)
		}
	}
}

// ProfileName is a readable label for log output.
func ProfileName(p *data.Profile) string {
	if p.FullName != nil {
		return fmt.Sprintf("%s (%s)", *p.FullName, p.Role)
	}
	return p.Role
}
