// database_test.go - concurrency and consistency against the real SQLite store
package testing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"kitchenops/internal/data"
)

func TestDatabaseOperations(t *testing.T) {
	suite := NewTestSuite(t)
	suite.GenerateTestKitchen(t)

	t.Run("ConcurrentGeneration", func(t *testing.T) {
		testConcurrentGeneration(t, suite)
	})

	t.Run("ConcurrentIncrements", func(t *testing.T) {
		testConcurrentIncrements(t, suite)
	})

	t.Run("CascadeOnMenuItemDelete", func(t *testing.T) {
		testCascadeOnMenuItemDelete(t, suite)
	})
}

func testConcurrentGeneration(t *testing.T, suite *TestSuite) {
	const numGoroutines = 8
	chef := suite.Tokens[data.RoleChef]

	var wg sync.WaitGroup
	ids := make(chan string, numGoroutines)
	errs := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := suite.MakeAPIRequest(http.MethodPost, "/api/prep-lists", map[string]any{"prep_date": Wednesday}, chef)
			if err != nil {
				errs <- err
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				errs <- fmt.Errorf("unexpected status %d", resp.StatusCode)
				return
			}
			list, err := suite.Store.FindPrepListByDate(context.Background(), Wednesday)
			if err != nil {
				errs <- err
				return
			}
			ids <- list.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent generation failed: %v", err)
	}

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Errorf("Expected a single prep list, saw ids %v", seen)
	}

	list, err := suite.Store.GetPrepListByDate(context.Background(), Wednesday)
	suite.AssertNoError(t, err)
	if len(list.Tasks) != 3 {
		t.Errorf("Expected 3 tasks after concurrent generation, got %d", len(list.Tasks))
	}
	t.Log("✓ Concurrent generation produced one list with one task set")
}

func testConcurrentIncrements(t *testing.T, suite *TestSuite) {
	list, err := suite.Store.GetPrepListByDate(context.Background(), Wednesday)
	suite.AssertNoError(t, err)

	// Burger Patties needs 4.
	var target data.PrepTask
	for _, task := range list.Tasks {
		if task.QuantityNeeded == 4 {
			target = task
		}
	}
	if target.ID == "" {
		t.Fatal("Expected a task needing 4 portions")
	}

	const numGoroutines = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = make(map[int]int)
	)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := suite.MakeAPIRequest(http.MethodPost, "/api/prep-tasks/"+target.ID+"/actions", map[string]any{"action": "increment"}, "")
			if err != nil {
				t.Errorf("Request failed: %v", err)
				return
			}
			resp.Body.Close()
			mu.Lock()
			statuses[resp.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if statuses[http.StatusOK] != 4 || statuses[http.StatusBadRequest] != numGoroutines-4 {
		t.Errorf("Expected 4 successes and %d rejections, got %v", numGoroutines-4, statuses)
	}

	got, err := suite.Store.GetPrepTask(context.Background(), target.ID)
	suite.AssertNoError(t, err)
	if got.Status != data.StatusDone || got.QuantityDone != 4 || got.CompletedAt == nil {
		t.Errorf("Task not consistently done: status=%s done=%v completed=%v", got.Status, got.QuantityDone, got.CompletedAt)
	}
	if got.StartedAt == nil {
		t.Error("started_at should be set by the first increment")
	}
	t.Logf("✓ %d concurrent increments serialized to quantity %v", numGoroutines, got.QuantityDone)
}

func testCascadeOnMenuItemDelete(t *testing.T, suite *TestSuite) {
	ctx := context.Background()
	admin := suite.Tokens[data.RoleAdmin]

	item, err := suite.Store.InsertMenuItem(ctx, data.NewMenuItem{Name: "Soup Stock", Unit: "liters", IsActive: true})
	suite.AssertNoError(t, err)
	_, err = suite.Store.UpsertParLevel(ctx, data.ParLevelEntry{MenuItemID: item.ID, DayOfWeek: int(time.Monday), ParQuantity: 8})
	suite.AssertNoError(t, err)
	suite.GenerateSales(t, item.ID, "2026-02-09", 3)

	suite.Do(t, http.MethodDelete, "/api/menu-items/"+item.ID, nil, admin, http.StatusNoContent, nil)

	pars, err := suite.Store.ListParLevels(ctx, item.ID)
	suite.AssertNoError(t, err)
	if len(pars) != 0 {
		t.Errorf("Par levels should cascade with the menu item, found %d", len(pars))
	}

	_, total, err := suite.Store.ListSalesRecords(ctx, data.SalesFilter{MenuItemID: item.ID}, 10, 0)
	suite.AssertNoError(t, err)
	if total != 0 {
		t.Errorf("Sales records should cascade with the menu item, found %d", total)
	}

	_, err = suite.Store.GetMenuItem(ctx, item.ID)
	if !errors.Is(err, data.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	t.Log("✓ Deleting a menu item removes its pars and sales")
}

func TestDatabaseEdgeCases(t *testing.T) {
	suite := NewTestSuite(t)
	ctx := context.Background()

	t.Run("MenuItemWithTasksCannotBeDeleted", func(t *testing.T) {
		kitchen := suite.GenerateTestKitchen(t)
		suite.Do(t, http.MethodPost, "/api/prep-lists", map[string]any{"prep_date": Thursday}, suite.Tokens[data.RoleChef], http.StatusCreated, nil)

		env := suite.Do(t, http.MethodDelete, "/api/menu-items/"+kitchen.Items[0].ID, nil, suite.Tokens[data.RoleAdmin], http.StatusBadRequest, nil)
		if env.Error == nil || env.Error.Message != "Referenced record not found" {
			t.Errorf("Unexpected error: %+v", env.Error)
		}
		t.Log("✓ Tasks keep their menu item alive")
	})

	t.Run("StationDeleteClearsMenuItems", func(t *testing.T) {
		station, err := suite.Store.InsertStation(ctx, data.NewStation{Name: "Raw Bar", Color: "#0ea5e9", IsActive: true})
		suite.AssertNoError(t, err)
		item, err := suite.Store.InsertMenuItem(ctx, data.NewMenuItem{Name: "Oysters", StationID: &station.ID, Unit: "dozen", IsActive: true})
		suite.AssertNoError(t, err)

		suite.AssertNoError(t, suite.Store.DeleteStation(ctx, station.ID))

		got, err := suite.Store.GetMenuItem(ctx, item.ID)
		suite.AssertNoError(t, err)
		if got.StationID != nil || got.Station != nil {
			t.Errorf("Expected station to be cleared, got %+v", got)
		}
	})

	t.Run("RegenerationKeepsCreator", func(t *testing.T) {
		chefID := suite.Profiles[data.RoleChef].ID
		_, err := suite.Store.UpsertPrepList(ctx, Thursday, nil)
		suite.AssertNoError(t, err)

		list, err := suite.Store.FindPrepListByDate(ctx, Thursday)
		suite.AssertNoError(t, err)
		if list.CreatedBy == nil || *list.CreatedBy != chefID {
			t.Errorf("Expected creator %s to survive, got %v", chefID, list.CreatedBy)
		}
	})

	t.Run("WaitForStoreWrites", func(t *testing.T) {
		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = suite.Store.InsertRecipe(ctx, data.NewRecipe{Name: "Brine"})
		}()
		ok := suite.WaitForCondition(func() bool {
			select {
			case <-done:
				return true
			default:
				return false
			}
		}, 5*time.Second)
		if !ok {
			t.Fatal("Recipe insert did not finish")
		}
		recipes, err := suite.Store.ListRecipes(ctx)
		suite.AssertNoError(t, err)
		if len(recipes) != 1 || recipes[0].Name != "Brine" {
			t.Errorf("Unexpected recipes: %+v", recipes)
		}
	})
}
