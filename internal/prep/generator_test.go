package prep

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenops/internal/data"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// 2026-02-11 is a Wednesday.
const wednesday = "2026-02-11"

func newStore(t *testing.T) *data.Store {
	t.Helper()
	store, err := data.Open(data.SQLite, filepath.Join(t.TempDir(), "prep.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

// seedPars creates one menu item per quantity with a par on weekday.
func seedPars(t *testing.T, store *data.Store, weekday time.Weekday, quantities ...float64) []string {
	t.Helper()
	ctx := context.Background()

	station, err := store.InsertStation(ctx, data.NewStation{Name: "Grill", Color: "#ef4444", IsActive: true})
	require.NoError(t, err)

	var ids []string
	for i, qty := range quantities {
		item, err := store.InsertMenuItem(ctx, data.NewMenuItem{
			Name:      "Item " + string(rune('A'+i)),
			StationID: &station.ID,
			Unit:      "portions",
			IsActive:  true,
		})
		require.NoError(t, err)
		_, err = store.UpsertParLevel(ctx, data.ParLevelEntry{MenuItemID: item.ID, DayOfWeek: int(weekday), ParQuantity: qty})
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}
	return ids
}

func TestWeekdayUsesNoonAnchor(t *testing.T) {
	tests := map[string]time.Weekday{
		"2026-02-11": time.Wednesday,
		"2026-02-15": time.Sunday,
		"2026-02-14": time.Saturday,
		"2024-02-29": time.Thursday,
	}
	for date, want := range tests {
		got, err := Weekday(date)
		require.NoError(t, err)
		assert.Equal(t, want, got, date)
	}

	_, err := Weekday("02/11/2026")
	assert.Error(t, err)
}

func TestGenerateCreatesPendingTasks(t *testing.T) {
	store := newStore(t)
	pub := &recordingPublisher{}
	gen := NewGenerator(store, pub)
	seedPars(t, store, time.Wednesday, 4, 2.5, 0)
	seedPars(t, store, time.Thursday, 9)

	res, err := gen.Generate(context.Background(), wednesday, nil)
	require.NoError(t, err)
	assert.Equal(t, wednesday, res.PrepDate)
	assert.Equal(t, 3, res.TaskCount)
	assert.NotEmpty(t, res.ID)

	list, err := store.GetPrepListByDate(context.Background(), wednesday)
	require.NoError(t, err)
	require.Len(t, list.Tasks, 3)

	var needed []float64
	for _, task := range list.Tasks {
		assert.Equal(t, data.StatusPending, task.Status)
		assert.Equal(t, 0.0, task.QuantityDone)
		assert.Equal(t, res.ID, task.PrepListID)
		require.NotNil(t, task.MenuItem)
		require.NotNil(t, task.MenuItem.Station)
		needed = append(needed, task.QuantityNeeded)
	}
	assert.ElementsMatch(t, []float64{4, 2.5, 0}, needed)
	assert.Equal(t, []string{wednesday}, pub.published())
}

func TestGenerateTwiceReplacesTasks(t *testing.T) {
	store := newStore(t)
	gen := NewGenerator(store, nil)
	seedPars(t, store, time.Wednesday, 1, 2)
	ctx := context.Background()

	first, err := gen.Generate(ctx, wednesday, nil)
	require.NoError(t, err)

	// Progress made between runs is discarded by regeneration.
	list, err := store.GetPrepListByDate(ctx, wednesday)
	require.NoError(t, err)
	done := 1.0
	_, err = store.UpdatePrepTask(ctx, list.Tasks[0].ID, data.TaskPatch{QuantityDone: &done})
	require.NoError(t, err)

	second, err := gen.Generate(ctx, wednesday, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "list identity is reused")
	assert.Equal(t, 2, second.TaskCount)

	list, err = store.GetPrepListByDate(ctx, wednesday)
	require.NoError(t, err)
	assert.Len(t, list.Tasks, 2)
	for _, task := range list.Tasks {
		assert.Equal(t, 0.0, task.QuantityDone)
	}
}

func TestGenerateIncludesInactiveMenuItems(t *testing.T) {
	store := newStore(t)
	gen := NewGenerator(store, nil)
	ctx := context.Background()
	ids := seedPars(t, store, time.Wednesday, 4)

	inactive := false
	_, err := store.UpdateMenuItem(ctx, ids[0], data.MenuItemPatch{IsActive: &inactive})
	require.NoError(t, err)

	res, err := gen.Generate(ctx, wednesday, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TaskCount, "one task per par level for the weekday")
}

func TestGenerateWithoutParLevelsFails(t *testing.T) {
	store := newStore(t)
	pub := &recordingPublisher{}
	gen := NewGenerator(store, pub)
	seedPars(t, store, time.Thursday, 3)

	_, err := gen.Generate(context.Background(), wednesday, nil)
	var noPars *NoParLevelsError
	require.True(t, errors.As(err, &noPars))
	assert.Equal(t, "No par levels found for Wednesday", err.Error())

	_, err = store.FindPrepListByDate(context.Background(), wednesday)
	assert.ErrorIs(t, err, data.ErrNotFound, "no list row is created")
	assert.Empty(t, pub.published())
}

func TestGenerateWithoutParsKeepsExistingList(t *testing.T) {
	store := newStore(t)
	gen := NewGenerator(store, nil)
	ctx := context.Background()
	seedPars(t, store, time.Wednesday, 2)

	_, err := gen.Generate(ctx, wednesday, nil)
	require.NoError(t, err)

	// Removing every par for the weekday must not wipe the generated list.
	_, err = store.DB().ExecContext(ctx, `DELETE FROM par_levels`)
	require.NoError(t, err)

	_, err = gen.Generate(ctx, wednesday, nil)
	var noPars *NoParLevelsError
	require.True(t, errors.As(err, &noPars))

	list, err := store.GetPrepListByDate(ctx, wednesday)
	require.NoError(t, err)
	assert.Len(t, list.Tasks, 1)
}

func TestGenerateRefusesLockedList(t *testing.T) {
	store := newStore(t)
	gen := NewGenerator(store, nil)
	ctx := context.Background()
	seedPars(t, store, time.Wednesday, 2)

	_, err := gen.Generate(ctx, wednesday, nil)
	require.NoError(t, err)

	locked := true
	_, err = store.UpdatePrepListByDate(ctx, wednesday, data.PrepListPatch{IsLocked: &locked})
	require.NoError(t, err)

	_, err = gen.Generate(ctx, wednesday, nil)
	assert.ErrorIs(t, err, ErrListLocked)
}

func TestGenerateRecordsCreator(t *testing.T) {
	store := newStore(t)
	gen := NewGenerator(store, nil)
	ctx := context.Background()
	seedPars(t, store, time.Wednesday, 2)

	chef, err := store.InsertProfile(ctx, data.NewProfile{Role: data.RoleChef})
	require.NoError(t, err)

	_, err = gen.Generate(ctx, wednesday, &chef.ID)
	require.NoError(t, err)
	_, err = gen.Generate(ctx, wednesday, nil)
	require.NoError(t, err)

	list, err := store.FindPrepListByDate(ctx, wednesday)
	require.NoError(t, err)
	require.NotNil(t, list.CreatedBy)
	assert.Equal(t, chef.ID, *list.CreatedBy)
}

func TestConcurrentGenerationDoesNotDuplicate(t *testing.T) {
	store := newStore(t)
	gen := NewGenerator(store, nil)
	seedPars(t, store, time.Wednesday, 1, 2, 3)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gen.Generate(context.Background(), wednesday, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	list, err := store.GetPrepListByDate(context.Background(), wednesday)
	require.NoError(t, err)
	assert.Len(t, list.Tasks, 3)
}

func TestTaskServiceActAndUpdate(t *testing.T) {
	store := newStore(t)
	pub := &recordingPublisher{}
	gen := NewGenerator(store, nil)
	svc := NewTaskService(store, pub)
	svc.now = func() time.Time { return time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	seedPars(t, store, time.Wednesday, 5)

	_, err := gen.Generate(ctx, wednesday, nil)
	require.NoError(t, err)
	list, err := store.GetPrepListByDate(ctx, wednesday)
	require.NoError(t, err)
	id := list.Tasks[0].ID

	updated, err := svc.Act(ctx, id, ActionIncrement)
	require.NoError(t, err)
	assert.Equal(t, data.StatusInProgress, updated.Status)
	assert.Equal(t, 1.0, updated.QuantityDone)
	require.NotNil(t, updated.StartedAt)
	assert.Equal(t, 10, updated.StartedAt.Hour())

	_, err = svc.Update(ctx, id, data.TaskPatch{QuantityDone: ptr(9.0)})
	var te *TransitionError
	assert.True(t, errors.As(err, &te))

	updated, err = svc.Act(ctx, id, ActionComplete)
	require.NoError(t, err)
	assert.Equal(t, data.StatusDone, updated.Status)
	assert.Equal(t, 5.0, updated.QuantityDone)

	_, err = svc.Act(ctx, id, ActionIncrement)
	assert.True(t, errors.As(err, &te))

	updated, err = svc.Act(ctx, id, ActionReset)
	require.NoError(t, err)
	assert.Equal(t, data.StatusPending, updated.Status)
	assert.Nil(t, updated.StartedAt)
	assert.Nil(t, updated.CompletedAt)

	_, err = svc.Act(ctx, "00000000-0000-0000-0000-000000000000", ActionSkip)
	assert.ErrorIs(t, err, data.ErrNotFound)

	assert.Equal(t, []string{wednesday, wednesday, wednesday}, pub.published())
}

func ptr[T any](v T) *T { return &v }
