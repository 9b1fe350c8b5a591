package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenops/internal/data"
)

const itemID = "3f1c2a9e-6d1b-4c43-9a2f-1b2c3d4e5f60"

// payload decodes JSON the same way the HTTP layer does.
func payload(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *validation.Error, got %v", err)
	return verr.Fields
}

func TestStationColor(t *testing.T) {
	tests := []struct {
		color string
		ok    bool
	}{
		{"#ef4444", true},
		{"#EF4444", true},
		{"#000000", true},
		{"red", false},
		{"#f00", false},
		{"ef4444", false},
		{"#ef44444", false},
		{"#gg0000", false},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			_, err := Station(payload(t, fmt.Sprintf(`{"name":"Grill","color":%q}`, tt.color)))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Contains(t, fieldErrors(t, err), "color")
		})
	}
}

func TestStationDefaults(t *testing.T) {
	st, err := Station(payload(t, `{"name":"Grill","color":"#ef4444"}`))
	require.NoError(t, err)
	assert.True(t, st.IsActive)
	assert.Equal(t, 0, st.DisplayOrder)

	_, err = Station(payload(t, `{"name":"","color":"#ef4444","display_order":-1}`))
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "display_order")

	_, err = Station(payload(t, `{"name":"`+strings.Repeat("x", 101)+`","color":"#ef4444"}`))
	assert.Contains(t, fieldErrors(t, err), "name")
}

func TestPartialUpdatesAcceptEmptyObject(t *testing.T) {
	sp, err := StationPatch(payload(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, data.StationPatch{}, sp)

	tp, err := TaskPatch(payload(t, `{}`))
	require.NoError(t, err)
	assert.True(t, tp.IsEmpty())

	mp, err := MenuItemPatch(payload(t, `{}`))
	require.NoError(t, err)
	assert.False(t, mp.StationID.Set)
	assert.Nil(t, mp.Unit)
}

func TestStationPatchRules(t *testing.T) {
	_, err := StationPatch(payload(t, `{"color":"blue"}`))
	assert.Contains(t, fieldErrors(t, err), "color")

	sp, err := StationPatch(payload(t, `{"is_active":false,"display_order":3}`))
	require.NoError(t, err)
	require.NotNil(t, sp.IsActive)
	assert.False(t, *sp.IsActive)
	assert.Equal(t, 3, *sp.DisplayOrder)
}

func TestNonObjectPayloadRejected(t *testing.T) {
	_, err := Station(payload(t, `[1,2]`))
	assert.Contains(t, fieldErrors(t, err), "_root")
}

func TestMenuItem(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		m, err := MenuItem(payload(t, `{"name":"Burger"}`))
		require.NoError(t, err)
		assert.Equal(t, "portions", m.Unit)
		assert.True(t, m.IsActive)
		assert.Nil(t, m.StationID)
	})

	t.Run("nullable ids", func(t *testing.T) {
		m, err := MenuItem(payload(t, `{"name":"Burger","station_id":null,"recipe_id":"`+itemID+`"}`))
		require.NoError(t, err)
		assert.Nil(t, m.StationID)
		require.NotNil(t, m.RecipeID)
		assert.Equal(t, itemID, *m.RecipeID)
	})

	t.Run("bad ids and unit", func(t *testing.T) {
		_, err := MenuItem(payload(t, `{"name":"Burger","station_id":"abc","unit":""}`))
		fields := fieldErrors(t, err)
		assert.Equal(t, []string{"Invalid uuid"}, fields["station_id"])
		assert.Contains(t, fields, "unit")
	})

	t.Run("patch clears station", func(t *testing.T) {
		p, err := MenuItemPatch(payload(t, `{"station_id":null}`))
		require.NoError(t, err)
		assert.True(t, p.StationID.Set)
		assert.Nil(t, p.StationID.Value)
	})
}

func TestParLevelEntries(t *testing.T) {
	entry := func(day string, qty string) string {
		return fmt.Sprintf(`{"menu_item_id":%q,"day_of_week":%s,"par_quantity":%s}`, itemID, day, qty)
	}

	t.Run("day of week bounds", func(t *testing.T) {
		for day := 0; day <= 6; day++ {
			_, err := ParLevels(payload(t, `{"entries":[`+entry(fmt.Sprint(day), "1")+`]}`))
			assert.NoError(t, err, "day %d", day)
		}
		for _, day := range []string{"7", "-1", "2.5"} {
			_, err := ParLevels(payload(t, `{"entries":[`+entry(day, "1")+`]}`))
			assert.Contains(t, fieldErrors(t, err), "entries[0].day_of_week", "day %s", day)
		}
	})

	t.Run("quantity", func(t *testing.T) {
		entries, err := ParLevels(payload(t, `{"entries":[`+entry("1", "0")+`,`+entry("2", "2.5")+`]}`))
		require.NoError(t, err)
		assert.Equal(t, 0.0, entries[0].ParQuantity)
		assert.Equal(t, 2.5, entries[1].ParQuantity)

		_, err = ParLevels(payload(t, `{"entries":[`+entry("1", "-1")+`]}`))
		assert.Contains(t, fieldErrors(t, err), "entries[0].par_quantity")
	})

	t.Run("array size", func(t *testing.T) {
		_, err := ParLevels(payload(t, `{"entries":[]}`))
		assert.Contains(t, fieldErrors(t, err), "entries")

		_, err = ParLevels(payload(t, `{}`))
		assert.Equal(t, []string{"Required"}, fieldErrors(t, err)["entries"])

		many := make([]string, 501)
		for i := range many {
			many[i] = entry("1", "1")
		}
		_, err = ParLevels(payload(t, `{"entries":[`+strings.Join(many[:500], ",")+`]}`))
		assert.NoError(t, err)
		_, err = ParLevels(payload(t, `{"entries":[`+strings.Join(many, ",")+`]}`))
		assert.Contains(t, fieldErrors(t, err), "entries")
	})

	t.Run("errors keyed by index", func(t *testing.T) {
		_, err := ParLevels(payload(t, `{"entries":[`+entry("1", "1")+`,{"menu_item_id":"x","day_of_week":1,"par_quantity":1}]}`))
		fields := fieldErrors(t, err)
		assert.Contains(t, fields, "entries[1].menu_item_id")
		assert.NotContains(t, fields, "entries[0].menu_item_id")
	})
}

func TestSalesRecord(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"valid", `{"menu_item_id":"` + itemID + `","sale_date":"2026-02-11","quantity_sold":0}`, ""},
		{"slash date", `{"menu_item_id":"` + itemID + `","sale_date":"02/11/2026","quantity_sold":3}`, "sale_date"},
		{"free text date", `{"menu_item_id":"` + itemID + `","sale_date":"yesterday","quantity_sold":3}`, "sale_date"},
		{"impossible date", `{"menu_item_id":"` + itemID + `","sale_date":"2026-02-30","quantity_sold":3}`, "sale_date"},
		{"negative", `{"menu_item_id":"` + itemID + `","sale_date":"2026-02-11","quantity_sold":-1}`, "quantity_sold"},
		{"fractional", `{"menu_item_id":"` + itemID + `","sale_date":"2026-02-11","quantity_sold":1.5}`, "quantity_sold"},
		{"missing item", `{"sale_date":"2026-02-11","quantity_sold":1}`, "menu_item_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := SalesRecord(payload(t, tt.body))
			if tt.field == "" {
				require.NoError(t, err)
				assert.Equal(t, "2026-02-11", rec.SaleDate)
				return
			}
			assert.Contains(t, fieldErrors(t, err), tt.field)
		})
	}
}

func TestGeneratePrepList(t *testing.T) {
	date, err := GeneratePrepList(payload(t, `{"prep_date":"2026-02-11"}`))
	require.NoError(t, err)
	assert.Equal(t, "2026-02-11", date)

	for _, bad := range []string{`{"prep_date":"02/11/2026"}`, `{"prep_date":20260211}`, `{}`} {
		_, err := GeneratePrepList(payload(t, bad))
		assert.Contains(t, fieldErrors(t, err), "prep_date", bad)
	}
}

func TestPrepListPatch(t *testing.T) {
	p, err := PrepListPatch(payload(t, `{"notes":null,"is_locked":true}`))
	require.NoError(t, err)
	assert.True(t, p.Notes.Set)
	assert.Nil(t, p.Notes.Value)
	assert.True(t, *p.IsLocked)

	_, err = PrepListPatch(payload(t, `{"notes":"`+strings.Repeat("n", 1001)+`"}`))
	assert.Contains(t, fieldErrors(t, err), "notes")

	_, err = PrepListPatch(payload(t, `{"is_locked":"yes"}`))
	assert.Contains(t, fieldErrors(t, err), "is_locked")
}

func TestTaskPatch(t *testing.T) {
	t.Run("status enum", func(t *testing.T) {
		for _, s := range []string{"pending", "in_progress", "done", "skipped"} {
			p, err := TaskPatch(payload(t, `{"status":"`+s+`"}`))
			require.NoError(t, err, s)
			assert.Equal(t, data.TaskStatus(s), *p.Status)
		}
		_, err := TaskPatch(payload(t, `{"status":"cancelled"}`))
		assert.Contains(t, fieldErrors(t, err), "status")
	})

	t.Run("fields", func(t *testing.T) {
		p, err := TaskPatch(payload(t, `{"quantity_done":2,"notes":"low on buns","assigned_to":null,"started_at":"2026-02-11T09:30:00Z","completed_at":null}`))
		require.NoError(t, err)
		assert.Equal(t, 2.0, *p.QuantityDone)
		assert.Equal(t, "low on buns", *p.Notes.Value)
		assert.True(t, p.AssignedTo.Set)
		assert.Nil(t, p.AssignedTo.Value)
		require.NotNil(t, p.StartedAt.Value)
		assert.Equal(t, 9, p.StartedAt.Value.Hour())
		assert.True(t, p.CompletedAt.Set)
		assert.Nil(t, p.CompletedAt.Value)
	})

	t.Run("rejections", func(t *testing.T) {
		_, err := TaskPatch(payload(t, `{"quantity_done":-1,"assigned_to":"bob","started_at":"9am"}`))
		fields := fieldErrors(t, err)
		assert.Contains(t, fields, "quantity_done")
		assert.Contains(t, fields, "assigned_to")
		assert.Contains(t, fields, "started_at")
	})
}

func TestTaskAction(t *testing.T) {
	a, err := TaskAction(payload(t, `{"action":"increment"}`))
	require.NoError(t, err)
	assert.Equal(t, "increment", a)

	_, err = TaskAction(payload(t, `{"action":"explode"}`))
	assert.Contains(t, fieldErrors(t, err), "action")

	_, err = TaskAction(payload(t, `{}`))
	assert.Equal(t, []string{"Required"}, fieldErrors(t, err)["action"])
}

func TestOversizedIntegersRejected(t *testing.T) {
	for _, n := range []string{"1e300", "1e19", "2147483648"} {
		t.Run(n, func(t *testing.T) {
			_, err := Station(payload(t, `{"name":"Grill","color":"#ef4444","display_order":`+n+`}`))
			assert.Equal(t, []string{"Number must be less than or equal to 2147483647"}, fieldErrors(t, err)["display_order"])

			_, err = StationPatch(payload(t, `{"display_order":`+n+`}`))
			assert.Contains(t, fieldErrors(t, err), "display_order")

			_, err = SalesRecord(payload(t, `{"menu_item_id":"`+itemID+`","sale_date":"2026-02-11","quantity_sold":`+n+`}`))
			assert.Contains(t, fieldErrors(t, err), "quantity_sold")

			_, err = TaskPatch(payload(t, `{"quantity_done":`+n+`}`))
			assert.Contains(t, fieldErrors(t, err), "quantity_done")
		})
	}

	s, err := Station(payload(t, `{"name":"Grill","color":"#ef4444","display_order":2147483647}`))
	require.NoError(t, err)
	assert.Equal(t, 2147483647, s.DisplayOrder)
}

func TestErrorMessageIsSorted(t *testing.T) {
	e := &Error{}
	e.add("name", "Required")
	e.add("color", "Required")
	assert.Equal(t, "validation failed: color: Required; name: Required", e.Error())
}
