// internal/api/catalog.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kitchenops/internal/data"
	"kitchenops/internal/middleware"
	"kitchenops/internal/validation"
)

// =============================================================================
// STATIONS
// =============================================================================

func (s *Server) listStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.store.ListStations(r.Context(), r.URL.Query().Get("active_only") == "true")
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, stations)
}

func (s *Server) getStation(w http.ResponseWriter, r *http.Request) {
	station, err := s.store.GetStation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, station)
}

func (s *Server) createStation(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r, validation.Station)
	if !ok {
		return
	}
	station, err := s.store.InsertStation(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteCreated(w, r, station)
}

func (s *Server) updateStation(w http.ResponseWriter, r *http.Request) {
	patch, ok := decode(w, r, validation.StationPatch)
	if !ok {
		return
	}
	station, err := s.store.UpdateStation(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, station)
}

func (s *Server) deleteStation(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteStation(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteNoContent(w)
}

// =============================================================================
// RECIPES
// =============================================================================

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.store.ListRecipes(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, recipes)
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r, validation.Recipe)
	if !ok {
		return
	}
	recipe, err := s.store.InsertRecipe(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteCreated(w, r, recipe)
}

// =============================================================================
// MENU ITEMS
// =============================================================================

func (s *Server) listMenuItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.store.ListMenuItems(r.Context(), data.MenuItemFilter{
		StationID:  q.Get("station_id"),
		ActiveOnly: q.Get("active_only") == "true",
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, items)
}

func (s *Server) getMenuItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetMenuItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, item)
}

func (s *Server) createMenuItem(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r, validation.MenuItem)
	if !ok {
		return
	}
	item, err := s.store.InsertMenuItem(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteCreated(w, r, item)
}

func (s *Server) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	patch, ok := decode(w, r, validation.MenuItemPatch)
	if !ok {
		return
	}
	item, err := s.store.UpdateMenuItem(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, item)
}

func (s *Server) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMenuItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteNoContent(w)
}

// =============================================================================
// PAR LEVELS
// =============================================================================

func (s *Server) listParLevels(w http.ResponseWriter, r *http.Request) {
	pars, err := s.store.ListParLevels(r.Context(), r.URL.Query().Get("menu_item_id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, pars)
}

// upsertParLevels applies the whole batch or nothing.
func (s *Server) upsertParLevels(w http.ResponseWriter, r *http.Request) {
	entries, ok := decode(w, r, validation.ParLevels)
	if !ok {
		return
	}

	var pars []data.ParLevel
	err := s.store.WithTx(r.Context(), func(q *data.Queries) error {
		var err error
		pars, err = q.UpsertParLevels(r.Context(), entries)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, pars)
}

// =============================================================================
// SALES RECORDS
// =============================================================================

func (s *Server) listSalesRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := data.SalesFilter{
		MenuItemID: q.Get("menu_item_id"),
		From:       q.Get("from"),
		To:         q.Get("to"),
	}
	for _, p := range [][2]string{{"from", filter.From}, {"to", filter.To}} {
		if p[1] != "" && !validation.IsDate(p[1]) {
			respondError(w, r, validation.FieldError(p[0], "Use YYYY-MM-DD"))
			return
		}
	}

	page := middleware.ParsePagination(r)
	records, total, err := s.store.ListSalesRecords(r.Context(), filter, page.PageSize, page.Offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WritePaginated(w, r, records, total, page)
}

func (s *Server) createSalesRecord(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r, validation.SalesRecord)
	if !ok {
		return
	}
	record, err := s.store.InsertSalesRecord(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteCreated(w, r, record)
}
