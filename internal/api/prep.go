// internal/api/prep.go
package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kitchenops/internal/auth"
	"kitchenops/internal/data"
	"kitchenops/internal/logger"
	"kitchenops/internal/middleware"
	"kitchenops/internal/prep"
	"kitchenops/internal/validation"
)

const recentPrepLists = 30

// =============================================================================
// PREP LISTS
// =============================================================================

// getPrepLists returns the list for ?date with its tasks, or the latest lists
// without tasks.
func (s *Server) getPrepLists(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		list, err := s.store.GetPrepListByDate(r.Context(), date)
		if errors.Is(err, data.ErrNotFound) {
			middleware.WriteError(w, r, http.StatusNotFound, "No prep list for this date", nil)
			return
		}
		if err != nil {
			respondError(w, r, err)
			return
		}
		middleware.WriteOK(w, r, list)
		return
	}

	lists, err := s.store.ListPrepLists(r.Context(), recentPrepLists)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, lists)
}

func (s *Server) getPrepList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.GetPrepList(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, list)
}

func (s *Server) generatePrepList(w http.ResponseWriter, r *http.Request) {
	date, ok := decode(w, r, validation.GeneratePrepList)
	if !ok {
		return
	}

	var createdBy *string
	if profile, ok := auth.ProfileFromContext(r.Context()); ok {
		createdBy = &profile.ID
	}

	res, err := s.generator.Generate(r.Context(), date, createdBy)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteCreated(w, r, res)
}

func (s *Server) updatePrepList(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		respondError(w, r, errMissingDate)
		return
	}
	patch, ok := decode(w, r, validation.PrepListPatch)
	if !ok {
		return
	}

	list, err := s.store.UpdatePrepListByDate(r.Context(), date, patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.broker.Publish(list.PrepDate)
	middleware.WriteOK(w, r, list)
}

func (s *Server) deletePrepList(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var deleted *data.PrepList
	err := s.store.WithTx(r.Context(), func(q *data.Queries) error {
		var err error
		deleted, err = q.DeletePrepList(r.Context(), id)
		return err
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger.LogInfo("Deleted prep list %s (%s)", deleted.ID, deleted.PrepDate)
	s.broker.Publish(deleted.PrepDate)
	middleware.WriteNoContent(w)
}

// =============================================================================
// PREP TASKS
// =============================================================================

func (s *Server) getPrepTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetPrepTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, task)
}

func (s *Server) updatePrepTask(w http.ResponseWriter, r *http.Request) {
	patch, ok := decode(w, r, validation.TaskPatch)
	if !ok {
		return
	}
	task, err := s.tasks.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, task)
}

func (s *Server) actOnPrepTask(w http.ResponseWriter, r *http.Request) {
	name, ok := decode(w, r, validation.TaskAction)
	if !ok {
		return
	}
	action, err := prep.ParseAction(name)
	if err != nil {
		respondError(w, r, validation.FieldError("action", err.Error()))
		return
	}

	task, err := s.tasks.Act(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, task)
}
