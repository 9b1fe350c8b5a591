// internal/api/system.go
package api

import (
	"errors"
	"net/http"

	"kitchenops/internal/data"
	"kitchenops/internal/middleware"
	"kitchenops/internal/report"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		middleware.WriteError(w, r, http.StatusServiceUnavailable, "Database unavailable", nil)
		return
	}
	middleware.WriteOK(w, r, map[string]string{"status": "ok"})
}

// progress summarizes the prep list for ?date by station.
func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		respondError(w, r, err)
		return
	}

	list, err := s.store.GetPrepListByDate(r.Context(), date)
	if errors.Is(err, data.ErrNotFound) {
		middleware.WriteError(w, r, http.StatusNotFound, "No prep list for this date", nil)
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	middleware.WriteOK(w, r, report.ComputeProgress(list))
}

// streamPrepTasks pushes invalidations for one prep date over SSE.
func (s *Server) streamPrepTasks(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.broker.Stream(w, r, date)
}
