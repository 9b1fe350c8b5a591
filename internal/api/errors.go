// internal/api/errors.go
package api

import (
	"errors"
	"net/http"

	"kitchenops/internal/auth"
	"kitchenops/internal/data"
	"kitchenops/internal/middleware"
	"kitchenops/internal/prep"
	"kitchenops/internal/validation"
)

// respondError maps any handler error onto the HTTP error taxonomy.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid    *validation.Error
		missing    *data.NotFoundError
		noPars     *prep.NoParLevelsError
		transition *prep.TransitionError
	)

	switch {
	case errors.As(err, &invalid):
		middleware.WriteError(w, r, http.StatusUnprocessableEntity, "Validation failed", invalid.Fields)
	case errors.Is(err, middleware.ErrBadJSON), errors.Is(err, errMissingDate):
		middleware.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, auth.ErrUnauthenticated):
		middleware.WriteError(w, r, http.StatusUnauthorized, auth.ErrUnauthenticated.Error(), nil)
	case errors.Is(err, auth.ErrForbidden):
		middleware.WriteError(w, r, http.StatusForbidden, auth.ErrForbidden.Error(), nil)
	case errors.As(err, &missing):
		middleware.WriteError(w, r, http.StatusNotFound, missing.Error(), nil)
	case errors.Is(err, data.ErrConflict):
		middleware.WriteError(w, r, http.StatusConflict, "Record already exists", nil)
	case errors.Is(err, data.ErrForeignKey):
		middleware.WriteError(w, r, http.StatusBadRequest, "Referenced record not found", nil)
	case errors.As(err, &noPars):
		middleware.WriteError(w, r, http.StatusBadRequest, noPars.Error(), nil)
	case errors.As(err, &transition):
		middleware.WriteError(w, r, http.StatusBadRequest, transition.Error(), nil)
	case errors.Is(err, prep.ErrListLocked):
		middleware.WriteError(w, r, http.StatusConflict, "Prep list is locked", nil)
	default:
		middleware.WriteError(w, r, http.StatusInternalServerError, err.Error(), nil)
	}
}

// decode reads the JSON body and runs it through a validation schema. On
// failure it has already written the response.
func decode[T any](w http.ResponseWriter, r *http.Request, schema func(any) (T, error)) (T, bool) {
	var zero T
	raw, err := middleware.DecodePayload(r)
	if err != nil {
		respondError(w, r, err)
		return zero, false
	}
	v, err := schema(raw)
	if err != nil {
		respondError(w, r, err)
		return zero, false
	}
	return v, true
}

// dateParam reads a required YYYY-MM-DD query parameter.
func dateParam(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", errMissingDate
	}
	if !validation.IsDate(v) {
		return "", validation.FieldError(name, "Use YYYY-MM-DD")
	}
	return v, nil
}

var errMissingDate = errors.New("date query param required")
