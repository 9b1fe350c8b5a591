// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"kitchenops/internal/auth"
	"kitchenops/internal/data"
	"kitchenops/internal/logger"
	"kitchenops/internal/middleware"
	"kitchenops/internal/prep"
	"kitchenops/internal/realtime"
)

const timeoutBody = `{"error":{"message":"Request timed out"}}`

// Server holds the dependencies shared by every route handler.
type Server struct {
	store     *data.Store
	broker    *realtime.Broker
	generator *prep.Generator
	tasks     *prep.TaskService
	guard     *auth.Guard
}

// Deps are constructed once at startup and passed in.
type Deps struct {
	Store     *data.Store
	Broker    *realtime.Broker
	Generator *prep.Generator
	Tasks     *prep.TaskService
	Guard     *auth.Guard
}

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewServer(d Deps) *Server {
	return &Server{
		store:     d.Store,
		broker:    d.Broker,
		generator: d.Generator,
		tasks:     d.Tasks,
		guard:     d.Guard,
	}
}

// NewRouter assembles the middleware chain and every route.
func NewRouter(d Deps, opts Options) http.Handler {
	s := NewServer(d)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		logger.LogInfo("404 not found: %s", r.URL.Path)
		middleware.WriteError(w, r, http.StatusNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	// The event stream is long-lived and stays outside the timeout group.
	r.Get("/api/realtime/prep-tasks", s.streamPrepTasks)

	r.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(withTimeout(opts.RequestTimeout))
		}

		r.Get("/healthz", s.health)

		r.Route("/api/stations", func(r chi.Router) {
			r.Get("/", s.listStations)
			r.With(s.guard.RequireAdminOrChef).Post("/", s.createStation)
			r.Get("/{id}", s.getStation)
			r.With(s.guard.RequireAdminOrChef).Patch("/{id}", s.updateStation)
			r.With(s.guard.RequireAdminOrChef).Delete("/{id}", s.deleteStation)
		})

		r.Route("/api/recipes", func(r chi.Router) {
			r.Get("/", s.listRecipes)
			r.With(s.guard.RequireAdminOrChef).Post("/", s.createRecipe)
		})

		r.Route("/api/menu-items", func(r chi.Router) {
			r.Get("/", s.listMenuItems)
			r.With(s.guard.RequireAdminOrChef).Post("/", s.createMenuItem)
			r.Get("/{id}", s.getMenuItem)
			r.With(s.guard.RequireAdminOrChef).Patch("/{id}", s.updateMenuItem)
			r.With(s.guard.RequireAdminOrChef).Delete("/{id}", s.deleteMenuItem)
		})

		r.Route("/api/par-levels", func(r chi.Router) {
			r.Get("/", s.listParLevels)
			r.With(s.guard.RequireAdminOrChef).Put("/", s.upsertParLevels)
		})

		r.Route("/api/sales-records", func(r chi.Router) {
			r.Get("/", s.listSalesRecords)
			r.With(s.guard.RequireAdminOrChef).Post("/", s.createSalesRecord)
		})

		r.Route("/api/prep-lists", func(r chi.Router) {
			r.Get("/", s.getPrepLists)
			r.With(s.guard.RequireAdminOrChef).Post("/", s.generatePrepList)
			r.With(s.guard.RequireAdminOrChef).Patch("/", s.updatePrepList)
			r.Get("/{id}", s.getPrepList)
			r.With(s.guard.RequireAdminOrChef).Delete("/{id}", s.deletePrepList)
		})

		// Kitchen floor access: no role check.
		r.Route("/api/prep-tasks", func(r chi.Router) {
			r.Get("/{id}", s.getPrepTask)
			r.Patch("/{id}", s.updatePrepTask)
			r.Post("/{id}/actions", s.actOnPrepTask)
		})

		r.Get("/api/progress", s.progress)
	})

	return r
}

// Middleware: timeout handler
func withTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.TimeoutHandler(h, timeout, timeoutBody)
	}
}
