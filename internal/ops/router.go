package ops

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the ops HTTP surface. staticDir, when non-empty, is
// served under /static/ so locally stored artifacts resolve.
func NewRouter(app *App, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", app.CreateJob)
		r.Get("/{id}", app.GetJob)
		r.Post("/{id}/cancel", app.CancelJob)
		r.Post("/{id}/refund", app.ManualRefund)
	})

	r.Route("/v1/queues", func(r chi.Router) {
		r.Get("/stats", app.QueueStats)
		r.Post("/{name}/pause", app.PauseQueue)
		r.Post("/{name}/resume", app.ResumeQueue)
	})

	if staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fs))
	}

	return r
}
