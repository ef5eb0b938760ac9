package ops

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ceelsoin/productify-next-sub000/internal/queue"
)

// QueueStats reports backlog, pending and dead-letter depth per task queue.
func (a *App) QueueStats(w http.ResponseWriter, r *http.Request) {
	queues := append(queue.AllTaskQueues(), queue.ResultQueue)
	stats, err := a.Queues.QueueStats(r.Context(), queues)
	if err != nil {
		a.Logger.Error().Err(err).Msg("ops: queue stats failed")
		a.error(w, http.StatusInternalServerError, "queue stats failed")
		return
	}
	a.json(w, http.StatusOK, stats)
}

func (a *App) PauseQueue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !knownQueue(name) {
		a.error(w, http.StatusNotFound, "unknown queue")
		return
	}
	if err := a.Queues.Pause(r.Context(), name); err != nil {
		a.Logger.Error().Err(err).Str("queue", name).Msg("ops: pause failed")
		a.error(w, http.StatusInternalServerError, "pause failed")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"queue": name, "state": "paused"})
}

func (a *App) ResumeQueue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !knownQueue(name) {
		a.error(w, http.StatusNotFound, "unknown queue")
		return
	}
	if err := a.Queues.Resume(r.Context(), name); err != nil {
		a.Logger.Error().Err(err).Str("queue", name).Msg("ops: resume failed")
		a.error(w, http.StatusInternalServerError, "resume failed")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"queue": name, "state": "running"})
}

func knownQueue(name string) bool {
	for _, q := range queue.AllTaskQueues() {
		if q == name {
			return true
		}
	}
	return name == queue.ResultQueue
}
