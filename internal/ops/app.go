// Package ops is the operational HTTP surface of the engine: job intake and
// inspection, queue administration and manual refunds. End-user traffic lives
// in a separate product API; this surface is for the product backend and
// operators.
package ops

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/orchestrator"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
	"github.com/ceelsoin/productify-next-sub000/internal/refund"
)

// App bundles the dependencies the handlers need.
type App struct {
	Repo    domain.JobRepository
	Ledger  domain.CreditLedger
	Queues  *queue.Client
	Orch    *orchestrator.Orchestrator
	Refunds *refund.Service
	Logger  zerolog.Logger
}

func NewApp(repo domain.JobRepository, ledger domain.CreditLedger, queues *queue.Client, orch *orchestrator.Orchestrator, refunds *refund.Service, logger zerolog.Logger) *App {
	return &App{
		Repo:    repo,
		Ledger:  ledger,
		Queues:  queues,
		Orch:    orch,
		Refunds: refunds,
		Logger:  logger,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
