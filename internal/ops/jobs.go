package ops

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/domain/itemcfg"
	"github.com/ceelsoin/productify-next-sub000/internal/pipeline"
)

// creditCosts fixes the price of each item type at job-creation time.
var creditCosts = map[domain.ItemType]int{
	domain.ItemEnhancedImages:     10,
	domain.ItemViralCopy:          5,
	domain.ItemProductDescription: 5,
	domain.ItemVoiceOver:          15,
	domain.ItemCaptions:           5,
	domain.ItemPromotionalVideo:   25,
}

type createJobItem struct {
	Type   domain.ItemType `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

type createJobRequest struct {
	UserID         string             `json:"user_id"`
	SourceImageURL string             `json:"source_image_url"`
	Product        domain.ProductMeta `json:"product"`
	Pipeline       string             `json:"pipeline,omitempty"`
	Items          []createJobItem    `json:"items"`
}

// CreateJob validates the requested items, debits the user and starts the
// pipeline. The job is the unit of billing: the full price is debited up
// front and the refund service settles the difference if work fails.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || len(req.Items) == 0 {
		a.error(w, http.StatusBadRequest, "user_id and items are required")
		return
	}

	items := make([]domain.JobItem, 0, len(req.Items))
	types := make([]domain.ItemType, 0, len(req.Items))
	total := 0
	for _, in := range req.Items {
		if !in.Type.Valid() {
			a.error(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown item type %q", in.Type))
			return
		}
		cfg, err := itemcfg.NormalizeAndValidate(in.Type, in.Config)
		if err != nil {
			a.error(w, http.StatusUnprocessableEntity, fmt.Sprintf("item %s: %v", in.Type, err))
			return
		}
		cost := creditCosts[in.Type]
		items = append(items, domain.JobItem{
			Type:    in.Type,
			Credits: cost,
			Config:  cfg,
			Status:  domain.ItemStatusPending,
		})
		types = append(types, in.Type)
		total += cost
	}

	var p *pipeline.Pipeline
	if req.Pipeline != "" {
		if p = pipeline.GetPipeline(req.Pipeline); p == nil {
			a.error(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown pipeline %q", req.Pipeline))
			return
		}
	} else {
		p = pipeline.CreateDynamicPipeline(types)
	}
	if res := pipeline.Validate(p); !res.Valid {
		a.error(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid pipeline: %v", res.Errors))
		return
	}

	job := &domain.Job{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		SourceImageURL: req.SourceImageURL,
		Product:        req.Product,
		Items:          items,
		TotalCredits:   total,
		CreditsSpent:   total,
		Status:         domain.JobStatusPending,
	}

	if _, err := a.Ledger.Debit(r.Context(), req.UserID, total, domain.TxJobDebit, job.ID, "job debit"); err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientCredits):
			a.error(w, http.StatusPaymentRequired, "insufficient credits")
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "user not found")
		default:
			a.Logger.Error().Err(err).Msg("ops: job debit failed")
			a.error(w, http.StatusInternalServerError, "debit failed")
		}
		return
	}

	if err := a.Repo.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("ops: create job failed")
		a.error(w, http.StatusInternalServerError, "create job failed")
		return
	}

	if err := a.Orch.StartPipeline(r.Context(), job.ID, p, ""); err != nil {
		// The debit stands; the watchdog will fail and refund the job if
		// dispatch never recovers.
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("ops: start pipeline failed")
		a.error(w, http.StatusInternalServerError, "start pipeline failed")
		return
	}

	a.json(w, http.StatusCreated, map[string]any{
		"id":            job.ID,
		"total_credits": total,
		"status":        domain.JobStatusPending,
	})
}

// GetJob returns the full job record, items included.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Msg("ops: get job failed")
		a.error(w, http.StatusInternalServerError, "get job failed")
		return
	}
	a.json(w, http.StatusOK, job)
}

// CancelJob abandons the running pipeline. Credits are untouched; a manual
// refund is the follow-up when one is owed.
func (a *App) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if err := a.Orch.CancelPipeline(r.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("ops: cancel failed")
		a.error(w, http.StatusInternalServerError, "cancel failed")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

type manualRefundRequest struct {
	Amount  int    `json:"amount"`
	AdminID string `json:"admin_id"`
	Reason  string `json:"reason"`
}

// ManualRefund applies an operator-initiated partial or full refund.
func (a *App) ManualRefund(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	var req manualRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 || req.AdminID == "" {
		a.error(w, http.StatusBadRequest, "amount and admin_id are required")
		return
	}

	tx, err := a.Refunds.ProcessManualRefund(r.Context(), jobID, req.Amount, req.AdminID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "job not found")
		case errors.Is(err, domain.ErrRefundExceedsSpend):
			a.error(w, http.StatusUnprocessableEntity, "amount exceeds refundable credits")
		default:
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("ops: manual refund failed")
			a.error(w, http.StatusInternalServerError, "refund failed")
		}
		return
	}
	a.json(w, http.StatusOK, tx)
}
