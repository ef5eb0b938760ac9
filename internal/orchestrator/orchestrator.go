// Package orchestrator drives a job's items from PENDING to a terminal state
// while respecting the pipeline dependency graph.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/pipeline"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
)

// Dispatcher is the queue surface the orchestrator needs: push one task onto
// a named queue.
type Dispatcher interface {
	EnqueueTask(ctx context.Context, queueName string, task *queue.TaskPayload) (string, error)
}

// Compensator reverses credits when a job fails. Compensation errors are
// logged, never re-fail the job.
type Compensator interface {
	ProcessJobFailureRefund(ctx context.Context, jobID string) (*domain.Transaction, error)
	ProcessPartialRefund(ctx context.Context, jobID string, completedItems, totalItems int) (*domain.Transaction, error)
}

// execution is the transient in-memory state of one running job. It is
// disposable: everything needed to rebuild it lives on the persisted job
// record (item statuses and per-item results).
type execution struct {
	jobID          string
	pipeline       *pipeline.Pipeline
	completedIdx   map[int]bool
	completedTypes map[domain.ItemType]bool
	results        map[domain.ItemType]json.RawMessage
	dispatched     map[int]bool
	totalItems     int
}

// Orchestrator schedules ready items, reacts to step completions, and marks
// jobs terminal. One instance owns the in-memory execution map; coordination
// with workers happens only through the job record and the queues.
type Orchestrator struct {
	repo    domain.JobRepository
	queues  Dispatcher
	refunds Compensator
	logger  zerolog.Logger

	mu         sync.Mutex
	executions map[string]*execution
}

// New constructs an orchestrator.
func New(repo domain.JobRepository, queues Dispatcher, refunds Compensator, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		repo:       repo,
		queues:     queues,
		refunds:    refunds,
		logger:     logger,
		executions: make(map[string]*execution),
	}
}

// StartPipeline loads the job, resolves its pipeline (explicit > named static
// > dynamically derived from the job's items), validates it, and dispatches
// the initial frontier. Validation failure aborts before any state is created.
func (o *Orchestrator) StartPipeline(ctx context.Context, jobID string, p *pipeline.Pipeline, pipelineName string) error {
	job, err := o.repo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	if p == nil && pipelineName != "" {
		p = pipeline.GetPipeline(pipelineName)
		if p == nil {
			return fmt.Errorf("%w: no pipeline named %q", domain.ErrInvalidPipeline, pipelineName)
		}
	}
	if p == nil {
		types := make([]domain.ItemType, 0, len(job.Items))
		for _, it := range job.Items {
			types = append(types, it.Type)
		}
		p = pipeline.CreateDynamicPipeline(types)
	}

	if res := pipeline.Validate(p); !res.Valid {
		return fmt.Errorf("%w: %s", domain.ErrInvalidPipeline, strings.Join(res.Errors, "; "))
	}

	exec := rebuildExecution(job, p)

	o.mu.Lock()
	o.executions[jobID] = exec
	o.mu.Unlock()

	if err := o.repo.MarkProcessing(ctx, jobID); err != nil {
		return fmt.Errorf("mark job %s processing: %w", jobID, err)
	}

	o.logger.Info().Str("job_id", jobID).Str("pipeline", p.Name).Int("steps", len(p.Steps)).Msg("orchestrator: pipeline started")
	return o.executeReadySteps(ctx, jobID)
}

// rebuildExecution derives execution state from the persisted job record, so
// a restarted orchestrator can resume a pipeline mid-flight.
func rebuildExecution(job *domain.Job, p *pipeline.Pipeline) *execution {
	exec := &execution{
		jobID:          job.ID,
		pipeline:       p,
		completedIdx:   make(map[int]bool),
		completedTypes: make(map[domain.ItemType]bool),
		results:        make(map[domain.ItemType]json.RawMessage),
		dispatched:     make(map[int]bool),
		totalItems:     len(job.Items),
	}
	for i, it := range job.Items {
		if it.Status == domain.ItemStatusCompleted {
			exec.completedIdx[i] = true
			exec.completedTypes[it.Type] = true
			exec.results[it.Type] = it.Result
		}
	}
	return exec
}

// executeReadySteps is the sole decision point for "what runs next": it scans
// items in index order and dispatches every PENDING item whose declared
// dependencies have all completed. It is re-invoked after every completion,
// which tolerates out-of-order completions without a global topological sort.
func (o *Orchestrator) executeReadySteps(ctx context.Context, jobID string) error {
	o.mu.Lock()
	exec, ok := o.executions[jobID]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: job %s", domain.ErrExecutionNotFound, jobID)
	}

	job, err := o.repo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	for i, item := range job.Items {
		o.mu.Lock()
		skip := exec.completedIdx[i] || exec.dispatched[i]
		o.mu.Unlock()
		if skip || item.Status != domain.ItemStatusPending {
			continue
		}

		step := exec.pipeline.Step(item.Type)
		if step == nil {
			// Item type absent from an explicitly supplied pipeline; it can
			// never become ready, which the validator reports up front for
			// dynamic pipelines.
			continue
		}

		o.mu.Lock()
		ready := true
		for _, dep := range step.DependsOn {
			if !exec.completedTypes[dep] {
				ready = false
				break
			}
		}
		if ready {
			// Flip before dispatch so a re-entrant scan cannot double-send.
			exec.dispatched[i] = true
		}
		o.mu.Unlock()

		if !ready {
			continue
		}

		if err := o.executeStep(ctx, job, i, step, exec); err != nil {
			return err
		}
	}
	return nil
}

// executeStep persists the item's transition to PROCESSING and pushes its
// task onto the queue for its type.
func (o *Orchestrator) executeStep(ctx context.Context, job *domain.Job, index int, step *pipeline.Step, exec *execution) error {
	item := job.Items[index]

	queueName, err := queue.ForItemType(item.Type)
	if err != nil {
		return err
	}

	// Status flips before the task is enqueued so the item is never dispatched
	// twice even if dispatch itself fails partway.
	if err := o.repo.SetItemState(ctx, job.ID, index, domain.ItemStatusProcessing, 0, nil, ""); err != nil {
		return fmt.Errorf("mark item %d processing: %w", index, err)
	}

	task := &queue.TaskPayload{
		JobID:           job.ID,
		ItemIndex:       index,
		ItemType:        item.Type,
		Config:          item.Config,
		SourceImageURL:  job.SourceImageURL,
		Product:         job.Product,
		PromptTemplate:  step.PromptTemplate,
		PreviousResults: o.buildPreviousResults(step, exec),
	}

	if _, err := o.queues.EnqueueTask(ctx, queueName, task); err != nil {
		return fmt.Errorf("dispatch item %d (%s): %w", index, item.Type, err)
	}

	o.logger.Info().
		Str("job_id", job.ID).
		Int("item_index", index).
		Str("item_type", string(item.Type)).
		Str("queue", queueName).
		Msg("orchestrator: item dispatched")
	return nil
}

// buildPreviousResults assembles the dependency outputs this step consumes.
// Only types the step declares as dependencies are included.
func (o *Orchestrator) buildPreviousResults(step *pipeline.Step, exec *execution) queue.PreviousResults {
	o.mu.Lock()
	defer o.mu.Unlock()

	var prev queue.PreviousResults
	for _, dep := range step.DependsOn {
		if raw, ok := exec.results[dep]; ok {
			prev.Merge(dep, raw)
		}
	}
	return prev
}

// HandleStepComplete reacts to a worker's terminal report for one item: on
// success it unlocks newly-ready items or completes the job; on failure it
// fails the whole job and triggers compensation. Results for jobs whose
// execution record is gone (cancelled, watchdog-failed, restarted) are
// discarded.
func (o *Orchestrator) HandleStepComplete(ctx context.Context, res *queue.StepResult) error {
	o.mu.Lock()
	exec, ok := o.executions[res.JobID]
	o.mu.Unlock()
	if !ok {
		o.logger.Warn().
			Str("job_id", res.JobID).
			Int("item_index", res.ItemIndex).
			Msg("orchestrator: result for unknown execution discarded")
		return nil
	}

	if !res.Success {
		return o.failJob(ctx, exec, res)
	}

	o.mu.Lock()
	exec.completedIdx[res.ItemIndex] = true
	exec.completedTypes[res.ItemType] = true
	exec.results[res.ItemType] = res.Result
	done := len(exec.completedIdx) == exec.totalItems
	o.mu.Unlock()

	o.logger.Info().
		Str("job_id", res.JobID).
		Int("item_index", res.ItemIndex).
		Str("item_type", string(res.ItemType)).
		Msg("orchestrator: item completed")

	if res.NextWorker != "" {
		// The worker already dispatched the only step this completion unblocks;
		// the scan below sees it PROCESSING and leaves it alone.
		o.logger.Debug().
			Str("job_id", res.JobID).
			Str("next_worker", res.NextWorker).
			Msg("orchestrator: follow-on dispatched by worker")
	}

	if done {
		if err := o.repo.MarkCompleted(ctx, res.JobID); err != nil {
			return fmt.Errorf("mark job %s completed: %w", res.JobID, err)
		}
		o.discard(res.JobID)
		o.logger.Info().Str("job_id", res.JobID).Msg("orchestrator: job completed")
		return nil
	}
	return o.executeReadySteps(ctx, res.JobID)
}

// failJob applies the fail-fast policy: the job fails as soon as any item
// does, nothing further is dispatched, and credits for incomplete work are
// returned.
func (o *Orchestrator) failJob(ctx context.Context, exec *execution, res *queue.StepResult) error {
	o.mu.Lock()
	completed := len(exec.completedIdx)
	total := exec.totalItems
	o.mu.Unlock()

	o.logger.Error().
		Str("job_id", res.JobID).
		Int("item_index", res.ItemIndex).
		Str("item_type", string(res.ItemType)).
		Str("item_error", res.Error).
		Msg("orchestrator: item failed, failing job")

	if err := o.repo.MarkFailed(ctx, res.JobID); err != nil {
		return fmt.Errorf("mark job %s failed: %w", res.JobID, err)
	}
	o.discard(res.JobID)

	var refundErr error
	if completed == 0 {
		_, refundErr = o.refunds.ProcessJobFailureRefund(ctx, res.JobID)
	} else {
		_, refundErr = o.refunds.ProcessPartialRefund(ctx, res.JobID, completed, total)
	}
	if refundErr != nil && !errors.Is(refundErr, domain.ErrAlreadyRefunded) {
		// The job is already FAILED; compensation problems are an operator
		// concern handled via manual refund.
		o.logger.Error().Err(refundErr).Str("job_id", res.JobID).Msg("orchestrator: refund failed")
	}
	return nil
}

// CancelPipeline discards the execution and marks the job CANCELLED. Credits
// are untouched; in-flight worker tasks keep running but their results are
// discarded once they report back.
func (o *Orchestrator) CancelPipeline(ctx context.Context, jobID string) error {
	if err := o.repo.MarkCancelled(ctx, jobID); err != nil {
		return fmt.Errorf("mark job %s cancelled: %w", jobID, err)
	}
	o.discard(jobID)
	o.logger.Info().Str("job_id", jobID).Msg("orchestrator: pipeline cancelled")
	return nil
}

func (o *Orchestrator) discard(jobID string) {
	o.mu.Lock()
	delete(o.executions, jobID)
	o.mu.Unlock()
}

// ActiveExecutions returns the ids of jobs with live in-memory executions.
func (o *Orchestrator) ActiveExecutions() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.executions))
	for id := range o.executions {
		ids = append(ids, id)
	}
	return ids
}
