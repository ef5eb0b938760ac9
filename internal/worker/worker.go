// Package worker runs the typed task processors. A Worker owns the lifecycle
// around one processor: it flips the item to PROCESSING, persists progress as
// the processor reports it, and publishes exactly one terminal StepResult to
// the orchestrator once the delivery budget is settled.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/pipeline"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
)

// ProgressFunc reports item progress in percent. Implementations persist it
// best-effort; a failed progress write never fails the task.
type ProgressFunc func(pct int)

// Processor turns one task payload into a typed result. Returning an error
// signals the attempt failed; the queue layer decides whether to retry.
type Processor interface {
	Process(ctx context.Context, task *queue.TaskPayload, progress ProgressFunc) (json.RawMessage, error)
}

// TaskQueue is the slice of the queue client the worker needs: report terminal
// outcomes, and push a follow-on task when it can chain one directly.
type TaskQueue interface {
	PublishResult(ctx context.Context, res *queue.StepResult) (string, error)
	EnqueueTask(ctx context.Context, queueName string, task *queue.TaskPayload) (string, error)
}

// Worker adapts a Processor to the queue.Handler contract.
type Worker struct {
	repo   domain.JobRepository
	queues TaskQueue
	proc   Processor
	logger zerolog.Logger
}

// New builds a worker around one processor.
func New(repo domain.JobRepository, queues TaskQueue, proc Processor, logger zerolog.Logger) *Worker {
	return &Worker{repo: repo, queues: queues, proc: proc, logger: logger}
}

// Handle processes one delivery. A nil return acknowledges the message; an
// error leaves it pending for the retry policy. The terminal failure report
// goes out only on the final attempt so the orchestrator sees each item fail
// at most once.
func (w *Worker) Handle(ctx context.Context, m *queue.Message) error {
	task, err := m.Task()
	if err != nil {
		// Undecodable payloads never become processable; drop without retry.
		w.logger.Error().Err(err).Str("message_id", m.ID).Msg("worker: malformed task discarded")
		return nil
	}

	log := w.logger.With().
		Str("job_id", task.JobID).
		Int("item_index", task.ItemIndex).
		Str("item_type", string(task.ItemType)).
		Int("attempt", m.Attempt).
		Logger()

	if err := w.repo.SetItemState(ctx, task.JobID, task.ItemIndex, domain.ItemStatusProcessing, 0, nil, ""); err != nil {
		log.Error().Err(err).Msg("worker: mark item processing failed")
		return fmt.Errorf("mark item processing: %w", err)
	}

	progress := func(pct int) {
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		if err := w.repo.SetItemState(ctx, task.JobID, task.ItemIndex, domain.ItemStatusProcessing, pct, nil, ""); err != nil {
			log.Warn().Err(err).Int("progress", pct).Msg("worker: progress write failed")
			return
		}
		w.updateAggregate(ctx, task.JobID, false, log)
	}

	result, procErr := w.proc.Process(ctx, task, progress)
	if procErr != nil {
		log.Error().Err(procErr).Bool("final", m.Final).Msg("worker: task failed")
		if err := w.repo.SetItemState(ctx, task.JobID, task.ItemIndex, domain.ItemStatusFailed, 0, nil, procErr.Error()); err != nil {
			log.Error().Err(err).Msg("worker: mark item failed failed")
		}
		w.updateAggregate(ctx, task.JobID, m.Final, log)
		if m.Final {
			w.publish(ctx, &queue.StepResult{
				JobID:     task.JobID,
				ItemIndex: task.ItemIndex,
				ItemType:  task.ItemType,
				Success:   false,
				Error:     procErr.Error(),
			}, log)
		}
		return procErr
	}

	if err := w.repo.SetItemState(ctx, task.JobID, task.ItemIndex, domain.ItemStatusCompleted, 100, result, ""); err != nil {
		log.Error().Err(err).Msg("worker: mark item completed failed")
		return fmt.Errorf("mark item completed: %w", err)
	}
	w.updateAggregate(ctx, task.JobID, false, log)
	nextWorker := w.chainNext(ctx, task, log)
	w.publish(ctx, &queue.StepResult{
		JobID:      task.JobID,
		ItemIndex:  task.ItemIndex,
		ItemType:   task.ItemType,
		Success:    true,
		Result:     result,
		NextWorker: nextWorker,
	}, log)
	log.Info().Msg("worker: task completed")
	return nil
}

// updateAggregate recomputes job-level status and progress from the persisted
// items. Terminal job statuses are owned by the orchestrator, so a job that is
// already terminal is left alone. A FAILED aggregate is written only when the
// failing item has exhausted its delivery budget (allowFailed); a transient
// failure awaiting redelivery must not surface as a failed job.
func (w *Worker) updateAggregate(ctx context.Context, jobID string, allowFailed bool, log zerolog.Logger) {
	job, err := w.repo.GetByID(ctx, jobID)
	if err != nil {
		log.Warn().Err(err).Msg("worker: load job for aggregate failed")
		return
	}
	if job.Status.Terminal() {
		return
	}
	status := job.AggregateStatus()
	if status == domain.JobStatusFailed && !allowFailed {
		status = job.Status
	}
	if status == domain.JobStatusPending {
		// Never regress a job the orchestrator already marked PROCESSING.
		status = job.Status
	}
	if err := w.repo.SetAggregate(ctx, jobID, status, job.AggregateProgress()); err != nil {
		log.Warn().Err(err).Msg("worker: aggregate write failed")
	}
}

// chainNext dispatches a pending item whose only dependency is the type that
// just completed, skipping the round-trip through the orchestrator. Items with
// several dependencies stay orchestrator-owned; joining concurrent completions
// belongs there. Returns the chained item type, or "" when nothing was chained.
func (w *Worker) chainNext(ctx context.Context, task *queue.TaskPayload, log zerolog.Logger) string {
	job, err := w.repo.GetByID(ctx, task.JobID)
	if err != nil {
		log.Warn().Err(err).Msg("worker: load job for chaining failed")
		return ""
	}
	if job.Status.Terminal() {
		return ""
	}

	types := make([]domain.ItemType, 0, len(job.Items))
	for _, it := range job.Items {
		types = append(types, it.Type)
	}
	p := pipeline.CreateDynamicPipeline(types)

	for i, it := range job.Items {
		if it.Status != domain.ItemStatusPending {
			continue
		}
		step := p.Step(it.Type)
		if step == nil || len(step.DependsOn) != 1 || step.DependsOn[0] != task.ItemType {
			continue
		}
		queueName, err := queue.ForItemType(it.Type)
		if err != nil {
			continue
		}
		// Flip before enqueue so the orchestrator's next scan cannot dispatch
		// the same item again.
		if err := w.repo.SetItemState(ctx, job.ID, i, domain.ItemStatusProcessing, 0, nil, ""); err != nil {
			log.Warn().Err(err).Int("next_index", i).Msg("worker: mark chained item processing failed")
			continue
		}
		next := &queue.TaskPayload{
			JobID:           job.ID,
			ItemIndex:       i,
			ItemType:        it.Type,
			Config:          it.Config,
			SourceImageURL:  job.SourceImageURL,
			Product:         job.Product,
			PromptTemplate:  step.PromptTemplate,
			PreviousResults: previousResultsFor(step, job),
		}
		if _, err := w.queues.EnqueueTask(ctx, queueName, next); err != nil {
			log.Warn().Err(err).Int("next_index", i).Str("next_type", string(it.Type)).Msg("worker: chained dispatch failed")
			// Hand the item back so the orchestrator dispatches it instead.
			if rerr := w.repo.SetItemState(ctx, job.ID, i, domain.ItemStatusPending, 0, nil, ""); rerr != nil {
				log.Warn().Err(rerr).Int("next_index", i).Msg("worker: reset chained item failed")
			}
			continue
		}
		log.Info().Int("next_index", i).Str("next_type", string(it.Type)).Str("queue", queueName).Msg("worker: chained follow-on task")
		return string(it.Type)
	}
	return ""
}

// previousResultsFor assembles the dependency outputs a chained step consumes
// from the completed items already persisted on the job.
func previousResultsFor(step *pipeline.Step, job *domain.Job) queue.PreviousResults {
	var prev queue.PreviousResults
	for _, dep := range step.DependsOn {
		for _, it := range job.Items {
			if it.Type == dep && it.Status == domain.ItemStatusCompleted {
				prev.Merge(dep, it.Result)
			}
		}
	}
	return prev
}

func (w *Worker) publish(ctx context.Context, res *queue.StepResult, log zerolog.Logger) {
	if _, err := w.queues.PublishResult(ctx, res); err != nil {
		log.Error().Err(err).Msg("worker: publish result failed")
	}
}
