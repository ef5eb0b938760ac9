package orchestrator

import (
	"context"

	"github.com/ceelsoin/productify-next-sub000/internal/queue"
)

// ResultHandler adapts the orchestrator to the result queue: every worker
// publishes its terminal outcome there, and this handler feeds each one into
// HandleStepComplete.
func (o *Orchestrator) ResultHandler() queue.Handler {
	return queue.HandlerFunc(func(ctx context.Context, m *queue.Message) error {
		res, err := m.Result()
		if err != nil {
			// Malformed results can never succeed on retry.
			o.logger.Error().Err(err).Str("message_id", m.ID).Msg("orchestrator: dropping malformed result")
			return nil
		}
		return o.HandleStepComplete(ctx, res)
	})
}
