package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Handler processes one delivered message. Returning an error leaves the
// message pending so the retry/backoff policy decides its fate; the handler
// can inspect Message.Final to detect the last attempt.
type Handler interface {
	Handle(ctx context.Context, m *Message) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, m *Message) error

func (f HandlerFunc) Handle(ctx context.Context, m *Message) error { return f(ctx, m) }

// Consumer pulls messages from one queue and feeds them to a handler with a
// bounded number of in-flight messages.
type Consumer struct {
	client      *Client
	queueName   string
	handler     Handler
	concurrency int
	logger      zerolog.Logger
}

// NewConsumer builds a consumer; concurrency < 1 is treated as 1.
func NewConsumer(client *Client, queueName string, handler Handler, concurrency int, logger zerolog.Logger) *Consumer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Consumer{
		client:      client,
		queueName:   queueName,
		handler:     handler,
		concurrency: concurrency,
		logger:      logger.With().Str("queue", queueName).Logger(),
	}
}

// Run blocks until ctx is cancelled, processing messages on up to
// `concurrency` goroutines. Read errors back off exponentially up to 30s.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info().Int("concurrency", c.concurrency).Msg("queue: consumer started")

	var wg sync.WaitGroup
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.loop(ctx)
		}()
	}
	wg.Wait()

	c.logger.Info().Msg("queue: consumer stopped")
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *Consumer) loop(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := c.client.Read(ctx, c.queueName)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("queue: read failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		if msg == nil {
			continue
		}

		c.dispatch(ctx, msg)
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg *Message) {
	err := c.handler.Handle(ctx, msg)
	if err == nil {
		if ackErr := c.client.Ack(ctx, msg.Queue, msg.ID); ackErr != nil {
			c.logger.Error().Err(ackErr).Str("message_id", msg.ID).Msg("queue: ack failed")
		}
		return
	}

	c.logger.Error().Err(err).
		Str("message_id", msg.ID).
		Int("attempt", msg.Attempt).
		Msg("queue: handler failed")

	if msg.Final {
		if dlqErr := c.client.MoveToDLQ(ctx, msg, err.Error()); dlqErr != nil {
			c.logger.Error().Err(dlqErr).Str("message_id", msg.ID).Msg("queue: dead-letter failed")
		}
		return
	}
	// Not acked: stays pending and is reclaimed after its backoff window.
}
