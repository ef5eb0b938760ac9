// Package queue provides the durable task queues between the orchestrator and
// the typed workers, built on Redis Streams with consumer groups.
//
// Each worker type consumes one stream; a dedicated result stream carries
// completion reports back to the orchestrator. Failed deliveries stay pending
// and are reclaimed with exponential backoff until the attempt budget is
// spent, after which the message moves to a dead-letter stream.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	fieldKind    = "kind"
	fieldPayload = "payload"

	kindTask   = "task"
	kindResult = "result"
)

// Config holds connection and delivery policy for the queue client.
type Config struct {
	URL           string
	Password      string
	ConsumerGroup string
	// BlockMs is how long a read blocks waiting for a message.
	BlockMs int
	// MaxAttempts is the delivery budget before a message is dead-lettered.
	MaxAttempts int
	// RetryBackoff is the base redelivery delay; attempt n waits
	// RetryBackoff * 2^(n-1).
	RetryBackoff time.Duration
	// CompletedRetention bounds how long acknowledged entries stay on a
	// stream before Clean trims them.
	CompletedRetention time.Duration
	// FailedRetention bounds dead-letter stream retention.
	FailedRetention time.Duration
}

func (c *Config) applyDefaults() {
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "productify-workers"
	}
	if c.BlockMs == 0 {
		c.BlockMs = 5000
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 2 * time.Second
	}
	if c.CompletedRetention == 0 {
		c.CompletedRetention = 24 * time.Hour
	}
	if c.FailedRetention == 0 {
		c.FailedRetention = 7 * 24 * time.Hour
	}
}

// Message is one delivery read from a stream.
type Message struct {
	ID      string
	Queue   string
	Kind    string
	Payload []byte
	// Attempt is the delivery count for this message, starting at 1.
	Attempt int
	// Final reports whether this is the last attempt before dead-lettering.
	Final bool
}

// Task decodes the message payload as a TaskPayload.
func (m *Message) Task() (*TaskPayload, error) {
	var t TaskPayload
	if err := json.Unmarshal(m.Payload, &t); err != nil {
		return nil, fmt.Errorf("decode task payload: %w", err)
	}
	return &t, nil
}

// Result decodes the message payload as a StepResult.
func (m *Message) Result() (*StepResult, error) {
	var r StepResult
	if err := json.Unmarshal(m.Payload, &r); err != nil {
		return nil, fmt.Errorf("decode step result: %w", err)
	}
	return &r, nil
}

// Client wraps Redis Streams operations for the task queue system.
type Client struct {
	rdb      *redis.Client
	cfg      Config
	workerID string
}

// NewClient constructs a client; callers must Connect before use.
func NewClient(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:      cfg,
		workerID: fmt.Sprintf("productify-%s", uuid.New().String()[:8]),
	}
}

// WorkerID returns the consumer name used within the consumer group.
func (c *Client) WorkerID() string { return c.workerID }

// MaxAttempts returns the configured delivery budget.
func (c *Client) MaxAttempts() int { return c.cfg.MaxAttempts }

// Connect establishes and verifies the Redis connection.
func (c *Client) Connect(ctx context.Context) error {
	opts, err := redis.ParseURL(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	if c.cfg.Password != "" {
		opts.Password = c.cfg.Password
	}
	c.rdb = redis.NewClient(opts)
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	return nil
}

// Close disconnects from Redis.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// EnsureConsumerGroups idempotently creates the consumer group on each stream.
func (c *Client) EnsureConsumerGroups(ctx context.Context, queues []string) error {
	for _, q := range queues {
		err := c.rdb.XGroupCreateMkStream(ctx, q, c.cfg.ConsumerGroup, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("create consumer group on %s: %w", q, err)
		}
	}
	return nil
}

// EnqueueTask pushes a task onto the queue for its item type and returns the
// stream entry id.
func (c *Client) EnqueueTask(ctx context.Context, queueName string, task *TaskPayload) (string, error) {
	return c.add(ctx, queueName, kindTask, task)
}

// PublishResult pushes a step result onto the orchestrator result queue.
func (c *Client) PublishResult(ctx context.Context, res *StepResult) (string, error) {
	return c.add(ctx, ResultQueue, kindResult, res)
}

func (c *Client) add(ctx context.Context, queueName, kind string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	id, err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: queueName,
		Values: map[string]any{
			fieldKind:    kind,
			fieldPayload: string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue on %s: %w", queueName, err)
	}
	return id, nil
}

// Read returns the next deliverable message on the queue, or nil when none is
// available within the block timeout. Retried messages are reclaimed first,
// but only once their backoff window has elapsed; new messages come after.
func (c *Client) Read(ctx context.Context, queueName string) (*Message, error) {
	if paused, err := c.IsPaused(ctx, queueName); err == nil && paused {
		// Hold the consumer for the idle-read window so a paused queue is
		// re-checked at the same cadence as an empty one, not in a hot loop.
		select {
		case <-time.After(time.Duration(c.cfg.BlockMs) * time.Millisecond):
		case <-ctx.Done():
		}
		return nil, nil
	}

	if msg, err := c.reclaim(ctx, queueName); err != nil || msg != nil {
		return msg, err
	}

	streams, err := c.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.ConsumerGroup,
		Consumer: c.workerID,
		Streams:  []string{queueName, ">"},
		Count:    1,
		Block:    time.Duration(c.cfg.BlockMs) * time.Millisecond,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("read from %s: %w", queueName, err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}
	return c.parse(queueName, streams[0].Messages[0], 1)
}

// reclaim picks up pending messages whose idle time exceeds the backoff for
// their delivery count. Attempt n becomes eligible after backoff * 2^(n-1).
func (c *Client) reclaim(ctx context.Context, queueName string) (*Message, error) {
	pending, err := c.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: queueName,
		Group:  c.cfg.ConsumerGroup,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("list pending on %s: %w", queueName, err)
	}

	for _, p := range pending {
		attempt := int(p.RetryCount)
		if attempt < 1 {
			attempt = 1
		}
		if p.Idle < c.backoffFor(attempt) {
			continue
		}
		claimed, err := c.rdb.XClaim(ctx, &redis.XClaimArgs{
			Stream:   queueName,
			Group:    c.cfg.ConsumerGroup,
			Consumer: c.workerID,
			MinIdle:  c.backoffFor(attempt),
			Messages: []string{p.ID},
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("claim %s on %s: %w", p.ID, queueName, err)
		}
		if len(claimed) == 0 {
			continue // another consumer claimed it first
		}
		// Claiming bumps the delivery count.
		return c.parse(queueName, claimed[0], attempt+1)
	}
	return nil, nil
}

func (c *Client) backoffFor(attempt int) time.Duration {
	d := c.cfg.RetryBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

func (c *Client) parse(queueName string, msg redis.XMessage, attempt int) (*Message, error) {
	m := &Message{
		ID:      msg.ID,
		Queue:   queueName,
		Attempt: attempt,
		Final:   attempt >= c.cfg.MaxAttempts,
	}
	if kind, ok := msg.Values[fieldKind].(string); ok {
		m.Kind = kind
	}
	payload, ok := msg.Values[fieldPayload].(string)
	if !ok {
		return nil, fmt.Errorf("message %s on %s has no payload", msg.ID, queueName)
	}
	m.Payload = []byte(payload)
	return m, nil
}

// Ack acknowledges a processed message.
func (c *Client) Ack(ctx context.Context, queueName, messageID string) error {
	return c.rdb.XAck(ctx, queueName, c.cfg.ConsumerGroup, messageID).Err()
}

// MoveToDLQ copies an exhausted message onto the queue's dead-letter stream
// and acknowledges the original.
func (c *Client) MoveToDLQ(ctx context.Context, m *Message, reason string) error {
	err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: DLQName(m.Queue),
		Values: map[string]any{
			"original_message_id": m.ID,
			"original_queue":      m.Queue,
			"reason":              reason,
			"moved_at":            time.Now().UTC().Format(time.RFC3339),
			"worker_id":           c.workerID,
			fieldPayload:          string(m.Payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("dead-letter %s from %s: %w", m.ID, m.Queue, err)
	}
	return c.Ack(ctx, m.Queue, m.ID)
}

// Stats describes one queue's backlog.
type Stats struct {
	Length  int64 `json:"length"`
	Pending int64 `json:"pending"`
	DLQ     int64 `json:"dlq"`
}

// QueueStats returns backlog statistics for the given queues.
func (c *Client) QueueStats(ctx context.Context, queues []string) (map[string]Stats, error) {
	out := make(map[string]Stats, len(queues))
	for _, q := range queues {
		length, err := c.rdb.XLen(ctx, q).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("xlen %s: %w", q, err)
		}
		var pendingCount int64
		if summary, err := c.rdb.XPending(ctx, q, c.cfg.ConsumerGroup).Result(); err == nil {
			pendingCount = summary.Count
		}
		dlqLen, err := c.rdb.XLen(ctx, DLQName(q)).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("xlen %s: %w", DLQName(q), err)
		}
		out[q] = Stats{Length: length, Pending: pendingCount, DLQ: dlqLen}
	}
	return out, nil
}

func pauseKey(queueName string) string { return "queue:paused:" + queueName }

// Pause stops consumers from reading the queue until Resume.
func (c *Client) Pause(ctx context.Context, queueName string) error {
	return c.rdb.Set(ctx, pauseKey(queueName), "1", 0).Err()
}

// Resume re-enables a paused queue.
func (c *Client) Resume(ctx context.Context, queueName string) error {
	return c.rdb.Del(ctx, pauseKey(queueName)).Err()
}

// IsPaused reports whether the queue is administratively paused.
func (c *Client) IsPaused(ctx context.Context, queueName string) (bool, error) {
	n, err := c.rdb.Exists(ctx, pauseKey(queueName)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clean trims stream entries past their retention window: acknowledged task
// entries after CompletedRetention, dead-letter entries after FailedRetention.
// Stream entry ids embed a millisecond timestamp, so a minid trim expresses
// "drop everything older than the cutoff".
func (c *Client) Clean(ctx context.Context, queues []string) error {
	now := time.Now()
	for _, q := range queues {
		completedCutoff := now.Add(-c.cfg.CompletedRetention).UnixMilli()
		if err := c.rdb.XTrimMinID(ctx, q, fmt.Sprintf("%d-0", completedCutoff)).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("trim %s: %w", q, err)
		}
		failedCutoff := now.Add(-c.cfg.FailedRetention).UnixMilli()
		if err := c.rdb.XTrimMinID(ctx, DLQName(q), fmt.Sprintf("%d-0", failedCutoff)).Err(); err != nil && err != redis.Nil {
			return fmt.Errorf("trim %s: %w", DLQName(q), err)
		}
	}
	return nil
}
