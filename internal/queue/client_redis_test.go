package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

func newRedisClient(t *testing.T, blockMs int) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewClient(Config{URL: "redis://" + mr.Addr(), BlockMs: blockMs})
	ctx := context.Background()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	if err := c.EnsureConsumerGroups(ctx, []string{QueueText}); err != nil {
		t.Fatalf("EnsureConsumerGroups() error: %v", err)
	}
	return c
}

func TestReadOnPausedQueueWaitsBlockWindow(t *testing.T) {
	c := newRedisClient(t, 40)
	ctx := context.Background()

	if _, err := c.EnqueueTask(ctx, QueueText, &TaskPayload{JobID: "job-1", ItemType: domain.ItemViralCopy}); err != nil {
		t.Fatalf("EnqueueTask() error: %v", err)
	}
	if err := c.Pause(ctx, QueueText); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}

	// A paused queue must not turn consumers into a busy loop: Read holds for
	// the block window before reporting nothing.
	start := time.Now()
	msg, err := c.Read(ctx, QueueText)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if msg != nil {
		t.Fatalf("Read() on paused queue = %+v, want nil", msg)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("Read() on paused queue returned after %v, want at least the block window", elapsed)
	}

	if err := c.Resume(ctx, QueueText); err != nil {
		t.Fatalf("Resume() error: %v", err)
	}
	msg, err = c.Read(ctx, QueueText)
	if err != nil {
		t.Fatalf("Read() after resume error: %v", err)
	}
	if msg == nil {
		t.Fatal("Read() after resume returned no message")
	}
	task, err := msg.Task()
	if err != nil {
		t.Fatalf("Task() error: %v", err)
	}
	if task.JobID != "job-1" {
		t.Fatalf("task JobID = %q, want job-1", task.JobID)
	}
}

func TestReadOnPausedQueueHonorsContextCancel(t *testing.T) {
	c := newRedisClient(t, 5000)
	ctx := context.Background()

	if err := c.Pause(ctx, QueueText); err != nil {
		t.Fatalf("Pause() error: %v", err)
	}

	readCtx, cancel := context.WithCancel(ctx)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	msg, err := c.Read(readCtx, QueueText)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if msg != nil {
		t.Fatalf("Read() on paused queue = %+v, want nil", msg)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Read() ignored cancellation, returned after %v", elapsed)
	}
}
