package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

func TestConfigDefaults(t *testing.T) {
	c := NewClient(Config{URL: "redis://localhost:6379/0"})
	if c.cfg.ConsumerGroup != "productify-workers" {
		t.Fatalf("ConsumerGroup = %q, want default", c.cfg.ConsumerGroup)
	}
	if c.cfg.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", c.cfg.MaxAttempts)
	}
	if c.cfg.RetryBackoff != 2*time.Second {
		t.Fatalf("RetryBackoff = %v, want 2s", c.cfg.RetryBackoff)
	}
	if c.cfg.CompletedRetention != 24*time.Hour {
		t.Fatalf("CompletedRetention = %v, want 24h", c.cfg.CompletedRetention)
	}
	if c.cfg.FailedRetention != 7*24*time.Hour {
		t.Fatalf("FailedRetention = %v, want 168h", c.cfg.FailedRetention)
	}
	if c.WorkerID() == "" {
		t.Fatal("WorkerID is empty")
	}
}

func TestBackoffDoublesPerAttempt(t *testing.T) {
	c := NewClient(Config{URL: "redis://localhost:6379/0"})
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := c.backoffFor(tt.attempt); got != tt.want {
			t.Fatalf("backoffFor(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestForItemTypeRoutesEveryType(t *testing.T) {
	want := map[domain.ItemType]string{
		domain.ItemEnhancedImages:     QueueImage,
		domain.ItemViralCopy:          QueueText,
		domain.ItemProductDescription: QueueText,
		domain.ItemVoiceOver:          QueueVoice,
		domain.ItemCaptions:           QueueCaptions,
		domain.ItemPromotionalVideo:   QueueVideo,
	}
	for _, it := range domain.AllItemTypes() {
		q, err := ForItemType(it)
		if err != nil {
			t.Fatalf("ForItemType(%v) returned error: %v", it, err)
		}
		if q != want[it] {
			t.Fatalf("ForItemType(%v) = %q, want %q", it, q, want[it])
		}
	}
}

func TestForItemTypeRejectsUnknown(t *testing.T) {
	if _, err := ForItemType("hologram"); err == nil {
		t.Fatal("unknown item type routed to a queue")
	}
}

func TestDLQName(t *testing.T) {
	if got := DLQName(QueueImage); got != "dlq:v1:image" {
		t.Fatalf("DLQName(%q) = %q, want dlq:v1:image", QueueImage, got)
	}
	if got := DLQName(ResultQueue); got != "dlq:v1:orchestrator-result" {
		t.Fatalf("DLQName(%q) = %q", ResultQueue, got)
	}
}

func TestMessageFinalFlag(t *testing.T) {
	c := NewClient(Config{URL: "redis://localhost:6379/0", MaxAttempts: 3})
	for attempt, wantFinal := range map[int]bool{1: false, 2: false, 3: true, 4: true} {
		m := Message{Attempt: attempt, Final: attempt >= c.MaxAttempts()}
		if m.Final != wantFinal {
			t.Fatalf("attempt %d: Final = %v, want %v", attempt, m.Final, wantFinal)
		}
	}
}

func TestMessageTaskDecode(t *testing.T) {
	payload, err := json.Marshal(&TaskPayload{
		JobID:     "job-1",
		ItemIndex: 2,
		ItemType:  domain.ItemVoiceOver,
		PreviousResults: PreviousResults{
			ViralCopy: "Buy now!",
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	m := &Message{ID: "1-0", Queue: QueueVoice, Kind: "task", Payload: payload}

	task, err := m.Task()
	if err != nil {
		t.Fatalf("Task() returned error: %v", err)
	}
	if task.JobID != "job-1" || task.ItemIndex != 2 || task.ItemType != domain.ItemVoiceOver {
		t.Fatalf("decoded task = %+v", task)
	}
	if task.PreviousResults.ViralCopy != "Buy now!" {
		t.Fatalf("previous results lost: %+v", task.PreviousResults)
	}

	if _, err := (&Message{Payload: []byte("{")}).Task(); err == nil {
		t.Fatal("malformed payload decoded without error")
	}
}
