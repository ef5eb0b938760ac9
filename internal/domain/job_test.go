package domain

import "testing"

func TestAggregateProgress(t *testing.T) {
	tests := []struct {
		name     string
		progress []int
		want     int
	}{
		{"empty", nil, 0},
		{"single", []int{40}, 40},
		{"mean", []int{0, 50, 100}, 50},
		{"rounds up", []int{0, 1}, 1},
		{"all done", []int{100, 100}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &Job{}
			for _, p := range tt.progress {
				j.Items = append(j.Items, JobItem{Progress: p})
			}
			if got := j.AggregateProgress(); got != tt.want {
				t.Fatalf("AggregateProgress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ItemStatus
		want     JobStatus
	}{
		{"empty", nil, JobStatusPending},
		{"all pending", []ItemStatus{ItemStatusPending, ItemStatusPending}, JobStatusPending},
		{"one processing", []ItemStatus{ItemStatusPending, ItemStatusProcessing}, JobStatusProcessing},
		{"partial completion still processing", []ItemStatus{ItemStatusCompleted, ItemStatusProcessing}, JobStatusProcessing},
		{"all completed", []ItemStatus{ItemStatusCompleted, ItemStatusCompleted}, JobStatusCompleted},
		{"failure wins", []ItemStatus{ItemStatusCompleted, ItemStatusFailed, ItemStatusProcessing}, JobStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &Job{}
			for _, s := range tt.statuses {
				j.Items = append(j.Items, JobItem{Status: s})
			}
			if got := j.AggregateStatus(); got != tt.want {
				t.Fatalf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCompletedItems(t *testing.T) {
	j := &Job{Items: []JobItem{
		{Status: ItemStatusCompleted},
		{Status: ItemStatusPending},
		{Status: ItemStatusCompleted},
		{Status: ItemStatusFailed},
	}}
	if got := j.CompletedItems(); got != 2 {
		t.Fatalf("CompletedItems() = %d, want 2", got)
	}
}

func TestItemIndex(t *testing.T) {
	j := &Job{Items: []JobItem{
		{Type: ItemEnhancedImages},
		{Type: ItemViralCopy},
		{Type: ItemVoiceOver},
	}}
	if got := j.ItemIndex(ItemViralCopy); got != 1 {
		t.Fatalf("ItemIndex(viral-copy) = %d, want 1", got)
	}
	if got := j.ItemIndex(ItemPromotionalVideo); got != -1 {
		t.Fatalf("ItemIndex(promotional-video) = %d, want -1", got)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusRefunded}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("%s.Terminal() = false, want true", s)
		}
	}
	for _, s := range []JobStatus{JobStatusPending, JobStatusProcessing} {
		if s.Terminal() {
			t.Fatalf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestItemTypeValid(t *testing.T) {
	for _, it := range AllItemTypes() {
		if !it.Valid() {
			t.Fatalf("%s.Valid() = false, want true", it)
		}
	}
	if ItemType("hologram").Valid() {
		t.Fatalf("unknown item type reported valid")
	}
}
