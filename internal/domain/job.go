package domain

import (
	"encoding/json"
	"math"
	"time"
)

// ItemType enumerates the closed set of content items a job may request.
type ItemType string

const (
	ItemEnhancedImages     ItemType = "enhanced-images"
	ItemViralCopy          ItemType = "viral-copy"
	ItemProductDescription ItemType = "product-description"
	ItemVoiceOver          ItemType = "voice-over"
	ItemCaptions           ItemType = "captions"
	ItemPromotionalVideo   ItemType = "promotional-video"
)

// AllItemTypes returns every supported item type in dependency-friendly order.
func AllItemTypes() []ItemType {
	return []ItemType{
		ItemEnhancedImages,
		ItemViralCopy,
		ItemProductDescription,
		ItemVoiceOver,
		ItemCaptions,
		ItemPromotionalVideo,
	}
}

// Valid reports whether t is one of the supported item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemEnhancedImages, ItemViralCopy, ItemProductDescription,
		ItemVoiceOver, ItemCaptions, ItemPromotionalVideo:
		return true
	default:
		return false
	}
}

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
	JobStatusRefunded   JobStatus = "REFUNDED"
)

// Terminal reports whether the status ends a job's lifecycle.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled, JobStatusRefunded:
		return true
	default:
		return false
	}
}

// ItemStatus enumerates per-item lifecycle states.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "PENDING"
	ItemStatusProcessing ItemStatus = "PROCESSING"
	ItemStatusCompleted  ItemStatus = "COMPLETED"
	ItemStatusFailed     ItemStatus = "FAILED"
)

// ProductMeta carries the user-supplied product context handed to every worker.
type ProductMeta struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// JobItem is one requested content type within a job. Items are addressed by
// their index in Job.Items; the index is stable for the life of the job.
type JobItem struct {
	Type     ItemType        `json:"type"`
	Credits  int             `json:"credits"`
	Config   json.RawMessage `json:"config,omitempty"`
	Status   ItemStatus      `json:"status"`
	Progress int             `json:"progress"`
	Result   json.RawMessage `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Job is a user-submitted unit of work: an ordered list of generation items
// plus the credit accounting attached to them.
//
// Invariant: CreditsRefunded <= CreditsSpent <= TotalCredits.
type Job struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	SourceImageURL  string      `json:"source_image_url"`
	Product         ProductMeta `json:"product"`
	Items           []JobItem   `json:"items"`
	TotalCredits    int         `json:"total_credits"`
	CreditsSpent    int         `json:"credits_spent"`
	CreditsRefunded int         `json:"credits_refunded"`
	Status          JobStatus   `json:"status"`
	Progress        int         `json:"progress"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	StartedAt       *time.Time  `json:"started_at,omitempty"`
	CompletedAt     *time.Time  `json:"completed_at,omitempty"`
	FailedAt        *time.Time  `json:"failed_at,omitempty"`
	RefundedAt      *time.Time  `json:"refunded_at,omitempty"`
}

// AggregateProgress is the rounded arithmetic mean of item progress values.
func (j *Job) AggregateProgress() int {
	if len(j.Items) == 0 {
		return 0
	}
	sum := 0
	for _, it := range j.Items {
		sum += it.Progress
	}
	return int(math.Round(float64(sum) / float64(len(j.Items))))
}

// AggregateStatus derives the job status from its item statuses: COMPLETED if
// every item completed, FAILED if any item failed, PROCESSING if any item is
// in flight, PENDING otherwise.
func (j *Job) AggregateStatus() JobStatus {
	if len(j.Items) == 0 {
		return JobStatusPending
	}
	completed := 0
	processing := false
	for _, it := range j.Items {
		switch it.Status {
		case ItemStatusFailed:
			return JobStatusFailed
		case ItemStatusCompleted:
			completed++
		case ItemStatusProcessing:
			processing = true
		}
	}
	if completed == len(j.Items) {
		return JobStatusCompleted
	}
	if processing {
		return JobStatusProcessing
	}
	return JobStatusPending
}

// CompletedItems counts items in the COMPLETED state.
func (j *Job) CompletedItems() int {
	n := 0
	for _, it := range j.Items {
		if it.Status == ItemStatusCompleted {
			n++
		}
	}
	return n
}

// ItemIndex returns the index of the first item of the given type, or -1.
// Jobs request at most one item per type, so the lookup is unambiguous.
func (j *Job) ItemIndex(t ItemType) int {
	for i, it := range j.Items {
		if it.Type == t {
			return i
		}
	}
	return -1
}
