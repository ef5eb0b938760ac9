package queue

import (
	"encoding/json"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

// PreviousResults bundles whatever dependency outputs are available when an
// item is dispatched. Each worker reads only the fields it understands;
// fields for absent dependencies are simply omitted.
type PreviousResults struct {
	EnhancedImages     []string `json:"enhanced_images,omitempty"`
	ViralCopy          string   `json:"viral_copy,omitempty"`
	ProductDescription string   `json:"product_description,omitempty"`
	VoiceOverURL       string   `json:"voice_over_url,omitempty"`
	VoiceOverDuration  float64  `json:"voice_over_duration,omitempty"`
	CaptionsURL        string   `json:"captions_url,omitempty"`
	CaptionsFormat     string   `json:"captions_format,omitempty"`
}

// Merge decodes one dependency's persisted result into the matching fields.
// Unknown types and undecodable payloads are ignored; the consuming worker
// treats absent fields as absent dependencies.
func (p *PreviousResults) Merge(t domain.ItemType, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	switch t {
	case domain.ItemEnhancedImages:
		var r domain.ImagesResult
		if json.Unmarshal(raw, &r) == nil {
			p.EnhancedImages = r.URLs
		}
	case domain.ItemViralCopy:
		var r domain.TextResult
		if json.Unmarshal(raw, &r) == nil {
			p.ViralCopy = r.Text
		}
	case domain.ItemProductDescription:
		var r domain.TextResult
		if json.Unmarshal(raw, &r) == nil {
			p.ProductDescription = r.Text
		}
	case domain.ItemVoiceOver:
		var r domain.AudioResult
		if json.Unmarshal(raw, &r) == nil {
			p.VoiceOverURL = r.URL
			p.VoiceOverDuration = r.DurationSeconds
		}
	case domain.ItemCaptions:
		var r domain.CaptionsResult
		if json.Unmarshal(raw, &r) == nil {
			p.CaptionsURL = r.URL
			p.CaptionsFormat = r.Format
		}
	}
}

// TaskPayload is the unit of work the orchestrator pushes onto a typed queue.
type TaskPayload struct {
	JobID           string             `json:"job_id"`
	ItemIndex       int                `json:"item_index"`
	ItemType        domain.ItemType    `json:"item_type"`
	Config          json.RawMessage    `json:"config,omitempty"`
	SourceImageURL  string             `json:"source_image_url,omitempty"`
	Product         domain.ProductMeta `json:"product"`
	PromptTemplate  string             `json:"prompt_template,omitempty"`
	PreviousResults PreviousResults    `json:"previous_results"`
}

// StepResult is what a worker publishes on the result queue once an item is
// terminally done. Retries happen below this layer; the orchestrator only
// ever sees one terminal success or failure per item.
type StepResult struct {
	JobID      string          `json:"job_id"`
	ItemIndex  int             `json:"item_index"`
	ItemType   domain.ItemType `json:"item_type"`
	Success    bool            `json:"success"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	NextWorker string          `json:"next_worker,omitempty"`
}
