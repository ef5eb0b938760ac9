package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/domain/itemcfg"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/speech"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
	"github.com/ceelsoin/productify-next-sub000/internal/storage"
)

// CaptionsProcessor aligns caption cues against the finished voice-over track.
type CaptionsProcessor struct {
	provider *speech.Client
	store    storage.ObjectStore
}

func NewCaptionsProcessor(provider *speech.Client, store storage.ObjectStore) *CaptionsProcessor {
	return &CaptionsProcessor{provider: provider, store: store}
}

func (p *CaptionsProcessor) Process(ctx context.Context, task *queue.TaskPayload, progress ProgressFunc) (json.RawMessage, error) {
	var cfg itemcfg.CaptionsConfig
	if len(task.Config) > 0 {
		if err := json.Unmarshal(task.Config, &cfg); err != nil {
			return nil, fmt.Errorf("decode captions config: %w", err)
		}
	}
	cfg.Normalize()

	if task.PreviousResults.VoiceOverURL == "" {
		return nil, fmt.Errorf("captions: no voice-over audio to align against")
	}
	script := task.PreviousResults.ViralCopy
	if script == "" {
		script = task.PreviousResults.ProductDescription
	}

	progress(10)
	content, err := p.provider.Captions(ctx, speech.CaptionsRequest{
		AudioURL:  task.PreviousResults.VoiceOverURL,
		Text:      script,
		Format:    cfg.Format,
		Locale:    cfg.Locale,
		RequestID: fmt.Sprintf("%s-%d", task.JobID, task.ItemIndex),
	})
	if err != nil {
		return nil, fmt.Errorf("generate captions: %w", err)
	}
	progress(80)

	contentType := "application/x-subrip"
	if cfg.Format == "vtt" {
		contentType = "text/vtt"
	}
	url, err := p.store.Upload(ctx, []byte(content), "captions."+cfg.Format, contentType, true)
	if err != nil {
		return nil, fmt.Errorf("store captions: %w", err)
	}

	return json.Marshal(domain.CaptionsResult{URL: url, Format: cfg.Format})
}
