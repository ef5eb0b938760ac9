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

// VoiceProcessor narrates whichever copy the pipeline produced. Viral copy
// wins over the product description when both are available.
type VoiceProcessor struct {
	provider *speech.Client
	store    storage.ObjectStore
}

func NewVoiceProcessor(provider *speech.Client, store storage.ObjectStore) *VoiceProcessor {
	return &VoiceProcessor{provider: provider, store: store}
}

func (p *VoiceProcessor) Process(ctx context.Context, task *queue.TaskPayload, progress ProgressFunc) (json.RawMessage, error) {
	var cfg itemcfg.VoiceOverConfig
	if len(task.Config) > 0 {
		if err := json.Unmarshal(task.Config, &cfg); err != nil {
			return nil, fmt.Errorf("decode voice-over config: %w", err)
		}
	}
	cfg.Normalize()

	script := task.PreviousResults.ViralCopy
	if script == "" {
		script = task.PreviousResults.ProductDescription
	}
	if script == "" {
		return nil, fmt.Errorf("voice-over: no upstream copy to narrate")
	}

	progress(10)
	syn, err := p.provider.Synthesize(ctx, speech.SynthesizeRequest{
		Text:      script,
		Voice:     cfg.Voice,
		Locale:    cfg.Locale,
		Speed:     cfg.Speed,
		RequestID: fmt.Sprintf("%s-%d", task.JobID, task.ItemIndex),
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize voice-over: %w", err)
	}
	progress(80)

	hosted, err := rehost(ctx, p.store, syn.AudioURL, "voice-over.mp3", "audio/mpeg")
	if err != nil {
		return nil, err
	}

	return json.Marshal(domain.AudioResult{URL: hosted, DurationSeconds: syn.DurationSeconds})
}
