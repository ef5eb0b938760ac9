package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/domain/itemcfg"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/videorender"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
	"github.com/ceelsoin/productify-next-sub000/internal/storage"
)

// VideoProcessor assembles the promotional video from every upstream output.
// Renders are the most expensive step in the system, so deployments run this
// processor with concurrency 1.
type VideoProcessor struct {
	provider *videorender.Client
	store    storage.ObjectStore
}

func NewVideoProcessor(provider *videorender.Client, store storage.ObjectStore) *VideoProcessor {
	return &VideoProcessor{provider: provider, store: store}
}

func (p *VideoProcessor) Process(ctx context.Context, task *queue.TaskPayload, progress ProgressFunc) (json.RawMessage, error) {
	var cfg itemcfg.VideoConfig
	if len(task.Config) > 0 {
		if err := json.Unmarshal(task.Config, &cfg); err != nil {
			return nil, fmt.Errorf("decode video config: %w", err)
		}
	}
	cfg.Normalize()

	prev := task.PreviousResults
	imageURLs := prev.EnhancedImages
	if len(imageURLs) == 0 && task.SourceImageURL != "" {
		// Degraded pipelines without the enhancement step still render over
		// the raw product shot.
		imageURLs = []string{task.SourceImageURL}
	}
	if len(imageURLs) == 0 {
		return nil, fmt.Errorf("promotional-video: no images to render")
	}

	progress(5)
	render, err := p.provider.Render(ctx, videorender.RenderRequest{
		ImageURLs:     imageURLs,
		Script:        prev.ViralCopy,
		AudioURL:      prev.VoiceOverURL,
		CaptionsURL:   prev.CaptionsURL,
		LengthSeconds: cfg.LengthSeconds,
		AspectRatio:   cfg.AspectRatio,
		Music:         cfg.Music,
		RequestID:     fmt.Sprintf("%s-%d", task.JobID, task.ItemIndex),
	})
	if err != nil {
		return nil, fmt.Errorf("render video: %w", err)
	}
	progress(85)

	hosted, err := rehost(ctx, p.store, render.VideoURL, "promo.mp4", "video/mp4")
	if err != nil {
		return nil, err
	}

	return json.Marshal(domain.VideoResult{URL: hosted, DurationSeconds: render.DurationSeconds})
}
