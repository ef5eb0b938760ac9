package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/domain/itemcfg"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/image"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
	"github.com/ceelsoin/productify-next-sub000/internal/storage"
)

// ImageProcessor produces the enhanced product shots every other visual step
// builds on.
type ImageProcessor struct {
	provider *image.Client
	store    storage.ObjectStore
}

func NewImageProcessor(provider *image.Client, store storage.ObjectStore) *ImageProcessor {
	return &ImageProcessor{provider: provider, store: store}
}

func (p *ImageProcessor) Process(ctx context.Context, task *queue.TaskPayload, progress ProgressFunc) (json.RawMessage, error) {
	var cfg itemcfg.EnhancedImagesConfig
	if len(task.Config) > 0 {
		if err := json.Unmarshal(task.Config, &cfg); err != nil {
			return nil, fmt.Errorf("decode enhanced-images config: %w", err)
		}
	}
	cfg.Normalize()
	if task.SourceImageURL == "" {
		return nil, fmt.Errorf("enhanced-images: source image url is required")
	}

	progress(10)
	urls, err := p.provider.Enhance(ctx, image.EnhanceRequest{
		SourceImageURL: task.SourceImageURL,
		Style:          cfg.Style,
		Background:     cfg.Background,
		AspectRatio:    cfg.AspectRatio,
		Count:          cfg.Count,
		RequestID:      fmt.Sprintf("%s-%d", task.JobID, task.ItemIndex),
	})
	if err != nil {
		return nil, fmt.Errorf("enhance images: %w", err)
	}
	progress(70)

	hosted := make([]string, 0, len(urls))
	for i, u := range urls {
		h, err := rehost(ctx, p.store, u, fmt.Sprintf("enhanced-%d.png", i+1), "image/png")
		if err != nil {
			return nil, err
		}
		hosted = append(hosted, h)
		progress(70 + (i+1)*30/len(urls))
	}

	return json.Marshal(domain.ImagesResult{URLs: hosted})
}
