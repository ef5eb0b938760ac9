package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/domain/itemcfg"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/text"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
)

const (
	defaultViralCopyPrompt   = "Write a short, punchy social media post that sells {{product}}. Make it energetic and shareable."
	defaultDescriptionPrompt = "Write a clear, persuasive product description for {{product}} suitable for an online store listing."
)

// TextProcessor serves both copywriting item types. The prompt template comes
// from the pipeline step when one is set, otherwise a per-type default.
type TextProcessor struct {
	provider *text.Client
}

func NewTextProcessor(provider *text.Client) *TextProcessor {
	return &TextProcessor{provider: provider}
}

func (p *TextProcessor) Process(ctx context.Context, task *queue.TaskPayload, progress ProgressFunc) (json.RawMessage, error) {
	var cfg itemcfg.CopyConfig
	if len(task.Config) > 0 {
		if err := json.Unmarshal(task.Config, &cfg); err != nil {
			return nil, fmt.Errorf("decode copy config: %w", err)
		}
	}
	cfg.Normalize()

	prompt, err := buildPrompt(task)
	if err != nil {
		return nil, err
	}

	progress(20)
	out, words, err := p.provider.Complete(ctx, text.CompleteRequest{
		Prompt:    prompt,
		Locale:    cfg.Locale,
		Tone:      cfg.Tone,
		MaxWords:  cfg.MaxWords,
		RequestID: fmt.Sprintf("%s-%d", task.JobID, task.ItemIndex),
	})
	if err != nil {
		return nil, fmt.Errorf("complete %s: %w", task.ItemType, err)
	}

	return json.Marshal(domain.TextResult{Text: out, WordCount: words})
}

// buildPrompt resolves the template for the task's type and fills in the
// product placeholder with everything known about the product.
func buildPrompt(task *queue.TaskPayload) (string, error) {
	tmpl := task.PromptTemplate
	if tmpl == "" {
		switch task.ItemType {
		case domain.ItemViralCopy:
			tmpl = defaultViralCopyPrompt
		case domain.ItemProductDescription:
			tmpl = defaultDescriptionPrompt
		default:
			return "", fmt.Errorf("text worker: unsupported item type %q", task.ItemType)
		}
	}

	var b strings.Builder
	b.WriteString(task.Product.Name)
	if task.Product.Category != "" {
		fmt.Fprintf(&b, " (%s)", task.Product.Category)
	}
	if task.Product.Description != "" {
		b.WriteString(": ")
		b.WriteString(task.Product.Description)
	}
	return strings.ReplaceAll(tmpl, "{{product}}", b.String()), nil
}
