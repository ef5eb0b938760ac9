package worker

import (
	"context"
	"fmt"

	"github.com/ceelsoin/productify-next-sub000/internal/storage"
)

// rehost copies a provider-hosted artifact into our own storage and returns
// the durable URL. Provider URLs expire; anything persisted on a job item
// must outlive them.
func rehost(ctx context.Context, store storage.ObjectStore, url, filename, contentType string) (string, error) {
	data, err := store.Download(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch artifact: %w", err)
	}
	hosted, err := store.Upload(ctx, data, filename, contentType, true)
	if err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	return hosted, nil
}
