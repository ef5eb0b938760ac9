// Package storage persists generated artifacts and resolves them back for
// dependent workers. Workers pass URLs between each other, never raw bytes.
package storage

import "context"

// ObjectStore is the narrow contract the workers depend on.
type ObjectStore interface {
	// Upload persists data under filename and returns a URL that dependent
	// workers and end users can fetch.
	Upload(ctx context.Context, data []byte, filename, contentType string, public bool) (string, error)
	// Download fetches the artifact behind a URL produced by Upload or by an
	// external provider.
	Download(ctx context.Context, url string) ([]byte, error)
}
