package image

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/polling"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Poll: polling.Options{
			Interval:             time.Millisecond,
			ErrorBackoff:         time.Millisecond,
			MaxConsecutiveErrors: 1,
			MaxAttempts:          10,
		},
	})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestEnhanceReturnsImageURLs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/edits":
			w.Write([]byte(`{"task_id":"task-1"}`))
		case "/tasks/task-1":
			w.Write([]byte(`{"status":"succeeded","image_urls":["https://cdn/a.png","https://cdn/b.png"]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	urls, err := c.Enhance(context.Background(), EnhanceRequest{SourceImageURL: "https://src/x.jpg", Count: 2})
	if err != nil {
		t.Fatalf("Enhance() error: %v", err)
	}
	if len(urls) != 2 || urls[0] != "https://cdn/a.png" {
		t.Fatalf("Enhance() = %v, want 2 cdn urls", urls)
	}
}

func TestEnhanceTaskFailureIsProviderFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/edits":
			w.Write([]byte(`{"task_id":"task-1"}`))
		case "/tasks/task-1":
			w.Write([]byte(`{"status":"failed","error":"source image unreadable"}`))
		}
	})

	_, err := c.Enhance(context.Background(), EnhanceRequest{SourceImageURL: "https://src/x.jpg"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("Enhance() error = %v, want ErrProviderFailure", err)
	}
}

func TestEnhanceRejectedSubmitIsProviderFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"quota_exceeded","message":"monthly quota spent"}`))
	})

	_, err := c.Enhance(context.Background(), EnhanceRequest{SourceImageURL: "https://src/x.jpg"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("Enhance() error = %v, want ErrProviderFailure", err)
	}
}
