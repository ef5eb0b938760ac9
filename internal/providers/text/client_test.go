package text

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return c
}

func TestCompleteReturnsTextAndWordCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completions" {
			t.Errorf("path = %s, want /completions", r.URL.Path)
		}
		w.Write([]byte(`{"text":"Buy the lamp today"}`))
	})

	text, words, err := c.Complete(context.Background(), CompleteRequest{Prompt: "sell a lamp"})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if text != "Buy the lamp today" || words != 4 {
		t.Fatalf("Complete() = %q/%d, want %q/4", text, words, "Buy the lamp today")
	}
}

func TestCompleteNonOKStatusIsProviderFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, _, err := c.Complete(context.Background(), CompleteRequest{Prompt: "sell a lamp"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("Complete() error = %v, want ErrProviderFailure", err)
	}
}

func TestCompleteEmptyCompletionIsProviderFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"content_filtered","message":"prompt rejected"}`))
	})

	_, _, err := c.Complete(context.Background(), CompleteRequest{Prompt: "sell a lamp"})
	if !errors.Is(err, domain.ErrProviderFailure) {
		t.Fatalf("Complete() error = %v, want ErrProviderFailure", err)
	}
}
