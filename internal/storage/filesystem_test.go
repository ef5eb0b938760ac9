package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	data := []byte("fake png bytes")
	url, err := store.Upload(context.Background(), data, "enhanced-1.png", "image/png", true)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/static/") {
		t.Fatalf("Upload() url = %q, want base URL prefix", url)
	}
	if !strings.HasSuffix(url, "/enhanced-1.png") {
		t.Fatalf("Upload() url = %q, want filename suffix", url)
	}

	got, err := store.Download(context.Background(), url)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("Download() = %q, want %q", got, data)
	}
}

func TestDownloadFetchesRemoteURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote asset"))
	}))
	defer srv.Close()

	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	got, err := store.Download(context.Background(), srv.URL+"/voice-over.mp3")
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if string(got) != "remote asset" {
		t.Fatalf("Download() = %q, want remote asset", got)
	}
}

func TestDownloadReportsRemoteErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	if _, err := store.Download(context.Background(), srv.URL+"/missing.mp4"); err == nil {
		t.Fatalf("Download() = nil error for 404 response, want error")
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ab12cd34/promo.mp4", "ab12cd34/promo.mp4", false},
		{"/leading/slash.png", "leading/slash.png", false},
		{"./dotted/key.srt", "dotted/key.srt", false},
		{"a\\b\\c.txt", "a/b/c.txt", false},
		{"../escape.txt", "", true},
		{"a/../../escape.txt", "", true},
		{"   ", "", true},
	}
	for _, tt := range tests {
		got, err := sanitizeKey(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("sanitizeKey(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
