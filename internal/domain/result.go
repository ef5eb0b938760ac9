package domain

// Typed result payloads persisted in JobItem.Result once an item completes.
// Workers reference storage URLs, never raw bytes.

// ImagesResult is the enhanced-images output.
type ImagesResult struct {
	URLs []string `json:"urls"`
}

// TextResult is the viral-copy / product-description output.
type TextResult struct {
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// AudioResult is the voice-over output.
type AudioResult struct {
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// CaptionsResult is the captions output.
type CaptionsResult struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

// VideoResult is the promotional-video output.
type VideoResult struct {
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"duration_seconds"`
}
