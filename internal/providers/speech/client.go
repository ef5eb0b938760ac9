// Package speech calls the external text-to-speech API for voice-overs and
// its caption-alignment endpoint for timed captions.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ceelsoin/productify-next-sub000/internal/domain"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/polling"
)

// ErrMissingAPIKey indicates the client was configured without credentials.
var ErrMissingAPIKey = errors.New("speech: api key is required")

// Options configures the speech client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
	Poll           polling.Options
}

// Client performs HTTP calls to the speech API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	poll       polling.Options
}

// SynthesizeRequest captures the inputs for one voice-over task.
type SynthesizeRequest struct {
	Text      string
	Voice     string
	Locale    string
	Speed     float64
	RequestID string
}

// Synthesis is the terminal output of a TTS task.
type Synthesis struct {
	AudioURL        string  `json:"audio_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// CaptionsRequest aligns caption cues against a synthesized audio track.
type CaptionsRequest struct {
	AudioURL  string
	Text      string
	Format    string // "srt" or "vtt"
	Locale    string
	RequestID string
}

type ttsSubmitResponse struct {
	TaskID  string `json:"task_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ttsTaskResponse struct {
	Status          string  `json:"status"`
	AudioURL        string  `json:"audio_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error"`
}

type captionsResponse struct {
	Content string `json:"content"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.voicecraft.example.com/v1"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		poll:       opts.Poll,
	}, nil
}

// Synthesize submits a TTS task and polls it to completion.
func (c *Client) Synthesize(ctx context.Context, req SynthesizeRequest) (*Synthesis, error) {
	payload := map[string]any{
		"text":       req.Text,
		"voice":      req.Voice,
		"locale":     req.Locale,
		"speed":      req.Speed,
		"request_id": req.RequestID,
	}
	var submit ttsSubmitResponse
	if err := c.post(ctx, "/tts", payload, &submit); err != nil {
		return nil, err
	}
	if submit.TaskID == "" {
		return nil, fmt.Errorf("%w: speech: tts rejected: %s %s", domain.ErrProviderFailure, submit.Code, submit.Message)
	}
	c.logger.Debug().Str("task_id", submit.TaskID).Str("request_id", req.RequestID).Msg("speech: tts submitted")

	return polling.Poll(ctx, c.poll, func(ctx context.Context) (*Synthesis, bool, error) {
		var task ttsTaskResponse
		if err := c.get(ctx, "/tts/"+submit.TaskID, &task); err != nil {
			return nil, false, err
		}
		switch task.Status {
		case "succeeded":
			return &Synthesis{AudioURL: task.AudioURL, DurationSeconds: task.DurationSeconds}, true, nil
		case "failed":
			return nil, false, fmt.Errorf("%w: speech: tts task %s failed: %s", domain.ErrProviderFailure, submit.TaskID, task.Error)
		default:
			return nil, false, nil
		}
	})
}

// Captions returns a caption file body aligned with the audio track.
func (c *Client) Captions(ctx context.Context, req CaptionsRequest) (string, error) {
	payload := map[string]any{
		"audio_url":  req.AudioURL,
		"text":       req.Text,
		"format":     req.Format,
		"locale":     req.Locale,
		"request_id": req.RequestID,
	}
	var res captionsResponse
	if err := c.post(ctx, "/captions", payload, &res); err != nil {
		return "", err
	}
	if res.Content == "" {
		return "", fmt.Errorf("%w: speech: empty captions: %s %s", domain.ErrProviderFailure, res.Code, res.Message)
	}
	return res.Content, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("speech: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("speech: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("speech: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(httpReq, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("speech: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: speech: %s returned %d: %s", domain.ErrProviderFailure, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("speech: decode response: %w", err)
	}
	return nil
}
