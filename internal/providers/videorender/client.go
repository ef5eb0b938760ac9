// Package videorender calls the external video rendering API that assembles
// the promotional video from the other generated assets.
package videorender

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
var ErrMissingAPIKey = errors.New("videorender: api key is required")

// Options configures the render client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
	Poll           polling.Options
}

// Client performs HTTP calls to the render API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
	poll       polling.Options
}

// RenderRequest captures the inputs for one promotional-video task.
type RenderRequest struct {
	ImageURLs     []string
	Script        string
	AudioURL      string
	CaptionsURL   string
	LengthSeconds int
	AspectRatio   string
	Music         string
	RequestID     string
}

// Render is the terminal output of a render task.
type Render struct {
	VideoURL        string  `json:"video_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type submitResponse struct {
	RenderID string `json:"render_id"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

type renderTaskResponse struct {
	Status          string  `json:"status"`
	VideoURL        string  `json:"video_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error"`
}

// NewClient constructs a client with sane defaults. Render polling defaults
// are inherited from polling.Options (5s cadence, ~10 minute budget), which
// matches how long renders actually take.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.renderfarm.example.com/v1"
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

// Render submits the render task and polls it to completion.
func (c *Client) Render(ctx context.Context, req RenderRequest) (*Render, error) {
	renderID, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("render_id", renderID).Str("request_id", req.RequestID).Msg("videorender: render submitted")

	return polling.Poll(ctx, c.poll, func(ctx context.Context) (*Render, bool, error) {
		task, err := c.renderStatus(ctx, renderID)
		if err != nil {
			return nil, false, err
		}
		switch task.Status {
		case "succeeded":
			return &Render{VideoURL: task.VideoURL, DurationSeconds: task.DurationSeconds}, true, nil
		case "failed":
			return nil, false, fmt.Errorf("%w: videorender: render %s failed: %s", domain.ErrProviderFailure, renderID, task.Error)
		default:
			return nil, false, nil
		}
	})
}

func (c *Client) submit(ctx context.Context, req RenderRequest) (string, error) {
	body, err := json.Marshal(map[string]any{
		"image_urls":     req.ImageURLs,
		"script":         req.Script,
		"audio_url":      req.AudioURL,
		"captions_url":   req.CaptionsURL,
		"length_seconds": req.LengthSeconds,
		"aspect_ratio":   req.AspectRatio,
		"music":          req.Music,
		"request_id":     req.RequestID,
	})
	if err != nil {
		return "", fmt.Errorf("videorender: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/renders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("videorender: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("videorender: submit: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("videorender: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("%w: videorender: submit returned %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var sr submitResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return "", fmt.Errorf("videorender: decode response: %w", err)
	}
	if sr.RenderID == "" {
		return "", fmt.Errorf("%w: videorender: submit rejected: %s %s", domain.ErrProviderFailure, sr.Code, sr.Message)
	}
	return sr.RenderID, nil
}

func (c *Client) renderStatus(ctx context.Context, renderID string) (*renderTaskResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/renders/"+renderID, nil)
	if err != nil {
		return nil, fmt.Errorf("videorender: build status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("videorender: poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: videorender: poll returned %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var task renderTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("videorender: decode status: %w", err)
	}
	return &task, nil
}
