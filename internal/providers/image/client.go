// Package image calls the external image enhancement API: submit an edit
// task, poll until terminal, return the generated image URLs.
package image

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
var ErrMissingAPIKey = errors.New("image: api key is required")

// Options configures the image enhancement client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
	Poll           polling.Options
}

// Client performs HTTP calls to the image enhancement API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
	poll       polling.Options
}

// EnhanceRequest captures the inputs for one enhanced-images task.
type EnhanceRequest struct {
	SourceImageURL string
	Style          string
	Background     string
	AspectRatio    string
	Count          int
	RequestID      string
}

type submitRequest struct {
	Model       string `json:"model"`
	ImageURL    string `json:"image_url"`
	Style       string `json:"style,omitempty"`
	Background  string `json:"background,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	N           int    `json:"n"`
	RequestID   string `json:"request_id,omitempty"`
}

type submitResponse struct {
	TaskID  string `json:"task_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type taskResponse struct {
	Status    string   `json:"status"` // pending, processing, succeeded, failed
	ImageURLs []string `json:"image_urls"`
	Error     string   `json:"error"`
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
		baseURL = "https://api.imagery.example.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "enhance-pro-1"
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
		poll:       opts.Poll,
	}, nil
}

// Enhance submits the edit task and polls it to completion, returning the
// generated image URLs.
func (c *Client) Enhance(ctx context.Context, req EnhanceRequest) ([]string, error) {
	taskID, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("task_id", taskID).Str("request_id", req.RequestID).Msg("image: task submitted")

	return polling.Poll(ctx, c.poll, func(ctx context.Context) ([]string, bool, error) {
		task, err := c.taskStatus(ctx, taskID)
		if err != nil {
			return nil, false, err
		}
		switch task.Status {
		case "succeeded":
			return task.ImageURLs, true, nil
		case "failed":
			return nil, false, fmt.Errorf("%w: image: task %s failed: %s", domain.ErrProviderFailure, taskID, task.Error)
		default:
			return nil, false, nil
		}
	})
}

func (c *Client) submit(ctx context.Context, req EnhanceRequest) (string, error) {
	body, err := json.Marshal(submitRequest{
		Model:       c.model,
		ImageURL:    req.SourceImageURL,
		Style:       req.Style,
		Background:  req.Background,
		AspectRatio: req.AspectRatio,
		N:           req.Count,
		RequestID:   req.RequestID,
	})
	if err != nil {
		return "", fmt.Errorf("image: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/edits", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("image: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("image: submit: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("image: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("%w: image: submit returned %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var sr submitResponse
	if err := json.Unmarshal(data, &sr); err != nil {
		return "", fmt.Errorf("image: decode response: %w", err)
	}
	if sr.TaskID == "" {
		return "", fmt.Errorf("%w: image: submit rejected: %s %s", domain.ErrProviderFailure, sr.Code, sr.Message)
	}
	return sr.TaskID, nil
}

func (c *Client) taskStatus(ctx context.Context, taskID string) (*taskResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return nil, fmt.Errorf("image: build status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image: poll: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: image: poll returned %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var task taskResponse
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("image: decode status: %w", err)
	}
	return &task, nil
}
