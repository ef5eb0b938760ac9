// Package text calls the external text-completion API used for viral copy
// and product descriptions.
package text

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
)

// ErrMissingAPIKey indicates the client was configured without credentials.
var ErrMissingAPIKey = errors.New("text: api key is required")

// Options configures the completion client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *zerolog.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the text-completion API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// CompleteRequest captures the inputs for one generation call.
type CompleteRequest struct {
	Prompt    string
	Locale    string
	Tone      string
	MaxWords  int
	RequestID string
}

type completionRequest struct {
	Model     string  `json:"model"`
	Prompt    string  `json:"prompt"`
	Locale    string  `json:"locale,omitempty"`
	Tone      string  `json:"tone,omitempty"`
	MaxWords  int     `json:"max_words,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
	MaxTokens int     `json:"max_tokens,omitempty"`
	Temp      float64 `json:"temperature,omitempty"`
}

type completionResponse struct {
	Text    string `json:"text"`
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
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.copywriter.example.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "copy-large-2"
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
	}, nil
}

// Complete generates text for the prompt and returns it with a word count.
func (c *Client) Complete(ctx context.Context, req CompleteRequest) (string, int, error) {
	body, err := json.Marshal(completionRequest{
		Model:     c.model,
		Prompt:    req.Prompt,
		Locale:    req.Locale,
		Tone:      req.Tone,
		MaxWords:  req.MaxWords,
		RequestID: req.RequestID,
		Temp:      0.8,
	})
	if err != nil {
		return "", 0, fmt.Errorf("text: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("text: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("text: complete: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("text: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: text: complete returned %d: %s", domain.ErrProviderFailure, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var cr completionResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return "", 0, fmt.Errorf("text: decode response: %w", err)
	}
	if cr.Text == "" {
		return "", 0, fmt.Errorf("%w: text: empty completion: %s %s", domain.ErrProviderFailure, cr.Code, cr.Message)
	}
	return cr.Text, len(strings.Fields(cr.Text)), nil
}
