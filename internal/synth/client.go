package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "llama-3.1-8b-instant"

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv = "GROQ_API_KEY"

	defaultTimeout     = 60 * time.Second
	defaultTemperature = 0.1
	defaultMaxTokens   = 1024

	// Groq's free tier allows 30 requests/minute; stay under it.
	defaultRateLimit = rate.Limit(0.5)
	defaultBurstSize = 2
)

// Completer sends chat messages to a text-generation service and returns
// the assistant's reply text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
	Retryable  bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// ClientOptions configures a Client. Zero values select defaults.
type ClientOptions struct {
	BaseURL string
	Model   string

	// Temperature is a pointer so an explicit 0 (greedy decoding) is kept.
	Temperature *float64
	MaxTokens   int
	Timeout     time.Duration

	// RateLimit caps requests per second; Burst is the limiter's bucket size.
	RateLimit rate.Limit
	Burst     int

	// HTTPClient overrides the transport, e.g. in tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is an OpenAI-compatible chat completions client.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

var _ Completer = (*Client)(nil)

// NewClient creates a client authenticating with apiKey.
func NewClient(apiKey string, opts ClientOptions) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		model:       opts.Model,
		temperature: defaultTemperature,
		maxTokens:   opts.MaxTokens,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if opts.Temperature != nil {
		c.temperature = *opts.Temperature
	}
	if c.maxTokens == 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	limit, burst := opts.RateLimit, opts.Burst
	if limit == 0 {
		limit = defaultRateLimit
	}
	if burst == 0 {
		burst = defaultBurstSize
	}
	c.rateLimiter = rate.NewLimiter(limit, burst)
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete posts messages to /chat/completions in JSON mode and returns the
// first choice's content. An empty choices list yields "".
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	req, err := c.createRequest(ctx, chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	c.logger.Debug("chat completion",
		"model", c.model,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", parseError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	c.logger.Debug("token usage",
		"prompt", out.Usage.PromptTokens,
		"completion", out.Usage.CompletionTokens)

	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}

// createRequest builds an authenticated JSON POST request.
func (c *Client) createRequest(ctx context.Context, body chatRequest) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

// parseError converts an error response. 429 and 5xx are retryable.
func parseError(resp *http.Response) error {
	retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status, Retryable: retryable}
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error.Message, Retryable: retryable}
	}

	message := resp.Status
	if raw := strings.TrimSpace(string(body)); raw != "" {
		message = fmt.Sprintf("%s (raw: %s)", resp.Status, truncate(raw, 500))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message, Retryable: retryable}
}
