package provider

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
)

// --- Groq API Configuration ---
const (
	GroqName           = "groq"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.1-8b-instant"
	jsonObjectFormat   = "json_object"
)

// GroqConfig holds everything needed to reach the Groq chat completions API.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// MaxRetries is the total number of attempts, including the first one.
	MaxRetries int
}

// --- Structs for Groq (OpenAI-compatible) Request/Response ---

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponseFormat struct {
	Type string `json:"type"`
}

type groqRequest struct {
	Model          string              `json:"model"`
	Messages       []groqMessage       `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens"`
	ResponseFormat *groqResponseFormat `json:"response_format,omitempty"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GroqClient is the primary, low-latency provider.
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

// NewGroqClient fills in defaults for every zero field of cfg.
func NewGroqClient(cfg GroqConfig) *GroqClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGroqBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGroqModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &GroqClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name implements Provider.
func (c *GroqClient) Name() string { return GroqName }

// Generate sends the persona as a system message and the question as a user message.
func (c *GroqClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	log := zerolog.Ctx(ctx)

	payload := groqRequest{
		Model: c.model,
		Messages: []groqMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxOutputTokens,
	}
	if prompt.JSON {
		payload.ResponseFormat = &groqResponseFormat{Type: jsonObjectFormat}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	var lastErr error

	// Exponential backoff retry loop
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, backoff(i-1)); err != nil {
				return "", classifyContextErr(ctx, lastErr)
			}
		}

		log.Debug().Str("model", c.model).Msgf("Attempt %d: Calling Groq API...", i+1)

		text, err := c.do(ctx, payloadBytes)
		if err == nil {
			return text, nil
		}
		lastErr = err
		log.Warn().Err(err).Msgf("Groq attempt %d failed", i+1)

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return "", err
		}
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrEmptyResponse) {
			return "", err
		}
	}

	return "", fmt.Errorf("failed to call Groq API after %d attempts: %w", c.maxRetries, lastErr)
}

// do performs one HTTP round trip under its own deadline.
func (c *GroqClient) do(ctx context.Context, payload []byte) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyContextErr(reqCtx, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyContextErr(reqCtx, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Provider: GroqName, Code: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	var groqResp groqResponse
	if err := json.Unmarshal(body, &groqResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if groqResp.Error != nil {
		return "", fmt.Errorf("groq API error: %s", groqResp.Error.Message)
	}
	if len(groqResp.Choices) == 0 || strings.TrimSpace(groqResp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return groqResp.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
