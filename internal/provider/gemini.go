package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// --- Gemini API Configuration ---
const (
	GeminiName         = "gemini"
	DefaultGeminiModel = "gemini-2.5-flash"
	defaultTopP        = 0.95
	defaultTopK        = 40
	structuredMimeType = "application/json"
)

// GeminiConfig holds the fallback provider settings.
type GeminiConfig struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API endpoint. Empty uses the SDK default.
	BaseURL string

	// SafetyThreshold is one of BLOCK_NONE, BLOCK_ONLY_HIGH, BLOCK_MEDIUM_AND_ABOVE,
	// BLOCK_LOW_AND_ABOVE. Empty keeps the API defaults.
	SafetyThreshold string

	Timeout time.Duration
}

// GeminiClient is the fallback provider. It only takes one concatenated prompt.
type GeminiClient struct {
	client         *genai.Client
	model          string
	timeout        time.Duration
	safetySettings []*genai.SafetySetting
}

// NewGeminiClient builds a genai client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	safety, err := SafetySettings(cfg.SafetyThreshold)
	if err != nil {
		return nil, err
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		model:          cfg.Model,
		timeout:        cfg.Timeout,
		safetySettings: safety,
	}, nil
}

// Name implements Provider.
func (g *GeminiClient) Name() string { return GeminiName }

// Generate sends System and User joined into a single user turn.
func (g *GeminiClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](DefaultTemperature),
		TopP:            genai.Ptr[float32](defaultTopP),
		TopK:            genai.Ptr[float32](defaultTopK),
		MaxOutputTokens: DefaultMaxOutputTokens,
		SafetySettings:  g.safetySettings,
	}
	if prompt.JSON {
		genCfg.ResponseMIMEType = structuredMimeType
	}

	zerolog.Ctx(ctx).Debug().Str("model", g.model).Msg("Calling Gemini API...")

	resp, err := g.client.Models.GenerateContent(reqCtx, g.model, genai.Text(prompt.Combined()), genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: GeminiName, Code: apiErr.Code, Body: truncate(apiErr.Message, 512)}
		}
		return "", classifyContextErr(reqCtx, fmt.Errorf("gemini generate failed: %w", err))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// SafetySettings expands one threshold name over the four adjustable harm categories.
func SafetySettings(threshold string) ([]*genai.SafetySetting, error) {
	var level genai.HarmBlockThreshold
	switch strings.ToUpper(strings.TrimSpace(threshold)) {
	case "":
		return nil, nil
	case "BLOCK_NONE", "NONE":
		level = genai.HarmBlockThresholdBlockNone
	case "BLOCK_ONLY_HIGH", "HIGH":
		level = genai.HarmBlockThresholdBlockOnlyHigh
	case "BLOCK_MEDIUM_AND_ABOVE", "MEDIUM":
		level = genai.HarmBlockThresholdBlockMediumAndAbove
	case "BLOCK_LOW_AND_ABOVE", "LOW":
		level = genai.HarmBlockThresholdBlockLowAndAbove
	default:
		return nil, fmt.Errorf("unknown Gemini safety threshold %q", threshold)
	}

	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, &genai.SafetySetting{Category: c, Threshold: level})
	}
	return settings, nil
}
