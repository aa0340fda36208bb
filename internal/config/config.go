/*
Package config reads the process configuration from the environment. A local .env
file is loaded automatically; API keys that are absent from the environment can be
resolved from Secret Manager.
*/
package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

// Config is built once at startup and never mutated afterwards.
type Config struct {
	Port int

	PersonaPath          string
	CatalogPath          string
	CatalogEquipmentTags bool
	StructuredOutput     bool

	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string

	GeminiAPIKey          string
	GeminiModel           string
	GeminiBaseURL         string
	GeminiSafetyThreshold string

	ProviderTimeout    time.Duration
	ProviderMaxRetries int

	ReplyCacheSize int
	ReplyCacheTTL  time.Duration

	LogLevel  string
	LogFormat string

	GCPProject string
}

// SecretSource looks up a named secret. It returns "" with an error when unavailable.
type SecretSource interface {
	GetSecret(ctx context.Context, projectID, name string) (string, error)
}

// Load reads the environment. Missing API keys are looked up through secrets when
// a GCP project is configured; a failed lookup leaves the key empty.
func Load(ctx context.Context, secrets SecretSource) *Config {
	cfg := &Config{
		Port: envInt("PORT", 8080),

		PersonaPath:          envString("PERSONA_PATH", "persona.txt"),
		CatalogPath:          envString("CATALOG_PATH", "exercises.json"),
		CatalogEquipmentTags: envBool("CATALOG_EQUIPMENT_TAGS", true),
		StructuredOutput:     envBool("STRUCTURED_OUTPUT", true),

		GroqAPIKey:  strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		GroqModel:   os.Getenv("GROQ_MODEL"),
		GroqBaseURL: os.Getenv("GROQ_BASE_URL"),

		GeminiAPIKey:          strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:           os.Getenv("GEMINI_MODEL"),
		GeminiBaseURL:         os.Getenv("GEMINI_BASE_URL"),
		GeminiSafetyThreshold: os.Getenv("GEMINI_SAFETY_THRESHOLD"),

		ProviderTimeout:    envDuration("PROVIDER_TIMEOUT", 30*time.Second),
		ProviderMaxRetries: envInt("PROVIDER_MAX_RETRIES", 2),

		ReplyCacheSize: envInt("REPLY_CACHE_SIZE", 0),
		ReplyCacheTTL:  envDuration("REPLY_CACHE_TTL", 5*time.Minute),

		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),

		GCPProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}

	if cfg.GCPProject != "" && secrets != nil {
		cfg.GroqAPIKey = resolveSecret(ctx, secrets, cfg.GCPProject, "GROQ_API_KEY", cfg.GroqAPIKey)
		cfg.GeminiAPIKey = resolveSecret(ctx, secrets, cfg.GCPProject, "GEMINI_API_KEY", cfg.GeminiAPIKey)
	}

	return cfg
}

func resolveSecret(ctx context.Context, secrets SecretSource, project, name, current string) string {
	if current != "" {
		return current
	}
	val, err := secrets.GetSecret(ctx, project, name)
	if err != nil {
		log.Warn().Err(err).Str("secret", name).Msg("Could not resolve secret from Secret Manager")
		return ""
	}
	return strings.TrimSpace(val)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
