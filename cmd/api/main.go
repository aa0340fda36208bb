package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"GainsGuide_AI/internal/assets"
	"GainsGuide_AI/internal/coachservice"
	"GainsGuide_AI/internal/config"
	"GainsGuide_AI/internal/provider"
	"GainsGuide_AI/internal/server"
	"GainsGuide_AI/internal/utility"
	"github.com/rs/zerolog/log"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	utility.CloseAllClients()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// buildProviders returns the provider chain in priority order: Groq, then Gemini.
// Providers without an API key are left out.
func buildProviders(ctx context.Context, cfg *config.Config) []provider.Provider {
	var providers []provider.Provider

	if cfg.GroqAPIKey != "" {
		providers = append(providers, provider.NewGroqClient(provider.GroqConfig{
			APIKey:     cfg.GroqAPIKey,
			BaseURL:    cfg.GroqBaseURL,
			Model:      cfg.GroqModel,
			Timeout:    cfg.ProviderTimeout,
			MaxRetries: cfg.ProviderMaxRetries,
		}))
		log.Info().Msg("Groq API key loaded (primary provider enabled)")
	} else {
		log.Warn().Msg("GROQ_API_KEY not set, primary provider disabled")
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := provider.NewGeminiClient(ctx, provider.GeminiConfig{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			BaseURL:         cfg.GeminiBaseURL,
			SafetyThreshold: cfg.GeminiSafetyThreshold,
			Timeout:         cfg.ProviderTimeout,
		})
		if err != nil {
			log.Error().Err(err).Msg("Could not initialize Gemini fallback provider")
		} else {
			providers = append(providers, gemini)
			log.Info().Msg("Gemini API key loaded (fallback provider enabled)")
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, fallback provider disabled")
	}

	if len(providers) == 0 {
		log.Error().Msg("No AI provider API key found, every chat request will fail until one is configured")
	}
	return providers
}

func main() {
	ctx := context.Background()

	cfg := config.Load(ctx, config.SecretManager{})
	utility.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	reader := assets.NewReader()
	defer reader.Close()

	knowledge := coachservice.LoadKnowledge(ctx, reader, coachservice.KnowledgeSources{
		PersonaPath: cfg.PersonaPath,
		CatalogPath: cfg.CatalogPath,
		Catalog:     coachservice.CatalogOptions{EquipmentTags: cfg.CatalogEquipmentTags},
		Structured:  cfg.StructuredOutput,
	})

	coach := coachservice.NewService(knowledge, buildProviders(ctx, cfg), coachservice.Options{
		CacheSize: cfg.ReplyCacheSize,
		CacheTTL:  cfg.ReplyCacheTTL,
	})

	// Groq with its retries, then a single Gemini call.
	providerBudget := provider.AttemptBudget(cfg.ProviderTimeout, cfg.ProviderMaxRetries) +
		provider.AttemptBudget(cfg.ProviderTimeout, 1)
	apiServer := server.NewServer(cfg.Port, coach, providerBudget)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	log.Info().Int("port", cfg.Port).Msg("Gains & Guide AI coach server listening")
	err := apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
