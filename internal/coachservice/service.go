/*
Package coachservice builds the coaching prompt from persona text and the exercise
catalog, asks the configured providers in order and normalizes whatever answers.
*/
package coachservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"GainsGuide_AI/internal/provider"
	"github.com/rs/zerolog"
)

var (
	// ErrNotConfigured means no provider has an API key.
	ErrNotConfigured = errors.New("no AI provider API key is configured")

	// ErrAllProvidersFailed means every configured provider returned an error.
	ErrAllProvidersFailed = errors.New("all AI providers failed")

	// ErrInvalidRequest means the chat request cannot be sent as is.
	ErrInvalidRequest = errors.New("invalid chat request")
)

// ChatRequest is one coaching question. Context carries the caller's workout history.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
	Context string `json:"context"`
}

// ChatResponse is the normalized answer. Routine is null when the model gave none.
type ChatResponse struct {
	Response string          `json:"response"`
	Routine  json.RawMessage `json:"routine"`
	Engine   string          `json:"engine,omitempty"`
}

// Options tunes the service.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
}

// Service answers chat requests. It is safe for concurrent use.
type Service struct {
	knowledge Knowledge
	providers []provider.Provider
	cache     *replyCache
}

// NewService wires the startup knowledge to an ordered provider chain.
func NewService(k Knowledge, providers []provider.Provider, opts Options) *Service {
	return &Service{
		knowledge: k,
		providers: providers,
		cache:     newReplyCache(opts.CacheSize, opts.CacheTTL),
	}
}

// Knowledge returns the prompt material the service was built with.
func (s *Service) Knowledge() Knowledge { return s.knowledge }

// ProviderNames lists the provider chain in the order it is tried.
func (s *Service) ProviderNames() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// CachedReplies is the number of responses currently held by the reply cache.
func (s *Service) CachedReplies() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.len()
}

// Chat answers one request, falling through the provider chain on failure.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	log := zerolog.Ctx(ctx)

	if len(s.providers) == 0 {
		log.Error().Msg("Chat rejected: no AI provider API key configured")
		return ChatResponse{}, ErrNotConfigured
	}
	if strings.TrimSpace(req.Message) == "" {
		return ChatResponse{}, fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}

	log.Info().
		Str("user_id", req.UserID).
		Str("message", preview(req.Message, 20)).
		Msg("Chat request received")

	// Provider calls run to completion even if the client goes away.
	callCtx := context.WithoutCancel(ctx)

	if s.cache == nil {
		return s.ask(callCtx, req)
	}

	resp, shared, err := s.cache.do(cacheKey(req), func() (ChatResponse, error) {
		return s.ask(callCtx, req)
	})
	if err == nil && shared {
		log.Debug().Str("engine", resp.Engine).Msg("Served chat reply from cache")
	}
	return resp, err
}

// ask walks the provider chain and returns the first successful answer.
func (s *Service) ask(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	log := zerolog.Ctx(ctx)
	prompt := BuildPrompt(s.knowledge, req)

	var lastErr error
	for i, p := range s.providers {
		start := time.Now()
		raw, err := p.Generate(ctx, prompt)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", p.Name(), err)
			event := log.Warn()
			if i == len(s.providers)-1 {
				event = log.Error()
			}
			event.Err(err).Str("engine", p.Name()).Dur("elapsed", time.Since(start)).Msg("Provider call failed")
			continue
		}

		reply := NormalizeReply(raw)
		log.Info().
			Str("engine", p.Name()).
			Dur("elapsed", time.Since(start)).
			Bool("routine", reply.Routine != nil).
			Msg("Chat reply generated")

		return ChatResponse{
			Response: reply.Response,
			Routine:  reply.Routine,
			Engine:   p.Name(),
		}, nil
	}

	return ChatResponse{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, lastErr)
}

// preview shortens s to n runes for log lines.
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
