package coachservice

import (
	"context"
	"strings"

	"GainsGuide_AI/internal/provider"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Knowledge is the read-only prompt material built once at startup.
type Knowledge struct {
	Persona     string
	CatalogText string

	// Structured asks providers for the {"response", "routine"} JSON object.
	Structured bool
}

// KnowledgeSources says where the prompt material lives.
type KnowledgeSources struct {
	PersonaPath string
	CatalogPath string
	Catalog     CatalogOptions
	Structured  bool
}

// LoadKnowledge reads persona and catalog concurrently. It never fails: both
// loaders degrade to their defaults.
func LoadKnowledge(ctx context.Context, r AssetReader, src KnowledgeSources) Knowledge {
	k := Knowledge{Structured: src.Structured}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		k.Persona = LoadPersona(gctx, r, src.PersonaPath)
		return nil
	})
	g.Go(func() error {
		k.CatalogText = LoadCatalog(gctx, r, src.CatalogPath, src.Catalog)
		return nil
	})
	_ = g.Wait()

	log.Info().
		Bool("catalog", k.CatalogText != "").
		Bool("structured_output", k.Structured).
		Msg("Coach knowledge ready")
	return k
}

// SystemPrompt is the persona, then the mapping guide and catalog when a
// catalog is loaded, then the output format when structured output is on.
func (k Knowledge) SystemPrompt() string {
	parts := []string{k.Persona}
	if k.CatalogText != "" {
		parts = append(parts, MuscleMappingGuide, k.CatalogText)
	}
	if k.Structured {
		parts = append(parts, OutputFormatInstruction)
	}
	return strings.Join(parts, "\n\n")
}

// UserContent puts the workout history and the question under their headers.
func UserContent(req ChatRequest) string {
	return ContextHeader + "\n" + req.Context + "\n\n" + QuestionHeader + "\n" + req.Message
}

// BuildPrompt assembles the provider request for one chat call.
func BuildPrompt(k Knowledge, req ChatRequest) provider.Prompt {
	return provider.Prompt{
		System: k.SystemPrompt(),
		User:   UserContent(req),
		JSON:   k.Structured,
	}
}
