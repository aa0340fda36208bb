package coachservice

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// AssetReader fetches the raw bytes behind a configured location.
type AssetReader interface {
	Read(ctx context.Context, location string) ([]byte, error)
}

// LoadPersona returns the persona text at path, or DefaultPersona when it is
// missing, unreadable or blank. Failures are only logged.
func LoadPersona(ctx context.Context, r AssetReader, path string) string {
	data, err := r.Read(ctx, path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Persona file not available, using default persona")
		return DefaultPersona
	}

	persona := strings.TrimSpace(string(data))
	if persona == "" {
		log.Warn().Str("path", path).Msg("Persona file is empty, using default persona")
		return DefaultPersona
	}

	log.Info().Str("path", path).Int("chars", len(persona)).Msg("Persona loaded")
	return persona
}
