package server

import (
	"testing"
	"time"

	"GainsGuide_AI/internal/coachservice"
	"GainsGuide_AI/internal/provider"
	"github.com/stretchr/testify/assert"
)

func TestNewServer_WriteTimeoutCoversProviderChain(t *testing.T) {
	coach := coachservice.NewService(coachservice.Knowledge{Persona: coachservice.DefaultPersona}, nil, coachservice.Options{})

	// Groq with two attempts plus the Gemini fallback at a raised provider timeout.
	budget := provider.AttemptBudget(45*time.Second, 2) + provider.AttemptBudget(45*time.Second, 1)
	srv := NewServer(9090, coach, budget)
	assert.Equal(t, ":9090", srv.Addr)
	assert.Greater(t, srv.WriteTimeout, 135*time.Second+500*time.Millisecond)

	// Short budgets keep the default floor.
	srv = NewServer(0, coach, time.Second)
	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 2*time.Minute, srv.WriteTimeout)
}
