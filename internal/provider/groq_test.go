package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroqTestServer(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGroqClient(GroqConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	})
}

func TestGroqGenerate_SendsRolesAndJSONMode(t *testing.T) {
	var got groqRequest
	client := newGroqTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"response\":\"hi\"}"}}]}`))
	})

	out, err := client.Generate(context.Background(), Prompt{System: "persona", User: "question", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"response":"hi"}`, out)

	assert.Equal(t, DefaultGroqModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, groqMessage{Role: "system", Content: "persona"}, got.Messages[0])
	assert.Equal(t, groqMessage{Role: "user", Content: "question"}, got.Messages[1])
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, 1024, got.MaxTokens)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestGroqGenerate_PlainTextOmitsResponseFormat(t *testing.T) {
	var raw map[string]any
	client := newGroqTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"plain"}}]}`))
	})

	out, err := client.Generate(context.Background(), Prompt{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
	assert.NotContains(t, raw, "response_format")
}

func TestGroqGenerate_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newGroqTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"second try"}}]}`))
	})

	out, err := client.Generate(context.Background(), Prompt{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "second try", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGroqGenerate_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newGroqTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	})

	_, err := client.Generate(context.Background(), Prompt{User: "u"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, GroqName, statusErr.Provider)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGroqGenerate_EmptyChoices(t *testing.T) {
	client := newGroqTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Generate(context.Background(), Prompt{User: "u"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGroqGenerate_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := NewGroqClient(GroqConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 50 * time.Millisecond, MaxRetries: 1})
	_, err := client.Generate(context.Background(), Prompt{User: "u"})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPromptCombined(t *testing.T) {
	assert.Equal(t, "sys\n\nuser", Prompt{System: "sys", User: "user"}.Combined())
	assert.Equal(t, "user", Prompt{User: "user"}.Combined())
}
