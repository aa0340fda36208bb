package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"GainsGuide_AI/internal/coachservice"
	"GainsGuide_AI/internal/provider"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Generate(context.Context, provider.Prompt) (string, error) {
	p.calls++
	return p.reply, p.err
}

func newTestEcho(providers ...provider.Provider) *echo.Echo {
	k := coachservice.Knowledge{Persona: coachservice.DefaultPersona, Structured: true}
	s := &Server{
		coach:     coachservice.NewService(k, providers, coachservice.Options{}),
		startTime: time.Now(),
	}
	return s.RegisterRoutes()
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	rec := doJSON(newTestEcho(), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online", body["status"])
	assert.NotEmpty(t, body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	newTestEcho().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestChat_StructuredReply(t *testing.T) {
	groq := &stubProvider{name: "groq", reply: `{"response":"Do 3x10 squats","routine":{"day1":["squat"]}}`}
	rec := doJSON(newTestEcho(groq), http.MethodPost, "/chat", `{"user_id":"u1","message":"루틴 짜줘"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, `{"response":"Do 3x10 squats","routine":{"day1":["squat"]},"engine":"groq"}`, rec.Body.String())
}

func TestChat_PlainTextReplyHasNullRoutine(t *testing.T) {
	groq := &stubProvider{name: "groq", reply: "Keep your core tight."}
	rec := doJSON(newTestEcho(groq), http.MethodPost, "/chat", `{"user_id":"u1","message":"plank tips","context":"plank 30s"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, `{"response":"Keep your core tight.","routine":null,"engine":"groq"}`, rec.Body.String())
}

func TestChat_FallbackEngine(t *testing.T) {
	groq := &stubProvider{name: "groq", err: errors.New("boom")}
	gemini := &stubProvider{name: "gemini", reply: "fallback text"}
	rec := doJSON(newTestEcho(groq, gemini), http.MethodPost, "/chat", `{"user_id":"u1","message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body coachservice.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fallback text", body.Response)
	assert.Equal(t, "gemini", body.Engine)
	assert.Equal(t, 1, gemini.calls)
}

func TestChat_NoProviderConfigured(t *testing.T) {
	rec := doJSON(newTestEcho(), http.MethodPost, "/chat", `{"user_id":"u1","message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Detail, "API key")
}

func TestChat_AllProvidersFailHidesInternals(t *testing.T) {
	groq := &stubProvider{name: "groq", err: errors.New("secret-token gsk_123 rejected")}
	rec := doJSON(newTestEcho(groq), http.MethodPost, "/chat", `{"user_id":"u1","message":"hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.NotContains(t, rec.Body.String(), "gsk_123")
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, detailProviderFailed, body.Detail)
}

func TestChat_Validation(t *testing.T) {
	e := newTestEcho(&stubProvider{name: "groq", reply: "x"})

	rec := doJSON(e, http.MethodPost, "/chat", `{"user_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(e, http.MethodPost, "/chat", `{"user_id":"u1","message":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// An empty user_id is still a user_id.
	rec = doJSON(e, http.MethodPost, "/chat", `{"user_id":"","message":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_RejectsOversizedBody(t *testing.T) {
	groq := &stubProvider{name: "groq", reply: "x"}
	body := `{"user_id":"u1","message":"` + strings.Repeat("a", maxSocketMessageBytes+1) + `"}`

	rec := doJSON(newTestEcho(groq), http.MethodPost, "/chat", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, 0, groq.calls)
}

func TestHealth(t *testing.T) {
	rec := doJSON(newTestEcho(&stubProvider{name: "groq"}, &stubProvider{name: "gemini"}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Coach  struct {
			Providers     []string `json:"providers"`
			CatalogLoaded bool     `json:"catalog_loaded"`
		} `json:"coach"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online", body.Status)
	assert.Equal(t, []string{"groq", "gemini"}, body.Coach.Providers)
	assert.False(t, body.Coach.CatalogLoaded)
}

func TestChatSocket(t *testing.T) {
	groq := &stubProvider{name: "groq", reply: `{"response":"socket reply"}`}
	srv := httptest.NewServer(newTestEcho(groq))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(coachservice.ChatRequest{UserID: "u1", Message: "hi"}))
	var resp coachservice.ChatResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "socket reply", resp.Response)
	assert.Equal(t, "groq", resp.Engine)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var errResp ErrorResponse
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.Equal(t, detailInvalidBody, errResp.Detail)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"no user"}`)))
	require.NoError(t, conn.ReadJSON(&errResp))
	assert.Equal(t, detailMissingUserID, errResp.Detail)
}

func TestChatSocket_ClosesOnOversizedFrame(t *testing.T) {
	groq := &stubProvider{name: "groq", reply: "x"}
	srv := httptest.NewServer(newTestEcho(groq))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	big := `{"user_id":"u1","message":"` + strings.Repeat("a", maxSocketMessageBytes) + `"}`
	err = conn.WriteMessage(websocket.TextMessage, []byte(big))
	if err == nil {
		_, _, err = conn.ReadMessage()
	}
	require.Error(t, err)
	assert.Equal(t, 0, groq.calls)
}
