package server

import (
	"errors"
	"net/http"

	"GainsGuide_AI/internal/coachservice"
	"GainsGuide_AI/internal/utility"
	"github.com/labstack/echo/v4"
)

// Fixed detail messages. Provider errors never reach the client verbatim.
const (
	detailInvalidBody    = "Invalid request format"
	detailMissingUserID  = "user_id field is required"
	detailMissingMessage = "message is required"
	detailNotConfigured  = "AI provider API key is not configured on the server (set GROQ_API_KEY or GEMINI_API_KEY)"
	detailProviderFailed = "An error occurred while generating the AI coaching reply. Please try again later."
	detailInternal       = "Internal server error"
)

// Request size limits. Anything larger is rejected before it is decoded.
const (
	chatBodyLimit         = "64K"
	maxSocketMessageBytes = 64 << 10
)

// rootMessage is returned by GET /.
const rootMessage = "Gains & Guide AI Coach Server is Running! 🏋️‍♂️"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// chatRequestBody is the wire form of a chat request. user_id must be present but
// may be empty.
type chatRequestBody struct {
	UserID  *string `json:"user_id"`
	Message string  `json:"message"`
	Context string  `json:"context"`
}

// toChatRequest reports false when user_id was left out.
func (b chatRequestBody) toChatRequest() (coachservice.ChatRequest, bool) {
	if b.UserID == nil {
		return coachservice.ChatRequest{}, false
	}
	return coachservice.ChatRequest{UserID: *b.UserID, Message: b.Message, Context: b.Context}, true
}

func (s *Server) rootHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "online",
		"message": rootMessage,
	})
}

// chatHandler is the main entry point.
// It orchestrates: Validation -> Prompt Assembly -> Provider Chain -> Normalization -> Response.
func (s *Server) chatHandler(c echo.Context) error {
	log := utility.GetLoggerFromContext(c)

	var body chatRequestBody
	if err := c.Bind(&body); err != nil {
		log.Warn().Err(err).Msg("Failed to bind chat request body")
		return c.JSON(http.StatusBadRequest, ErrorResponse{Detail: detailInvalidBody})
	}
	req, ok := body.toChatRequest()
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: detailMissingUserID})
	}

	resp, err := s.coach.Chat(c.Request().Context(), req)
	if err != nil {
		status, detail := chatErrorStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("user_id", req.UserID).Msg("Chat request failed")
		}
		return c.JSON(status, ErrorResponse{Detail: detail})
	}

	return c.JSON(http.StatusOK, resp)
}

// chatErrorStatus maps a service error to an HTTP status and a safe detail message.
func chatErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, coachservice.ErrInvalidRequest):
		return http.StatusUnprocessableEntity, detailMissingMessage
	case errors.Is(err, coachservice.ErrNotConfigured):
		return http.StatusInternalServerError, detailNotConfigured
	case errors.Is(err, coachservice.ErrAllProvidersFailed):
		return http.StatusInternalServerError, detailProviderFailed
	default:
		return http.StatusInternalServerError, detailInternal
	}
}
