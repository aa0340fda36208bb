package server

import (
	"encoding/json"
	"net/http"

	"GainsGuide_AI/internal/utility"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// chatSocketHandler serves the chat operation over a WebSocket. Every text frame
// is one ChatRequest; every reply frame is a ChatResponse or an ErrorResponse.
// Frames are answered in the order they arrive.
func (s *Server) chatSocketHandler(c echo.Context) error {
	log := utility.GetLoggerFromContext(c)

	conn, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}

	conn.SetReadLimit(maxSocketMessageBytes)

	connID := uuid.New().String()
	utility.RegisterClient(connID, conn)
	defer func() {
		utility.UnregisterClient(connID)
		conn.Close()
	}()

	ctx := c.Request().Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("conn_id", connID).Msg("WebSocket read failed")
			}
			return nil
		}

		var reply interface{}
		var body chatRequestBody
		if err := json.Unmarshal(data, &body); err != nil {
			reply = ErrorResponse{Detail: detailInvalidBody}
		} else if req, ok := body.toChatRequest(); !ok {
			reply = ErrorResponse{Detail: detailMissingUserID}
		} else {
			resp, err := s.coach.Chat(ctx, req)
			if err != nil {
				status, detail := chatErrorStatus(err)
				if status >= http.StatusInternalServerError {
					log.Error().Err(err).Str("conn_id", connID).Msg("Chat over WebSocket failed")
				}
				reply = ErrorResponse{Detail: detail}
			} else {
				reply = resp
			}
		}

		if err := conn.WriteJSON(reply); err != nil {
			log.Warn().Err(err).Str("conn_id", connID).Msg("WebSocket write failed")
			return nil
		}
	}
}
