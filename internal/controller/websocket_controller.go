package controller

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benbeisheim/tapchess-backend/internal/service"
	"github.com/benbeisheim/tapchess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

type WebSocketController struct {
	gameService *service.GameService
	logger      *zap.Logger
}

func NewWebSocketController(gameService *service.GameService, logger *zap.Logger) *WebSocketController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketController{
		gameService: gameService,
		logger:      logger,
	}
}

// HandleConnection serves one player's live game connection until it closes.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID, _ := c.Locals("playerID").(string)
	logger := wsc.logger.With(zap.String("game_id", gameID), zap.String("player_id", playerID))

	session, err := wsc.gameService.GetSession(gameID)
	if err != nil {
		logger.Warn("websocket for unknown game", zap.Error(err))
		c.Close()
		return
	}

	if err := session.RegisterConnection(playerID, c); err != nil {
		if !errors.Is(err, service.ErrConnectionExists) {
			logger.Warn("failed to register connection", zap.Error(err))
			c.Close()
		}
		return
	}
	defer session.UnregisterConnection(playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.Debug("read loop ended", zap.Error(err))
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Debug("parse error", zap.Error(err))
			wsc.sendError(session, c, "malformed message")
			continue
		}

		if err := wsc.handleMessage(session, playerID, msg); err != nil {
			logger.Debug("handle error", zap.String("type", string(msg.Type)), zap.Error(err))
			wsc.sendError(session, c, err.Error())
		}
	}
}

func (wsc *WebSocketController) handleMessage(session *service.Session, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeTap:
		var tap ws.TapPayload
		if err := json.Unmarshal(msg.Payload, &tap); err != nil {
			return fmt.Errorf("invalid tap payload: %w", err)
		}
		return session.Tap(playerID, tap.Row, tap.Col)
	case ws.MessageTypeUndo:
		return session.Undo(playerID)
	case ws.MessageTypeNewGame:
		return session.NewGame(playerID)
	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

func (wsc *WebSocketController) sendError(session *service.Session, c service.Conn, errorMsg string) {
	msg, err := ws.NewMessage(ws.MessageTypeError, ws.ErrorPayload{Error: errorMsg})
	if err != nil {
		return
	}
	if err := session.Send(c, msg); err != nil {
		wsc.logger.Debug("failed to send error", zap.Error(err))
	}
}

// HandleMatchmaking waits for the player's match and sends it as a single matchFound message.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID, _ := c.Locals("playerID").(string)
	ch := wsc.gameService.RegisterMatchmakingChannel(playerID)
	// a client that goes away before its match is found also leaves the queue
	defer wsc.gameService.UnregisterMatchmakingChannel(playerID, ch)

	// a read pump is needed to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			// replaced by a newer registration
			return
		}
		msg, err := ws.NewMessage(ws.MessageTypeMatchFound, event)
		if err != nil {
			return
		}
		if err := c.WriteJSON(msg); err != nil {
			wsc.logger.Debug("failed to send match", zap.String("player_id", playerID), zap.Error(err))
		}
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match found"))
	case <-closed:
	}
}
