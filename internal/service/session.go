package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/tapchess-backend/internal/model"
	"github.com/benbeisheim/tapchess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Conn is the part of a websocket connection a session writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.Mutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

// Session hosts one engine game together with its seats and observers.
type Session struct {
	ID          string
	game        *model.Game
	opMu        sync.Mutex // serialises turn check and engine call
	mu          sync.Mutex
	seats       Seats
	connections *GameConnections
	logger      *zap.Logger
	unsubscribe func()
	lastActive  time.Time // guarded by mu
}

type Seats struct {
	White *model.Seat `json:"white"`
	Black *model.Seat `json:"black"`
}

// SessionState is what clients render: the engine state plus who sits where.
type SessionState struct {
	GameID string `json:"gameId"`
	model.GameState
	Players Seats `json:"players"`
}

func NewSession(id string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		ID:          id,
		game:        model.NewGame(),
		connections: NewGameConnections(),
		logger:      logger.With(zap.String("game_id", id)),
		lastActive:  time.Now(),
	}
	s.unsubscribe = s.game.Subscribe(func(model.GameState) {
		s.broadcastState()
	})
	return s
}

func (s *Session) Game() *model.Game {
	return s.game
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// IdleFor reports how long the session has gone without a move or a connection change as of now.
// A session with a live connection is never idle.
func (s *Session) IdleFor(now time.Time) time.Duration {
	if s.ConnectionCount() > 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if idle := now.Sub(s.lastActive); idle > 0 {
		return idle
	}
	return 0
}

// AddPlayer seats playerID in the first free colour. Joining again returns the colour already held.
func (s *Session) AddPlayer(playerID string) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActive = time.Now()
	if colors := s.colorsOf(playerID); len(colors) > 0 {
		return colors[0], nil
	}
	if s.seats.White == nil {
		s.seats.White = &model.Seat{ID: playerID, Color: model.White}
		return model.White, nil
	}
	if s.seats.Black == nil {
		s.seats.Black = &model.Seat{ID: playerID, Color: model.Black}
		return model.Black, nil
	}
	return "", ErrGameFull
}

// SeatBoth gives playerID both colours for a single-device game.
func (s *Session) SeatBoth(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seats.White != nil || s.seats.Black != nil {
		return ErrGameFull
	}
	s.seats.White = &model.Seat{ID: playerID, Color: model.White}
	s.seats.Black = &model.Seat{ID: playerID, Color: model.Black}
	return nil
}

func (s *Session) colorsOf(playerID string) []model.Player {
	var colors []model.Player
	if s.seats.White != nil && s.seats.White.ID == playerID {
		colors = append(colors, model.White)
	}
	if s.seats.Black != nil && s.seats.Black.ID == playerID {
		colors = append(colors, model.Black)
	}
	return colors
}

func (s *Session) IsPlayerInGame(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.colorsOf(playerID)) > 0
}

func (s *Session) CanSpectate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seats.White == nil || s.seats.Black == nil
}

// Tap forwards a board tap from a seated player whose colour is to move.
func (s *Session) Tap(playerID string, row, col int) error {
	s.mu.Lock()
	colors := s.colorsOf(playerID)
	s.mu.Unlock()

	if len(colors) == 0 {
		return ErrNotSeated
	}

	s.touch()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	toMove := s.game.CurrentPlayer()
	for _, c := range colors {
		if c == toMove {
			changed := s.game.Tap(row, col)
			s.logger.Debug("tap",
				zap.String("player_id", playerID),
				zap.Int("row", row),
				zap.Int("col", col),
				zap.Bool("changed", changed),
			)
			return nil
		}
	}
	return ErrNotYourTurn
}

func (s *Session) Undo(playerID string) error {
	if !s.IsPlayerInGame(playerID) {
		return ErrNotSeated
	}
	s.touch()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	undone := s.game.UndoMove()
	s.logger.Debug("undo", zap.String("player_id", playerID), zap.Bool("undone", undone))
	return nil
}

func (s *Session) NewGame(playerID string) error {
	if !s.IsPlayerInGame(playerID) {
		return ErrNotSeated
	}
	s.touch()
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.game.Reset()
	s.logger.Info("game reset", zap.String("player_id", playerID))
	return nil
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	seats := Seats{}
	if s.seats.White != nil {
		w := *s.seats.White
		seats.White = &w
	}
	if s.seats.Black != nil {
		b := *s.seats.Black
		seats.Black = &b
	}
	s.mu.Unlock()

	return SessionState{
		GameID:    s.ID,
		GameState: s.game.GetState(),
		Players:   seats,
	}
}

func (s *Session) RegisterConnection(playerID string, conn Conn) error {
	isAuthorized := s.IsPlayerInGame(playerID) || s.CanSpectate()
	if !isAuthorized {
		return ErrNotAuthorized
	}

	s.connections.mu.Lock()
	if _, exists := s.connections.connections[playerID]; exists {
		// keep the healthy connection, reject the newcomer
		s.connections.mu.Unlock()
		if err := conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Connection already exists"),
		); err != nil {
			s.logger.Debug("failed to send close to duplicate connection", zap.String("player_id", playerID), zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			s.logger.Debug("failed to close duplicate connection", zap.String("player_id", playerID), zap.Error(err))
		}
		return ErrConnectionExists
	}
	s.connections.connections[playerID] = conn
	s.connections.mu.Unlock()
	s.touch()

	s.logger.Info("connection registered", zap.String("player_id", playerID), zap.String("conn", fmt.Sprintf("%p", conn)))
	s.broadcastState()
	return nil
}

// UnregisterConnection removes conn if it is still the player's current connection.
func (s *Session) UnregisterConnection(playerID string, conn Conn) {
	s.connections.mu.Lock()
	current, exists := s.connections.connections[playerID]
	if exists && current == conn {
		delete(s.connections.connections, playerID)
	}
	s.connections.mu.Unlock()

	if exists && current == conn {
		s.touch()
		s.logger.Info("connection unregistered", zap.String("player_id", playerID))
	}
}

func (s *Session) ConnectionCount() int {
	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()
	return len(s.connections.connections)
}

// broadcastState pushes the latest state to every connection. Writes are serialised by the
// connections lock, and the state is read inside it so the last write is always current.
func (s *Session) broadcastState() {
	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()

	if len(s.connections.connections) == 0 {
		return
	}
	payload, err := json.Marshal(s.State())
	if err != nil {
		s.logger.Error("failed to marshal state", zap.Error(err))
		return
	}
	msg := ws.Message{Type: ws.MessageTypeGameState, Payload: payload}

	for playerID, conn := range s.connections.connections {
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Warn("failed to send state", zap.String("player_id", playerID), zap.Error(err))
			delete(s.connections.connections, playerID)
			continue
		}
	}
}

// Close stops broadcasting and drops every connection.
func (s *Session) Close() {
	s.unsubscribe()

	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()
	for playerID, conn := range s.connections.connections {
		if err := conn.Close(); err != nil {
			s.logger.Debug("failed to close connection", zap.String("player_id", playerID), zap.Error(err))
		}
		delete(s.connections.connections, playerID)
	}
}

// Send writes msg to conn, serialised with broadcasts.
func (s *Session) Send(conn Conn, msg ws.Message) error {
	s.connections.mu.Lock()
	defer s.connections.mu.Unlock()
	return conn.WriteJSON(msg)
}
