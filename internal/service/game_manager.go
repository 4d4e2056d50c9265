// service/game_manager.go
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbeisheim/tapchess-backend/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpiryPolicy controls when the reaper drops hosted games.
type ExpiryPolicy struct {
	// GameIdle is how long a game with no connections and no moves is kept.
	GameIdle time.Duration
	// MatchPickup is how long a match may wait for a player who is not listening.
	MatchPickup time.Duration
}

type pendingMatch struct {
	event    model.MatchFoundEvent
	parkedAt time.Time
}

type GameManager struct {
	games            map[string]*Session
	queue            *model.Queue
	matchingChannels map[string]chan model.MatchFoundEvent
	pendingMatches   map[string]pendingMatch // matches made before the player listened
	mu               sync.RWMutex
	logger           *zap.Logger
	newID            func() string
}

func NewGameManager(logger *zap.Logger) *GameManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameManager{
		games:            make(map[string]*Session),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan model.MatchFoundEvent),
		pendingMatches:   make(map[string]pendingMatch),
		logger:           logger,
		newID:            func() string { return uuid.New().String() },
	}
}

// RunMatchmaking pairs queued players every interval until ctx is cancelled.
func (gm *GameManager) RunMatchmaking(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for gm.matchOnce() {
			}
		}
	}
}

// matchOnce pairs the two longest waiting players into a new game. It reports whether a pair
// was made.
func (gm *GameManager) matchOnce() bool {
	player1, player2, ok := gm.queue.NextPair()
	if !ok {
		return false
	}

	gameID := gm.newID()
	session := NewSession(gameID, gm.logger)
	p1Color, err := session.AddPlayer(player1.PlayerID)
	if err != nil {
		gm.logger.Error("failed to seat matched player", zap.String("player_id", player1.PlayerID), zap.Error(err))
		return true
	}
	p2Color, err := session.AddPlayer(player2.PlayerID)
	if err != nil {
		gm.logger.Error("failed to seat matched player", zap.String("player_id", player2.PlayerID), zap.Error(err))
		return true
	}

	gm.mu.Lock()
	gm.games[gameID] = session
	gm.deliverMatch(player1.PlayerID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
	gm.deliverMatch(player2.PlayerID, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
	gm.mu.Unlock()

	gm.logger.Info("match found",
		zap.String("game_id", gameID),
		zap.String("white", player1.PlayerID),
		zap.String("black", player2.PlayerID),
		zap.Duration("waited", time.Since(player1.JoinedAt)),
	)
	return true
}

// deliverMatch hands the event to the player's channel, or parks it until one is registered.
// Caller holds gm.mu.
func (gm *GameManager) deliverMatch(playerID string, event model.MatchFoundEvent) {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		gm.pendingMatches[playerID] = pendingMatch{event: event, parkedAt: time.Now()}
		return
	}
	select {
	case ch <- event:
		delete(gm.matchingChannels, playerID)
		close(ch)
	default:
		gm.logger.Warn("match channel full, parking event", zap.String("player_id", playerID))
		gm.pendingMatches[playerID] = pendingMatch{event: event, parkedAt: time.Now()}
	}
}

// RegisterMatchmakingChannel returns a channel that receives the player's match exactly once and
// is then closed. A previously registered channel for the same player is closed.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string) <-chan model.MatchFoundEvent {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if existing, ok := gm.matchingChannels[playerID]; ok {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}

	ch := make(chan model.MatchFoundEvent, 1)
	if pending, ok := gm.pendingMatches[playerID]; ok {
		delete(gm.pendingMatches, playerID)
		ch <- pending.event
		close(ch)
		return ch
	}
	gm.matchingChannels[playerID] = ch
	return ch
}

// UnregisterMatchmakingChannel is called when the listener behind ch goes away. If ch is still
// the player's current channel the player is also taken out of the queue, so nobody gets matched
// against a player who stopped waiting. It reports whether ch was current.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch <-chan model.MatchFoundEvent) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	current, ok := gm.matchingChannels[playerID]
	if !ok || (<-chan model.MatchFoundEvent)(current) != ch {
		return false
	}
	delete(gm.matchingChannels, playerID)
	if gm.queue.RemovePlayer(playerID) {
		gm.logger.Info("player left queue on disconnect", zap.String("player_id", playerID))
	}
	return true
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(playerID); err != nil {
		return fmt.Errorf("join matchmaking: %w", err)
	}
	gm.logger.Info("player queued", zap.String("player_id", playerID), zap.Int("queue_size", gm.queue.Size()))
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) CreateGame(gameID string) (*Session, error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return nil, ErrGameExists
	}

	session := NewSession(gameID, gm.logger)
	gm.games[gameID] = session
	return session, nil
}

func (gm *GameManager) GetGame(gameID string) (*Session, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	session, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	return session, nil
}

func (gm *GameManager) RemoveGame(gameID string) error {
	gm.mu.Lock()
	session, exists := gm.games[gameID]
	delete(gm.games, gameID)
	for playerID, pending := range gm.pendingMatches {
		if pending.event.GameID == gameID {
			delete(gm.pendingMatches, playerID)
		}
	}
	gm.mu.Unlock()

	if !exists {
		return ErrGameNotFound
	}
	session.Close()
	return nil
}

func (gm *GameManager) GameCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

// RunReaper drops expired games every interval until ctx is cancelled.
func (gm *GameManager) RunReaper(ctx context.Context, interval time.Duration, policy ExpiryPolicy) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			gm.reapOnce(now, policy)
		}
	}
}

// reapOnce removes games whose match was never picked up and games that have sat idle with no
// connections. It returns the number of games removed.
func (gm *GameManager) reapOnce(now time.Time, policy ExpiryPolicy) int {
	stale := make(map[string]string) // gameID -> reason

	gm.mu.RLock()
	for playerID, pending := range gm.pendingMatches {
		if now.Sub(pending.parkedAt) >= policy.MatchPickup {
			stale[pending.event.GameID] = "match not picked up"
			gm.logger.Info("matched player never connected",
				zap.String("player_id", playerID),
				zap.String("game_id", pending.event.GameID),
			)
		}
	}
	for id, session := range gm.games {
		if _, ok := stale[id]; !ok && session.IdleFor(now) >= policy.GameIdle {
			stale[id] = "idle"
		}
	}
	gm.mu.RUnlock()

	removed := 0
	for id, reason := range stale {
		if err := gm.RemoveGame(id); err != nil {
			continue
		}
		removed++
		gm.logger.Info("game removed", zap.String("game_id", id), zap.String("reason", reason))
	}
	if removed > 0 {
		gm.logger.Debug("reaper pass", zap.Int("removed", removed), zap.Int("games_left", gm.GameCount()))
	}
	return removed
}

// Close shuts down every hosted session.
func (gm *GameManager) Close() {
	gm.mu.Lock()
	sessions := make([]*Session, 0, len(gm.games))
	for id, s := range gm.games {
		sessions = append(sessions, s)
		delete(gm.games, id)
	}
	gm.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
