package service

import (
	"fmt"

	"github.com/benbeisheim/tapchess-backend/internal/model"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

// CreateGame hosts a new game. The creator takes white, or both colours for a hotseat game.
func (gs *GameService) CreateGame(playerID string, hotseat bool) (string, model.Player, error) {
	gameID := uuid.New().String()

	session, err := gs.gameManager.CreateGame(gameID)
	if err != nil {
		return "", "", fmt.Errorf("failed to create game: %w", err)
	}

	if hotseat {
		if err := session.SeatBoth(playerID); err != nil {
			return "", "", fmt.Errorf("failed to seat creator: %w", err)
		}
		return gameID, model.White, nil
	}
	color, err := session.AddPlayer(playerID)
	if err != nil {
		return "", "", fmt.Errorf("failed to seat creator: %w", err)
	}
	return gameID, color, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.Player, error) {
	session, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return session.AddPlayer(playerID)
}

func (gs *GameService) GetGameState(gameID string) (SessionState, error) {
	session, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

func (gs *GameService) HandleTap(gameID string, playerID string, row, col int) (SessionState, error) {
	session, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return SessionState{}, err
	}
	if err := session.Tap(playerID, row, col); err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

func (gs *GameService) HandleUndo(gameID string, playerID string) (SessionState, error) {
	session, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return SessionState{}, err
	}
	if err := session.Undo(playerID); err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

func (gs *GameService) HandleNewGame(gameID string, playerID string) (SessionState, error) {
	session, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return SessionState{}, err
	}
	if err := session.NewGame(playerID); err != nil {
		return SessionState{}, err
	}
	return session.State(), nil
}

func (gs *GameService) GetSession(gameID string) (*Session, error) {
	return gs.gameManager.GetGame(gameID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string) <-chan model.MatchFoundEvent {
	return gs.gameManager.RegisterMatchmakingChannel(playerID)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string, ch <-chan model.MatchFoundEvent) bool {
	return gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
}
