package controller

import (
	"errors"

	"github.com/benbeisheim/tapchess-backend/internal/model"
	"github.com/benbeisheim/tapchess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type GameController struct {
	gameService *service.GameService
	logger      *zap.Logger
}

func NewGameController(gameService *service.GameService, logger *zap.Logger) *GameController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameController{gameService: gameService, logger: logger}
}

type createGameRequest struct {
	Hotseat bool `json:"hotseat"`
}

type tapRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrNotSeated), errors.Is(err, service.ErrNotYourTurn), errors.Is(err, service.ErrNotAuthorized):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrGameFull), errors.Is(err, service.ErrGameExists), errors.Is(err, model.ErrAlreadyQueued):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func (gc *GameController) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		gc.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func playerIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals("playerID").(string)
	return id
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	gameID, color, err := gc.gameService.CreateGame(playerIDFrom(c), req.Hotseat)
	if err != nil {
		return gc.fail(c, err)
	}
	gc.logger.Info("game created", zap.String("game_id", gameID), zap.Bool("hotseat", req.Hotseat))
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
		"color":   color,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := playerIDFrom(c)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return gc.fail(c, err)
	}
	gc.logger.Info("player joined", zap.String("game_id", gameID), zap.String("player_id", playerID), zap.String("color", string(color)))

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) Tap(c *fiber.Ctx) error {
	var req tapRequest
	if err := c.BodyParser(&req); err != nil || req.Row == nil || req.Col == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "row and col are required",
		})
	}

	gameState, err := gc.gameService.HandleTap(c.Params("gameId"), playerIDFrom(c), *req.Row, *req.Col)
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) Undo(c *fiber.Ctx) error {
	gameState, err := gc.gameService.HandleUndo(c.Params("gameId"), playerIDFrom(c))
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) NewGame(c *fiber.Ctx) error {
	gameState, err := gc.gameService.HandleNewGame(c.Params("gameId"), playerIDFrom(c))
	if err != nil {
		return gc.fail(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(playerIDFrom(c)); err != nil {
		return gc.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	removed := gc.gameService.LeaveMatchmaking(playerIDFrom(c))
	return c.JSON(fiber.Map{
		"status":  "left",
		"removed": removed,
	})
}
