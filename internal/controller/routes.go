package controller

import (
	"github.com/benbeisheim/tapchess-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Routes mounts the REST API under /api and the websocket endpoints under /ws.
func Routes(app *fiber.App, gc *GameController, wsc *WebSocketController, origins []string) {
	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins,
	}

	wsGroup := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	wsGroup.Get("/game/:gameId", websocket.New(wsc.HandleConnection, wsConfig))
	wsGroup.Get("/matchmaking", websocket.New(wsc.HandleMatchmaking, wsConfig))

	api := app.Group("/api", middleware.EnsurePlayerID())

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gc.JoinMatchmaking)
	gameRoutes.Post("/matchmaking/leave", gc.LeaveMatchmaking)
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Post("/join/:gameId", gc.JoinGame)
	gameRoutes.Get("/:gameId", gc.GetGameState)
	gameRoutes.Post("/:gameId/tap", gc.Tap)
	gameRoutes.Post("/:gameId/undo", gc.Undo)
	gameRoutes.Post("/:gameId/new", gc.NewGame)
}
