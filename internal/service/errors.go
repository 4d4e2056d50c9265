package service

import "errors"

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameExists       = errors.New("game already exists")
	ErrGameFull         = errors.New("game is full")
	ErrNotSeated        = errors.New("player not seated in game")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNotAuthorized    = errors.New("not authorized to join this game")
	ErrConnectionExists = errors.New("connection already exists")
)
