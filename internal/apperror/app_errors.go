package apperror

import "errors"

var (
	ErrPlayerNotInGame  = errors.New("player is not in the game")
	ErrNoGameInProgress = errors.New("no game in progress")
	ErrNoGameInstance   = errors.New("no game instance attached")
)
