package event

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-mirror/internal/entity"
)

// Bus is a typed publish/subscribe channel between the mirror and its
// consumers. Delivery is synchronous, in subscription order, fire-and-forget:
// the publisher never learns what subscribers do with a notification.
type Bus struct {
	mu sync.RWMutex

	boardChanged []func(entity.Board)
	turnChanged  []func(isOurTurn bool)
	gameUpdated  []func()
	gameEnd      []func()
}

func NewBus() *Bus {
	return &Bus{}
}

// SubscribeBoardChanged - registers a handler for whole-board replacements.
func (that *Bus) SubscribeBoardChanged(handler func(entity.Board)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.boardChanged = append(that.boardChanged, handler)
}

// SubscribeTurnChanged - registers a handler for turn-owner changes. The
// payload reports whether the local player now owns the turn.
func (that *Bus) SubscribeTurnChanged(handler func(isOurTurn bool)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.turnChanged = append(that.turnChanged, handler)
}

// SubscribeGameUpdated - registers a handler fired on every applied update,
// regardless of whether any derived fact changed.
func (that *Bus) SubscribeGameUpdated(handler func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.gameUpdated = append(that.gameUpdated, handler)
}

// SubscribeGameEnd - registers a handler fired when an update carries a
// finished game.
func (that *Bus) SubscribeGameEnd(handler func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.gameEnd = append(that.gameEnd, handler)
}

func (that *Bus) PublishBoardChanged(board entity.Board) {
	that.mu.RLock()
	handlers := that.boardChanged
	that.mu.RUnlock()

	for _, handler := range handlers {
		handler(board)
	}
}

func (that *Bus) PublishTurnChanged(isOurTurn bool) {
	that.mu.RLock()
	handlers := that.turnChanged
	that.mu.RUnlock()

	for _, handler := range handlers {
		handler(isOurTurn)
	}
}

func (that *Bus) PublishGameUpdated() {
	that.mu.RLock()
	handlers := that.gameUpdated
	that.mu.RUnlock()

	for _, handler := range handlers {
		handler()
	}
}

func (that *Bus) PublishGameEnd() {
	that.mu.RLock()
	handlers := that.gameEnd
	that.mu.RUnlock()

	for _, handler := range handlers {
		handler()
	}
}
