package session

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-mirror/internal/entity"
)

type bus interface {
	PublishGameUpdated()
	PublishGameEnd()
}

// Session holds the shared state every update refreshes before the diffing
// core runs: the player roster, the local identity and the attached game
// instance. It also owns the game-updated and game-end topics, which fire on
// every applied update independently of any derived diff.
type Session struct {
	mu sync.RWMutex

	bus           bus
	localPlayerID string
	gameID        string
	roster        map[string]*entity.Player
}

func New(bus bus, localPlayerID string) *Session {
	return &Session{
		bus:           bus,
		localPlayerID: localPlayerID,
		roster:        make(map[string]*entity.Player),
	}
}

// Refresh - replaces the roster and attached instance from an authoritative
// update. Callers that also hold their own state lock can keep the roster and
// their snapshot consistent, so emission lives in Announce instead.
func (that *Session) Refresh(gameID string, snapshot *entity.Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if gameID != "" {
		that.gameID = gameID
	}

	that.roster = make(map[string]*entity.Player, len(snapshot.Players))
	for _, player := range snapshot.Players {
		if player == nil || player.ID == "" {
			continue
		}
		that.roster[player.ID] = player
	}
}

// Announce - fires the inherited topics for an applied update: game-updated
// on every update, game-end when the update carries a finished game.
func (that *Session) Announce(snapshot *entity.Snapshot) {
	that.bus.PublishGameUpdated()

	if snapshot.IsFinished() {
		that.bus.PublishGameEnd()
	}
}

// PlayerByID - resolves an identifier against the current roster.
func (that *Session) PlayerByID(id string) (*entity.Player, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if id == "" {
		return nil, false
	}

	player, ok := that.roster[id]

	return player, ok
}

func (that *Session) LocalPlayerID() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.localPlayerID
}

// SetLocalPlayerID - adopts the identity the authority confirmed for us.
func (that *Session) SetLocalPlayerID(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.localPlayerID = id
}

func (that *Session) GameID() string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.gameID
}
