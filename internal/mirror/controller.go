package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-mirror/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/entity"
)

var ErrInvalidCell = errors.New("invalid cell coordinates")

// MoveCommandKind tags a candidate move on the command channel.
const MoveCommandKind = "GameMove"

// MoveCommand is a candidate move forwarded to the authority. The mirror never
// applies it locally; the result arrives with the next authoritative snapshot.
type MoveCommand struct {
	Kind   string      `json:"kind"`
	GameID string      `json:"game_id"`
	Move   entity.Move `json:"move"`
}

type commander interface {
	Send(ctx context.Context, gameID string, cmd MoveCommand) error
}

type base interface {
	Refresh(gameID string, snapshot *entity.Snapshot)
	Announce(snapshot *entity.Snapshot)
	PlayerByID(id string) (*entity.Player, bool)
	LocalPlayerID() string
	GameID() string
}

type bus interface {
	PublishBoardChanged(board entity.Board)
	PublishTurnChanged(isOurTurn bool)
}

// Controller mirrors the authoritative game state. It owns exactly one current
// snapshot, answers queries by deriving from it, diffs consecutive snapshots
// into notifications and validates + forwards candidate moves.
type Controller struct {
	logger    *slog.Logger
	base      base
	bus       bus
	commander commander

	mu       sync.RWMutex
	snapshot *entity.Snapshot
}

func NewController(logger *slog.Logger, base base, bus bus, commander commander) *Controller {
	return &Controller{
		logger:    logger.With("component", "mirror"),
		base:      base,
		bus:       bus,
		commander: commander,
	}
}

// Update - applies a new authoritative snapshot. The previous snapshot is
// discarded; board-changed and turn-changed fire independently, at most once
// each, and not at all when the respective derived fact is unchanged.
func (that *Controller) Update(gameID string, snapshot *entity.Snapshot) {
	oldBoard := that.Board()
	oldTurnID := that.turnOwnerID()

	// the roster refresh and the snapshot swap share one critical section, so
	// a concurrent query never resolves one snapshot against the other's roster
	that.mu.Lock()
	that.base.Refresh(gameID, snapshot)
	that.snapshot = snapshot
	that.mu.Unlock()

	that.base.Announce(snapshot)

	newBoard := that.Board()
	newTurnID := that.turnOwnerID()

	if boardChanged(oldBoard, newBoard) {
		that.logger.Debug("board changed", "moves", that.MoveCount())
		that.bus.PublishBoardChanged(newBoard)
	}

	if turnChanged(oldTurnID, newTurnID) {
		isOurTurn := that.IsOurTurn()
		that.logger.Debug("turn changed", "our_turn", isOurTurn)
		that.bus.PublishTurnChanged(isOurTurn)
	}
}

// MakeMove - packages a candidate move with the caller's game piece and
// forwards it to the authority. The outcome is whatever the command channel
// reports; the board is never mutated optimistically.
func (that *Controller) MakeMove(ctx context.Context, row, col int) error {
	if that.current() == nil {
		return apperror.ErrNoGameInProgress
	}

	gameID := that.base.GameID()
	if gameID == "" {
		return apperror.ErrNoGameInstance
	}

	if row < 0 || row >= entity.BoardSize || col < 0 || col >= entity.BoardSize {
		return fmt.Errorf("%w: row %d, col %d", ErrInvalidCell, row, col)
	}

	mark, err := that.GamePiece()
	if err != nil {
		return err
	}

	cmd := MoveCommand{
		Kind:   MoveCommandKind,
		GameID: gameID,
		Move:   entity.Move{Row: row, Col: col, Mark: mark},
	}

	if err := that.commander.Send(ctx, gameID, cmd); err != nil {
		return fmt.Errorf("failed to forward move: %w", err)
	}

	return nil
}

// Board - derives the board from the current snapshot, empty with no game.
func (that *Controller) Board() entity.Board {
	snapshot := that.current()
	if snapshot == nil {
		return entity.Board{}
	}

	return snapshot.Board()
}

// Status - derives the game status, waiting when no game exists at all.
func (that *Controller) Status() string {
	snapshot := that.current()
	if snapshot == nil {
		return entity.StatusWaiting
	}

	return snapshot.Status
}

func (that *Controller) IsActive() bool {
	return that.Status() == entity.StatusOngoing
}

func (that *Controller) MoveCount() int {
	snapshot := that.current()
	if snapshot == nil {
		return 0
	}

	return len(snapshot.Moves)
}

// RoleXPlayer - resolves the roleX identifier against the roster.
func (that *Controller) RoleXPlayer() (*entity.Player, bool) {
	snapshot := that.current()
	if snapshot == nil {
		return nil, false
	}

	return that.base.PlayerByID(snapshot.RoleX)
}

// RoleOPlayer - resolves the roleO identifier against the roster.
func (that *Controller) RoleOPlayer() (*entity.Player, bool) {
	snapshot := that.current()
	if snapshot == nil {
		return nil, false
	}

	return that.base.PlayerByID(snapshot.RoleO)
}

// Winner - resolves the winner identifier against the roster.
func (that *Controller) Winner() (*entity.Player, bool) {
	snapshot := that.current()
	if snapshot == nil {
		return nil, false
	}

	return that.base.PlayerByID(snapshot.Winner)
}

// WhoseTurn - resolves the player currently owning the turn. Unresolved
// unless the game is ongoing and the owner is a known player.
func (that *Controller) WhoseTurn() (*entity.Player, bool) {
	return that.base.PlayerByID(that.turnOwnerID())
}

// IsOurTurn - reports whether the local player owns the current turn.
func (that *Controller) IsOurTurn() bool {
	ownerID := that.turnOwnerID()

	return ownerID != "" && ownerID == that.base.LocalPlayerID()
}

// IsPlayer - reports whether the local player holds either role.
func (that *Controller) IsPlayer() bool {
	_, err := that.GamePiece()

	return err == nil
}

// GamePiece - returns the local player's assigned mark. Callers must check
// IsPlayer first; asking for a spectator's piece is a contract violation.
func (that *Controller) GamePiece() (string, error) {
	snapshot := that.current()
	if snapshot == nil {
		return "", apperror.ErrPlayerNotInGame
	}

	mark, ok := snapshot.RoleOf(that.base.LocalPlayerID())
	if !ok {
		return "", apperror.ErrPlayerNotInGame
	}

	return mark, nil
}

func (that *Controller) current() *entity.Snapshot {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.snapshot
}

func (that *Controller) turnOwnerID() string {
	snapshot := that.current()
	if snapshot == nil {
		return ""
	}

	return snapshot.TurnPlayerID()
}
