package mirror

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/rocketscienceinc/tictactoe-mirror/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/entity"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/event"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommander struct {
	commands []MoveCommand
	err      error
}

func (that *fakeCommander) Send(_ context.Context, _ string, cmd MoveCommand) error {
	that.commands = append(that.commands, cmd)
	return that.err
}

type fixture struct {
	controller *Controller
	bus        *event.Bus
	commander  *fakeCommander
}

func newFixture(localPlayerID string) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := event.NewBus()
	commander := &fakeCommander{}
	sess := session.New(bus, localPlayerID)

	return &fixture{
		controller: NewController(logger, sess, bus, commander),
		bus:        bus,
		commander:  commander,
	}
}

func twoPlayers() []*entity.Player {
	return []*entity.Player{
		{ID: "p1", Name: "alice"},
		{ID: "p2", Name: "bob"},
	}
}

func TestController_Defaults(t *testing.T) {
	t.Run("Reports a waiting empty game before any update", func(t *testing.T) {
		// Given: a controller that never saw a snapshot
		fx := newFixture("p1")

		// Then: queries fall back to the inactive defaults
		assert.Equal(t, entity.StatusWaiting, fx.controller.Status())
		assert.False(t, fx.controller.IsActive())
		assert.Equal(t, entity.Board{}, fx.controller.Board())
		assert.Equal(t, 0, fx.controller.MoveCount())
		assert.False(t, fx.controller.IsPlayer())

		_, ok := fx.controller.Winner()
		assert.False(t, ok)

		_, ok = fx.controller.WhoseTurn()
		assert.False(t, ok)
	})

	t.Run("Reports waiting defaults after a waiting snapshot", func(t *testing.T) {
		// Given: an applied snapshot of a game waiting to start
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{Status: entity.StatusWaiting})

		// Then: the game is not active and the board is empty
		assert.Equal(t, entity.StatusWaiting, fx.controller.Status())
		assert.False(t, fx.controller.IsActive())
		assert.Equal(t, entity.Board{}, fx.controller.Board())
	})
}

func TestController_WhoseTurn(t *testing.T) {
	t.Run("Resolves roleX player on an empty ongoing game", func(t *testing.T) {
		// Given: an ongoing game with no moves and roleX assigned to p1
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status:  entity.StatusOngoing,
			RoleX:   "p1",
			RoleO:   "p2",
			Players: twoPlayers(),
		})

		// When: asking whose turn it is
		player, ok := fx.controller.WhoseTurn()

		// Then: p1 owns the turn and it is our turn
		require.True(t, ok)
		assert.Equal(t, "p1", player.ID)
		assert.True(t, fx.controller.IsOurTurn())
	})

	t.Run("Resolves roleO player after one move", func(t *testing.T) {
		// Given: an ongoing game with one move and roleO assigned to p2
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status:  entity.StatusOngoing,
			Moves:   []entity.Move{{Row: 0, Col: 0, Mark: entity.MarkX}},
			RoleX:   "p1",
			RoleO:   "p2",
			Players: twoPlayers(),
		})

		// When: asking whose turn it is
		player, ok := fx.controller.WhoseTurn()

		// Then: p2 owns the turn and it is not our turn
		require.True(t, ok)
		assert.Equal(t, "p2", player.ID)
		assert.False(t, fx.controller.IsOurTurn())
	})
}

func TestController_GamePiece(t *testing.T) {
	t.Run("Returns the assigned mark for a player", func(t *testing.T) {
		// Given: a game where the local player holds roleO
		fx := newFixture("p2")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
			RoleO:  "p2",
		})

		// When: asking for the game piece
		mark, err := fx.controller.GamePiece()

		// Then: it resolves to O
		require.NoError(t, err)
		assert.Equal(t, entity.MarkO, mark)
		assert.True(t, fx.controller.IsPlayer())
	})

	t.Run("Fails for a spectator", func(t *testing.T) {
		// Given: a game where the local player holds no role
		fx := newFixture("p3")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
			RoleO:  "p2",
		})

		// When: asking for the game piece
		_, err := fx.controller.GamePiece()

		// Then: the contract violation is reported
		assert.ErrorIs(t, err, apperror.ErrPlayerNotInGame)
		assert.False(t, fx.controller.IsPlayer())
	})
}

func TestController_Update(t *testing.T) {
	t.Run("Emits board-changed when a cell differs", func(t *testing.T) {
		// Given: a controller with a board subscriber
		fx := newFixture("p1")

		var boards []entity.Board
		fx.bus.SubscribeBoardChanged(func(board entity.Board) {
			boards = append(boards, board)
		})

		// When: the first snapshot carries one move
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			Moves:  []entity.Move{{Row: 1, Col: 1, Mark: entity.MarkX}},
			RoleX:  "p1",
			RoleO:  "p2",
		})

		// Then: exactly one whole-board notification carries the new board
		require.Len(t, boards, 1)
		assert.Equal(t, entity.MarkX, boards[0][1][1])
	})

	t.Run("Emits nothing when the board is unchanged", func(t *testing.T) {
		// Given: a controller that already applied a snapshot
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			Moves:  []entity.Move{{Row: 0, Col: 0, Mark: entity.MarkX}},
			RoleX:  "p1",
			RoleO:  "p2",
		})

		var boards, turns int
		fx.bus.SubscribeBoardChanged(func(entity.Board) { boards++ })
		fx.bus.SubscribeTurnChanged(func(bool) { turns++ })

		// When: an update repeats the same game but changes the occupant list
		fx.controller.Update("game-1", &entity.Snapshot{
			Status:  entity.StatusOngoing,
			Moves:   []entity.Move{{Row: 0, Col: 0, Mark: entity.MarkX}},
			RoleX:   "p1",
			RoleO:   "p2",
			Players: twoPlayers(),
		})

		// Then: neither notification fires
		assert.Equal(t, 0, boards)
		assert.Equal(t, 0, turns)
	})

	t.Run("Emits turn-changed carrying the our-turn flag", func(t *testing.T) {
		// Given: an ongoing game where it is the opponent's turn
		fx := newFixture("p2")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
			RoleO:  "p2",
		})

		var turns []bool
		fx.bus.SubscribeTurnChanged(func(isOurTurn bool) {
			turns = append(turns, isOurTurn)
		})

		var boards int
		fx.bus.SubscribeBoardChanged(func(entity.Board) { boards++ })

		// When: the opponent's move arrives with the next snapshot
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			Moves:  []entity.Move{{Row: 0, Col: 0, Mark: entity.MarkX}},
			RoleX:  "p1",
			RoleO:  "p2",
		})

		// Then: exactly one board-changed and one turn-changed fire, and the
		// turn is now ours
		assert.Equal(t, 1, boards)
		require.Len(t, turns, 1)
		assert.True(t, turns[0])
	})

	t.Run("Keeps turn-changed keyed to the role identifier, not its roster entry", func(t *testing.T) {
		// Given: an ongoing game whose turn owner is not in the roster yet
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
			RoleO:  "p2",
		})

		var turns int
		fx.bus.SubscribeTurnChanged(func(bool) { turns++ })

		// When: the owner appears in the occupant list with roles unchanged
		fx.controller.Update("game-1", &entity.Snapshot{
			Status:  entity.StatusOngoing,
			RoleX:   "p1",
			RoleO:   "p2",
			Players: twoPlayers(),
		})

		// Then: the owner identifier never changed, so nothing fires
		assert.Equal(t, 0, turns)
	})

	t.Run("Queries inside a game-updated handler see the new roster and snapshot together", func(t *testing.T) {
		// Given: a subscriber resolving the turn owner during the update
		fx := newFixture("p2")

		var resolved []string
		fx.bus.SubscribeGameUpdated(func() {
			if player, ok := fx.controller.WhoseTurn(); ok {
				resolved = append(resolved, player.Name)
			}
		})

		// When: an update carries both a new turn owner and its roster entry
		fx.controller.Update("game-1", &entity.Snapshot{
			Status:  entity.StatusOngoing,
			RoleX:   "p1",
			RoleO:   "p2",
			Players: twoPlayers(),
		})

		// Then: the owner resolves against the roster of the same update
		require.Len(t, resolved, 1)
		assert.Equal(t, "alice", resolved[0])
	})

	t.Run("Emits turn-changed when the game ends", func(t *testing.T) {
		// Given: an ongoing game owned by p1
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
			RoleO:  "p2",
		})

		var turns []bool
		fx.bus.SubscribeTurnChanged(func(isOurTurn bool) {
			turns = append(turns, isOurTurn)
		})

		// When: the authority declares the game finished
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusFinished,
			RoleX:  "p1",
			RoleO:  "p2",
			Winner: "p1",
		})

		// Then: the owner transitioned to none
		require.Len(t, turns, 1)
		assert.False(t, turns[0])
	})
}

func TestController_Winner(t *testing.T) {
	t.Run("Resolves the winner against the roster", func(t *testing.T) {
		// Given: a finished game won by p2
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status:  entity.StatusFinished,
			RoleX:   "p1",
			RoleO:   "p2",
			Winner:  "p2",
			Players: twoPlayers(),
		})

		// When: asking for the winner
		winner, ok := fx.controller.Winner()

		// Then: p2 is resolved with its display name
		require.True(t, ok)
		assert.Equal(t, "bob", winner.Name)
	})

	t.Run("Stays unresolved when the winner id is unknown", func(t *testing.T) {
		// Given: a finished game whose winner left the roster
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusFinished,
			Winner: "p9",
		})

		// When: asking for the winner
		_, ok := fx.controller.Winner()

		// Then: no winner resolves
		assert.False(t, ok)
	})
}

func TestController_MakeMove(t *testing.T) {
	t.Run("Fails without a game and never touches the command channel", func(t *testing.T) {
		// Given: a controller with no snapshot
		fx := newFixture("p1")

		// When: making a move
		err := fx.controller.MakeMove(context.Background(), 0, 0)

		// Then: the precondition failure surfaces before any send
		assert.ErrorIs(t, err, apperror.ErrNoGameInProgress)
		assert.Empty(t, fx.commander.commands)
	})

	t.Run("Fails when no game instance is attached", func(t *testing.T) {
		// Given: a snapshot applied without an instance identifier
		fx := newFixture("p1")
		fx.controller.Update("", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
		})

		// When: making a move
		err := fx.controller.MakeMove(context.Background(), 0, 0)

		// Then: the configuration failure surfaces
		assert.ErrorIs(t, err, apperror.ErrNoGameInstance)
		assert.Empty(t, fx.commander.commands)
	})

	t.Run("Fails on coordinates outside the grid", func(t *testing.T) {
		// Given: an attached ongoing game
		fx := newFixture("p1")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
			RoleO:  "p2",
		})

		// When: targeting a cell off the board
		err := fx.controller.MakeMove(context.Background(), 3, 0)

		// Then: the move is rejected locally
		assert.ErrorIs(t, err, ErrInvalidCell)
		assert.Empty(t, fx.commander.commands)
	})

	t.Run("Fails for a spectator", func(t *testing.T) {
		// Given: an attached game the local player is not part of
		fx := newFixture("p3")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
			RoleO:  "p2",
		})

		// When: making a move
		err := fx.controller.MakeMove(context.Background(), 0, 0)

		// Then: the contract violation surfaces
		assert.ErrorIs(t, err, apperror.ErrPlayerNotInGame)
		assert.Empty(t, fx.commander.commands)
	})

	t.Run("Forwards the candidate move with the caller's piece", func(t *testing.T) {
		// Given: an attached ongoing game where the local player holds roleO
		fx := newFixture("p2")
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			Moves:  []entity.Move{{Row: 0, Col: 0, Mark: entity.MarkX}},
			RoleX:  "p1",
			RoleO:  "p2",
		})

		// When: making a move
		err := fx.controller.MakeMove(context.Background(), 1, 2)

		// Then: one GameMove command reaches the channel, and the local state
		// is not applied optimistically
		require.NoError(t, err)
		require.Len(t, fx.commander.commands, 1)

		cmd := fx.commander.commands[0]
		assert.Equal(t, MoveCommandKind, cmd.Kind)
		assert.Equal(t, "game-1", cmd.GameID)
		assert.Equal(t, entity.Move{Row: 1, Col: 2, Mark: entity.MarkO}, cmd.Move)
		assert.Equal(t, 1, fx.controller.MoveCount())
	})

	t.Run("Propagates a transport rejection", func(t *testing.T) {
		// Given: a command channel that rejects moves
		fx := newFixture("p1")
		fx.commander.err = assert.AnError
		fx.controller.Update("game-1", &entity.Snapshot{
			Status: entity.StatusOngoing,
			RoleX:  "p1",
			RoleO:  "p2",
		})

		// When: making a move
		err := fx.controller.MakeMove(context.Background(), 0, 0)

		// Then: the rejection propagates to the caller
		assert.ErrorIs(t, err, assert.AnError)
	})
}
