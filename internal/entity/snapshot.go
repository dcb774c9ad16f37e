package entity

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"

	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""
)

const BoardSize = 3

// Board is a 3x3 projection of the moves, always derived and never stored.
type Board [BoardSize][BoardSize]string

// Move is a single placed mark at a board coordinate, in submission order.
type Move struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Mark string `json:"mark"`
}

// Snapshot is the authoritative game state received from the remote authority.
// It is replaced wholesale on every update; nothing here is mutated locally.
type Snapshot struct {
	Status  string    `json:"status"`
	Moves   []Move    `json:"moves"`
	RoleX   string    `json:"role_x,omitempty"`
	RoleO   string    `json:"role_o,omitempty"`
	Winner  string    `json:"winner,omitempty"`
	Players []*Player `json:"players,omitempty"`
}

// Board - replays the moves in order onto an empty grid. A malformed snapshot
// where two moves target the same cell resolves to last write wins.
func (that *Snapshot) Board() Board {
	var board Board

	for _, move := range that.Moves {
		if move.Row < 0 || move.Row >= BoardSize || move.Col < 0 || move.Col >= BoardSize {
			continue
		}
		board[move.Row][move.Col] = move.Mark
	}

	return board
}

// TurnMark - returns the mark whose move is expected, derived from move-count
// parity. Empty unless the game is ongoing.
func (that *Snapshot) TurnMark() string {
	if !that.IsOngoing() {
		return EmptyCell
	}

	if len(that.Moves)%2 == 0 {
		return MarkX
	}

	return MarkO
}

// TurnPlayerID - returns the identifier of the player owning the turn.
func (that *Snapshot) TurnPlayerID() string {
	switch that.TurnMark() {
	case MarkX:
		return that.RoleX
	case MarkO:
		return that.RoleO
	default:
		return ""
	}
}

// RoleOf - returns the mark assigned to playerID, if any.
func (that *Snapshot) RoleOf(playerID string) (string, bool) {
	if playerID == "" {
		return "", false
	}

	switch playerID {
	case that.RoleX:
		return MarkX, true
	case that.RoleO:
		return MarkO, true
	default:
		return "", false
	}
}

func (that *Snapshot) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Snapshot) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Snapshot) IsWaiting() bool {
	return that.Status == StatusWaiting
}
