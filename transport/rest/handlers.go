package rest

import (
	"encoding/json"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-mirror/internal/entity"
)

type gameState interface {
	Board() entity.Board
	Status() string
	IsActive() bool
	MoveCount() int
	RoleXPlayer() (*entity.Player, bool)
	RoleOPlayer() (*entity.Player, bool)
	Winner() (*entity.Player, bool)
	WhoseTurn() (*entity.Player, bool)
	IsOurTurn() bool
	IsPlayer() bool
}

type StateResponse struct {
	Status    string         `json:"status"`
	Active    bool           `json:"active"`
	Board     entity.Board   `json:"board"`
	MoveCount int            `json:"move_count"`
	RoleX     *entity.Player `json:"role_x,omitempty"`
	RoleO     *entity.Player `json:"role_o,omitempty"`
	Winner    *entity.Player `json:"winner,omitempty"`
	WhoseTurn *entity.Player `json:"whose_turn,omitempty"`
	OurTurn   bool           `json:"our_turn"`
	IsPlayer  bool           `json:"is_player"`
}

type StateHandler struct {
	state gameState
}

func NewStateHandler(state gameState) *StateHandler {
	return &StateHandler{
		state: state,
	}
}

// Handle - serves the full query surface as one JSON document for local
// presentation consumers.
func (that *StateHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	response := StateResponse{
		Status:    that.state.Status(),
		Active:    that.state.IsActive(),
		Board:     that.state.Board(),
		MoveCount: that.state.MoveCount(),
		OurTurn:   that.state.IsOurTurn(),
		IsPlayer:  that.state.IsPlayer(),
	}

	if player, ok := that.state.RoleXPlayer(); ok {
		response.RoleX = player
	}

	if player, ok := that.state.RoleOPlayer(); ok {
		response.RoleO = player
	}

	if player, ok := that.state.Winner(); ok {
		response.Winner = player
	}

	if player, ok := that.state.WhoseTurn(); ok {
		response.WhoseTurn = player
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
