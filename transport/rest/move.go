package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-mirror/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-mirror/internal/mirror"
)

type moveMaker interface {
	MakeMove(ctx context.Context, row, col int) error
}

type MoveRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type MoveHandler struct {
	mover moveMaker
}

func NewMoveHandler(mover moveMaker) *MoveHandler {
	return &MoveHandler{
		mover: mover,
	}
}

// Handle - forwards a candidate move from a presentation consumer. The mirror
// is the sole mutation entry point; the response reflects the authority's
// verdict, not a local application of the move.
func (that *MoveHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var request MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "invalid move request body", http.StatusBadRequest)
		return
	}

	err := that.mover.MakeMove(r.Context(), request.Row, request.Col)

	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, mirror.ErrInvalidCell):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperror.ErrPlayerNotInGame):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, apperror.ErrNoGameInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperror.ErrNoGameInstance):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		// the authority or the transport rejected the move
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}
