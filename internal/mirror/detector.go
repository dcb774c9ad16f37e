package mirror

import "github.com/rocketscienceinc/tictactoe-mirror/internal/entity"

// boardChanged - reports whether the two derived boards differ in at least one
// cell, compared position-wise. Board diffs are never minimized per cell; a
// change is published as a whole-board replacement.
func boardChanged(oldBoard, newBoard entity.Board) bool {
	return oldBoard != newBoard
}

// turnChanged - reports whether the resolved turn-owner identifier differs,
// including none-to-someone and someone-to-none transitions.
func turnChanged(oldOwnerID, newOwnerID string) bool {
	return oldOwnerID != newOwnerID
}
