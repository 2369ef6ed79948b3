package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	board := NewBoard()
	board[19][0] = BlockJ
	board[10][5] = BlockS

	tests := []struct {
		name     string
		pt       PieceType
		rotation Rotation
		row, col int
		want     Verdict
	}{
		{"spawn on empty board", TypeT, Rotation0, 0, 3, Admitted},
		{"left wall", TypeO, Rotation0, 5, -1, OutOfBounds},
		{"right wall", TypeI, Rotation0, 5, 7, OutOfBounds},
		{"I horizontal flush right", TypeI, Rotation0, 5, 6, Admitted},
		{"floor", TypeO, Rotation0, 19, 4, OutOfBounds},
		{"above the top", TypeI, Rotation90, -1, 0, OutOfBounds},
		{"overlap locked block", TypeO, Rotation0, 9, 4, Overlap},
		{"touching but not overlapping", TypeO, Rotation0, 8, 4, Admitted},
		{"vertical I onto bottom-left block", TypeI, Rotation90, 16, -2, Overlap},
		{"vertical I on the floor", TypeI, Rotation90, 16, 0, Admitted},
		{"L into the corner block", TypeL, Rotation0, 18, 0, Overlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(&board, tt.pt, tt.rotation, tt.row, tt.col))
			assert.Equal(t, tt.want == Admitted, CanPlace(&board, tt.pt, tt.rotation, tt.row, tt.col))
		})
	}
}

func TestCheck_OutOfBoundsReportedBeforeOverlap(t *testing.T) {
	board := NewBoard()
	board[19][8] = BlockZ

	// 1セルは重なり、1セルは範囲外
	assert.Equal(t, OutOfBounds, Check(&board, TypeI, Rotation0, 18, 7))
}

func TestCheck_IsPure(t *testing.T) {
	board := NewBoard()
	board[15][5] = BlockT
	before := board

	first := Check(&board, TypeT, Rotation180, 13, 4)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Check(&board, TypeT, Rotation180, 13, 4))
	}
	assert.True(t, board.Equal(&before))
}

func TestHasCollision(t *testing.T) {
	board := NewBoard()
	piece, err := NewPiece(TypeT)
	if !assert.NoError(t, err) {
		return
	}

	assert.False(t, HasCollision(&board, piece, 0, 0))
	assert.False(t, HasCollision(&board, piece, 0, 1))
	assert.True(t, HasCollision(&board, piece, 0, -1), "moving above row 0 collides")
	assert.True(t, HasCollision(&board, piece, -4, 0), "left wall")
	assert.True(t, HasCollision(&board, piece, 5, 0), "right wall")

	board[2][4] = BlockO
	assert.True(t, HasCollision(&board, piece, 0, 1))
}

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "admitted", Admitted.String())
	assert.Equal(t, "out_of_bounds", OutOfBounds.String())
	assert.Equal(t, "overlap", Overlap.String())
	assert.Equal(t, "unknown", Verdict(9).String())
}
