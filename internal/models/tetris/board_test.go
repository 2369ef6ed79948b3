package tetris

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRow(b *Board, row int, cols ...int) {
	if len(cols) == 0 {
		for col := 0; col < BoardWidth; col++ {
			b[row][col] = BlockI
		}
		return
	}
	for _, col := range cols {
		b[row][col] = BlockI
	}
}

func TestNewBoard(t *testing.T) {
	board := NewBoard()
	assert.Equal(t, BoardHeight, len(board))
	assert.Equal(t, BoardWidth, len(board[0]))
	assert.Equal(t, 0, board.OccupiedCount())
	assert.Equal(t, BoardHeight, board.Rows())
	assert.Equal(t, BoardWidth, board.Cols())
}

func TestBoard_IsOccupied(t *testing.T) {
	board := NewBoard()
	board[5][3] = BlockT

	assert.True(t, board.IsOccupied(5, 3))
	assert.False(t, board.IsOccupied(5, 4))

	// 範囲外は占有されていない扱い
	assert.False(t, board.IsOccupied(-1, 0))
	assert.False(t, board.IsOccupied(0, -1))
	assert.False(t, board.IsOccupied(BoardHeight, 0))
	assert.False(t, board.IsOccupied(0, BoardWidth))
}

func TestBoard_Place(t *testing.T) {
	board := NewBoard()
	cells := []Cell{{18, 4}, {18, 5}, {19, 4}, {19, 5}}
	require.NoError(t, board.Place(cells, BlockO))
	for _, c := range cells {
		assert.True(t, board.IsOccupied(c.Row, c.Col))
	}
	assert.Equal(t, 4, board.OccupiedCount())

	// 占有済みセルを含む配置は全体が拒否される
	before := board
	err := board.Place([]Cell{{17, 0}, {19, 5}}, BlockI)
	assert.ErrorIs(t, err, ErrCellOccupied)
	assert.True(t, board.Equal(&before), "failed place must not mutate the board")

	err = board.Place([]Cell{{0, 0}, {20, 0}}, BlockI)
	assert.ErrorIs(t, err, ErrCellOutOfBounds)
	assert.True(t, board.Equal(&before))

	assert.Error(t, board.Place([]Cell{{0, 0}}, BlockEmpty))
}

func TestBoard_FindCompleteRows(t *testing.T) {
	board := NewBoard()
	assert.Empty(t, board.FindCompleteRows(), "empty board has no complete rows")

	fillRow(&board, 19)
	fillRow(&board, 7)
	fillRow(&board, 12, 0, 1, 2, 3, 4, 5, 6, 7, 8) // 1列欠け
	assert.Equal(t, []int{7, 19}, board.FindCompleteRows())

	full := NewBoard()
	for row := 0; row < BoardHeight; row++ {
		fillRow(&full, row)
	}
	rows := full.FindCompleteRows()
	require.Len(t, rows, BoardHeight)
	for i, row := range rows {
		assert.Equal(t, i, row)
	}
}

func TestBoard_ClearRows_EmptyInputIsIdempotent(t *testing.T) {
	board := NewBoard()
	fillRow(&board, 19, 0, 2, 4)
	fillRow(&board, 10, 9)
	before := board

	assert.Equal(t, 0, board.ClearRows(nil))
	assert.Equal(t, 0, board.ClearRows([]int{}))
	assert.True(t, board.Equal(&before))
}

func TestBoard_ClearRows_CompactsAndPreservesOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	board := NewBoard()

	// 部分的に埋まった行と揃った行を混ぜる
	var partialRows []int
	for row := 4; row < BoardHeight; row++ {
		if row%3 == 0 {
			fillRow(&board, row)
			continue
		}
		cols := rng.Perm(BoardWidth)[:1+rng.Intn(BoardWidth-1)]
		fillRow(&board, row, cols...)
		partialRows = append(partialRows, row)
	}
	var expected [][BoardWidth]BlockType
	for _, row := range partialRows {
		expected = append(expected, board[row])
	}

	full := board.FindCompleteRows()
	require.NotEmpty(t, full)
	before := board.OccupiedCount()

	removed := board.ClearRows(full)
	assert.Equal(t, len(full), removed)
	assert.Equal(t, before-BoardWidth*len(full), board.OccupiedCount())
	assert.Empty(t, board.FindCompleteRows())

	// 残った行は相対順序を保ったまま最下段に詰められる
	start := BoardHeight - len(expected)
	for i, row := range expected {
		assert.Equal(t, row, board[start+i], "row %d", start+i)
	}
	for row := 0; row < start; row++ {
		assert.Equal(t, [BoardWidth]BlockType{}, board[row], "row %d must be empty", row)
	}
}

func TestBoard_ClearRows_IgnoresDuplicatesAndOutOfRange(t *testing.T) {
	board := NewBoard()
	fillRow(&board, 19)
	fillRow(&board, 18, 0)

	removed := board.ClearRows([]int{19, 19, -1, BoardHeight})
	assert.Equal(t, 1, removed)
	assert.True(t, board.IsOccupied(19, 0))
	assert.Equal(t, 1, board.OccupiedCount())
}

// TestBoard_OPieceDropsToFloor はOミノを床まで落として固定するシナリオです。
func TestBoard_OPieceDropsToFloor(t *testing.T) {
	board := NewBoard()
	piece, err := NewPiece(TypeO)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Cell{{0, 4}, {0, 5}, {1, 4}, {1, 5}}, piece.Cells())

	for {
		_, landed := piece.MoveDown(&board, false)
		if landed {
			break
		}
	}
	assert.Equal(t, 18, piece.Y)
	require.NoError(t, board.MergePiece(piece))

	for _, row := range []int{18, 19} {
		for _, col := range []int{4, 5} {
			assert.Equal(t, BlockO, board[row][col])
		}
	}
	assert.Equal(t, 4, board.OccupiedCount())
}

// TestBoard_IPieceCompletesRow は最下段の右4列をIミノで埋めてラインを揃えるシナリオです。
func TestBoard_IPieceCompletesRow(t *testing.T) {
	board := NewBoard()
	fillRow(&board, 19, 0, 1, 2, 3, 4, 5)
	fillRow(&board, 18, 0, 1, 2)

	piece := &Piece{Type: TypeI, X: 6, Y: 18, Rotation: Rotation0}
	require.ElementsMatch(t, []Cell{{19, 6}, {19, 7}, {19, 8}, {19, 9}}, piece.Cells())
	require.Equal(t, Admitted, Check(&board, piece.Type, piece.Rotation, piece.Y, piece.X))
	require.NoError(t, board.MergePiece(piece))

	assert.Equal(t, []int{19}, board.FindCompleteRows())
	assert.Equal(t, 13, board.OccupiedCount())

	cleared := board.ClearLines()
	assert.Equal(t, []int{19}, cleared)
	assert.Equal(t, 3, board.OccupiedCount())
	assert.Equal(t, BlockI, board[19][0])
	assert.Equal(t, BlockEmpty, board[19][3])
	assert.Equal(t, [BoardWidth]BlockType{}, board[0])
}

func TestBoard_String(t *testing.T) {
	board := NewBoard()
	board[0][0] = BlockZ
	s := board.String()
	assert.Equal(t, "#.........\n", s[:BoardWidth+1])
}
