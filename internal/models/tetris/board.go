package tetris

import (
	"errors"
	"fmt"
)

const (
	BoardWidth  = 10 // テトリスボードの幅
	BoardHeight = 20 // テトリスボードの高さ
)

var (
	// ErrCellOutOfBounds は配置しようとしたセルがボードの外にある場合に返されます。
	ErrCellOutOfBounds = errors.New("cell out of bounds")
	// ErrCellOccupied は配置しようとしたセルが既に埋まっている場合に返されます。
	ErrCellOccupied = errors.New("cell already occupied")
)

// BlockType はボード上のブロックの種類を表します。
// 占有判定は BlockEmpty かどうかだけで行い、種類は描画側の色分けのために保持します。
type BlockType int

const (
	BlockEmpty BlockType = iota // 0: 空のマス
	BlockI                      // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockJ                      // 2: J-テトリミノ由来のブロック
	BlockL                      // 3: L-テトリミノ由来のブロック
	BlockO                      // 4: O-テトリミノ由来のブロック
	BlockS                      // 5: S-テトリミノ由来のブロック
	BlockT                      // 6: T-テトリミノ由来のブロック
	BlockZ                      // 7: Z-テトリミノ由来のブロック
)

// BlockFor はPieceTypeに対応するBlockTypeを返します。
func BlockFor(t PieceType) BlockType {
	return BlockType(t + 1)
}

// Grid は衝突判定が必要とするボードの読み取り専用ビューです。
type Grid interface {
	Rows() int
	Cols() int
	IsOccupied(row, col int) bool
}

// Board はテトリスのゲームボードを表す2次元配列です。
// Board[row][col] でアクセスします。rowは0が最上段です。
type Board [BoardHeight][BoardWidth]BlockType

// NewBoard は新しい空のボードを初期化して返します。
// Goの配列はゼロ値（BlockEmpty）で初期化されるため、特別な初期化は不要です。
func NewBoard() Board {
	var board Board
	return board
}

// Rows はボードの行数を返します。
func (b *Board) Rows() int { return BoardHeight }

// Cols はボードの列数を返します。
func (b *Board) Cols() int { return BoardWidth }

// InBounds は (row, col) が [0,rows)×[0,cols) に収まるかを返します。
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < BoardHeight && col >= 0 && col < BoardWidth
}

// IsOccupied は (row, col) にロック済みブロックがあるかを返します。
// 範囲外のセルは占有されていないものとして扱います。範囲外への移動の拒否は衝突判定側の責務です。
func (b *Board) IsOccupied(row, col int) bool {
	if !b.InBounds(row, col) {
		return false
	}
	return b[row][col] != BlockEmpty
}

// Place は指定されたセルをすべて block で埋めます。
// いずれかのセルが範囲外または占有済みの場合は何も変更せずにエラーを返します。
func (b *Board) Place(cells []Cell, block BlockType) error {
	if block == BlockEmpty {
		return errors.New("place: block type must not be empty")
	}
	for _, c := range cells {
		if !b.InBounds(c.Row, c.Col) {
			return fmt.Errorf("place (%d,%d): %w", c.Row, c.Col, ErrCellOutOfBounds)
		}
		if b[c.Row][c.Col] != BlockEmpty {
			return fmt.Errorf("place (%d,%d): %w", c.Row, c.Col, ErrCellOccupied)
		}
	}
	for _, c := range cells {
		b[c.Row][c.Col] = block
	}
	return nil
}

// MergePiece は落下したピースをボードに固定します。
func (b *Board) MergePiece(p *Piece) error {
	return b.Place(p.Cells(), BlockFor(p.Type))
}

// FindCompleteRows は全列が埋まっている行の添字を上から順に返します。
func (b *Board) FindCompleteRows() []int {
	var rows []int
	for row := 0; row < BoardHeight; row++ {
		if b.rowFull(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (b *Board) rowFull(row int) bool {
	for col := 0; col < BoardWidth; col++ {
		if b[row][col] == BlockEmpty {
			return false // 一つでも空のマスがあればラインは揃っていない
		}
	}
	return true
}

// ClearRows は指定された行を取り除き、残りの行を相対順序を保ったまま下に詰めます。
// 取り除いた行数と同じ数の空行が上部に入ります。空の入力では何もしません。
// 範囲外の添字と重複は無視されます。
func (b *Board) ClearRows(rows []int) int {
	if len(rows) == 0 {
		return 0
	}
	var remove [BoardHeight]bool
	removed := 0
	for _, row := range rows {
		if row < 0 || row >= BoardHeight || remove[row] {
			continue
		}
		remove[row] = true
		removed++
	}
	if removed == 0 {
		return 0
	}

	newBoard := NewBoard()     // 新しいボードを作成し、クリア後の状態を構築
	destRow := BoardHeight - 1 // 新しいボードにブロックをコピーする際の最も下の行
	for row := BoardHeight - 1; row >= 0; row-- {
		if remove[row] {
			continue
		}
		newBoard[destRow] = b[row]
		destRow--
	}
	*b = newBoard
	return removed
}

// ClearLines は揃ったラインを検出してクリアし、クリアした行の添字を返します。
func (b *Board) ClearLines() []int {
	rows := b.FindCompleteRows()
	b.ClearRows(rows)
	return rows
}

// OccupiedCount はボード上の埋まっているマスの数を返します。
func (b *Board) OccupiedCount() int {
	count := 0
	for row := range b {
		for _, block := range b[row] {
			if block != BlockEmpty {
				count++
			}
		}
	}
	return count
}

// Equal は2つのボードが同じ内容かを返します。
func (b *Board) Equal(other *Board) bool {
	return *b == *other
}

// String はデバッグ用にボードを "#" と "." で表します。
func (b *Board) String() string {
	buf := make([]byte, 0, BoardHeight*(BoardWidth+1))
	for row := range b {
		for _, block := range b[row] {
			if block == BlockEmpty {
				buf = append(buf, '.')
			} else {
				buf = append(buf, '#')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
