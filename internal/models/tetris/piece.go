package tetris

// rotationKicks は時計回り回転が元の位置で置けないときに試す列方向の補正量です。
// 最初に置ける補正が採用され、どれも置けなければ回転前の状態に戻します。
var rotationKicks = []int{0, -1, 1, -2, 2}

// Piece はテトリミノの現在の状態（種類、ボード上のアンカー座標、回転角度）を表します。
// X は列、Y は行です。セルは X, Y にジオメトリテーブルのオフセットを加えて求めます。
type Piece struct {
	Type     PieceType `json:"type"`     // テトリミノの種類
	X        int       `json:"x"`        // アンカーの列
	Y        int       `json:"y"`        // アンカーの行
	Rotation Rotation  `json:"rotation"` // 回転角度 (0, 90, 180, 270 度)
}

// NewPiece は出現位置・回転0に置かれた新しいピースを作成します。
// ピースは出現のたびに新しく作り、使い回しはしません。
func NewPiece(t PieceType) (*Piece, error) {
	row, col, err := SpawnAnchor(t)
	if err != nil {
		return nil, err
	}
	return &Piece{Type: t, X: col, Y: row, Rotation: Rotation0}, nil
}

// Cells は現在位置での占有セル（ボードの絶対座標）を返します。
func (p *Piece) Cells() []Cell {
	return p.CellsAt(p.Y, p.X, p.Rotation)
}

// CellsAt は指定したアンカーと回転で占有されるセルを返します。
func (p *Piece) CellsAt(row, col int, r Rotation) []Cell {
	cells := mustShape(p.Type, r)
	for i := range cells {
		cells[i] = cells[i].Add(row, col)
	}
	return cells
}

// MoveLeft は1列左へ動かします。置けない場合は何もせず false を返します。
func (p *Piece) MoveLeft(g Grid) bool {
	return p.shift(g, 0, -1)
}

// MoveRight は1列右へ動かします。置けない場合は何もせず false を返します。
func (p *Piece) MoveRight(g Grid) bool {
	return p.shift(g, 0, 1)
}

// MoveDown は1行下へ動かします。hardDrop が true の場合は置けなくなるまで落下させます。
// 落下した行数と、これ以上下へ動けない（固定すべき）かどうかを返します。
func (p *Piece) MoveDown(g Grid, hardDrop bool) (rows int, landed bool) {
	for p.shift(g, 1, 0) {
		rows++
		if !hardDrop {
			return rows, HasCollision(g, p, 0, 1)
		}
	}
	return rows, true
}

// RotateClockwise は時計回りに90度回転させます。
// 回転後の位置で置けない場合は rotationKicks の列補正を順に試し、
// どれも置けなければ回転前の状態のまま false を返します。
// Oミノは回転しないので常に false を返します。
func (p *Piece) RotateClockwise(g Grid) bool {
	if p.Type == TypeO {
		return false
	}
	next := p.Rotation.Next()
	for _, dx := range rotationKicks {
		if CanPlace(g, p.Type, next, p.Y, p.X+dx) {
			p.X += dx
			p.Rotation = next
			return true
		}
	}
	return false
}

func (p *Piece) shift(g Grid, dy, dx int) bool {
	if HasCollision(g, p, dx, dy) {
		return false
	}
	p.Y += dy
	p.X += dx
	return true
}

// Clone は現在のPieceオブジェクトのコピーを返します。
// 操作前のピースの状態を保持しつつ、操作後の状態を仮に試すことができます。
func (p *Piece) Clone() *Piece {
	newP := *p
	return &newP
}
