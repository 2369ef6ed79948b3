package tetris

// Verdict は配置判定の結果です。
type Verdict int

const (
	Admitted    Verdict = iota // 配置可能
	OutOfBounds                // いずれかのセルがボード外
	Overlap                    // いずれかのセルがロック済みブロックと重なる
)

func (v Verdict) String() string {
	switch v {
	case Admitted:
		return "admitted"
	case OutOfBounds:
		return "out_of_bounds"
	case Overlap:
		return "overlap"
	default:
		return "unknown"
	}
}

// Check は種類 t・回転 r のピースをアンカー (row, col) に置けるかを判定します。
// テーブルのオフセットを全7種に同じ手順で適用し、範囲外を重なりより先に報告します。
// 副作用はなく、同じ入力に対して常に同じ結果を返します。
func Check(g Grid, t PieceType, r Rotation, row, col int) Verdict {
	verdict := Admitted
	for _, offset := range mustShape(t, r) {
		cellRow, cellCol := row+offset.Row, col+offset.Col
		if cellRow < 0 || cellRow >= g.Rows() || cellCol < 0 || cellCol >= g.Cols() {
			return OutOfBounds
		}
		if g.IsOccupied(cellRow, cellCol) {
			verdict = Overlap
		}
	}
	return verdict
}

// CanPlace はCheckがAdmittedを返すかどうかを返します。
func CanPlace(g Grid, t PieceType, r Rotation, row, col int) bool {
	return Check(g, t, r, row, col) == Admitted
}

// HasCollision は指定されたピースが現在位置から (dx, dy) ずらした位置で
// 壁や既存のブロックと衝突するかどうかを判定します。
//
// Parameters:
//
//	p  : 衝突判定を行うテトリミノのポインタ
//	dx : 列方向の移動量（-1:左, 1:右, 0:移動なし）
//	dy : 行方向の移動量（1:下, 0:移動なし）
//
// Returns:
//
//	bool: 衝突する場合はtrue、しない場合はfalse
func HasCollision(g Grid, p *Piece, dx, dy int) bool {
	return !CanPlace(g, p.Type, p.Rotation, p.Y+dy, p.X+dx)
}
