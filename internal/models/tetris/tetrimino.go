package tetris

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownPieceType は定義されていないテトリミノ種別でテーブルを引いた場合に返されます。
// 正しく構築されたピースでは発生しないため、内部不変条件の違反として扱います。
var ErrUnknownPieceType = errors.New("unknown piece type")

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ
	TypeJ                  // 1: J-ミノ
	TypeL                  // 2: L-ミノ
	TypeO                  // 3: O-ミノ
	TypeS                  // 4: S-ミノ
	TypeT                  // 5: T-ミノ
	TypeZ                  // 6: Z-ミノ
)

// AllPieceTypes は7種類のテトリミノを定義順に並べたものです。
var AllPieceTypes = []PieceType{TypeI, TypeJ, TypeL, TypeO, TypeS, TypeT, TypeZ}

// Rotation は時計回りの回転状態です。値は角度 (0, 90, 180, 270) で保持します。
type Rotation int

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// Next は時計回りに90度進めた回転状態を返します (0→90→180→270→0)。
func (r Rotation) Next() Rotation {
	return (r + 90) % 360
}

// Index は回転状態をテーブル添字 (0-3) に変換します。
func (r Rotation) Index() int {
	return int(r) / 90
}

// Valid は回転状態が4つの正規値のどれかであるかを返します。
func (r Rotation) Valid() bool {
	return r == Rotation0 || r == Rotation90 || r == Rotation180 || r == Rotation270
}

// Cell はボード上の1マス、またはアンカーからの相対オフセットです。
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add はオフセットを加えたセルを返します。
func (c Cell) Add(row, col int) Cell {
	return Cell{Row: c.Row + row, Col: c.Col + col}
}

// shapeDef は1種類のテトリミノの幾何情報です。
type shapeDef struct {
	// rotations は回転状態ごとの占有セル (アンカー基準の {row, col})。
	rotations [4][4]Cell
	// spawnCol は回転0で出現するときのアンカー列。
	spawnCol int
}

// pieceShapes は各PieceTypeの各回転状態におけるブロックの相対座標を定義します。
// [PieceType].rotations[RotationIndex][BlockIndex]
// 回転行列で計算せず、SRSの 3x3 / 4x4 ボックス上の配置をそのまま表として持ちます。
// I/S/Z/T は 0度と180度、90度と270度がそれぞれ平行移動の関係になります。
var pieceShapes = map[PieceType]shapeDef{
	TypeI: {
		rotations: [4][4]Cell{
			{{1, 0}, {1, 1}, {1, 2}, {1, 3}}, // 0度 (横)
			{{0, 2}, {1, 2}, {2, 2}, {3, 2}}, // 90度 (縦)
			{{2, 0}, {2, 1}, {2, 2}, {2, 3}}, // 180度 (横)
			{{0, 1}, {1, 1}, {2, 1}, {3, 1}}, // 270度 (縦)
		},
		spawnCol: 3,
	},
	TypeJ: {
		rotations: [4][4]Cell{
			{{0, 0}, {1, 0}, {1, 1}, {1, 2}},
			{{0, 1}, {0, 2}, {1, 1}, {2, 1}},
			{{1, 0}, {1, 1}, {1, 2}, {2, 2}},
			{{0, 1}, {1, 1}, {2, 0}, {2, 1}},
		},
		spawnCol: 3,
	},
	TypeL: {
		rotations: [4][4]Cell{
			{{0, 2}, {1, 0}, {1, 1}, {1, 2}},
			{{0, 1}, {1, 1}, {2, 1}, {2, 2}},
			{{1, 0}, {1, 1}, {1, 2}, {2, 0}},
			{{0, 0}, {0, 1}, {1, 1}, {2, 1}},
		},
		spawnCol: 3,
	},
	TypeO: { // Oミノは全ての回転で同じ
		rotations: [4][4]Cell{
			{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
			{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
			{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
			{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		},
		spawnCol: 4,
	},
	TypeS: {
		rotations: [4][4]Cell{
			{{0, 1}, {0, 2}, {1, 0}, {1, 1}},
			{{0, 1}, {1, 1}, {1, 2}, {2, 2}},
			{{1, 1}, {1, 2}, {2, 0}, {2, 1}}, // 0度をrow+1シフト
			{{0, 0}, {1, 0}, {1, 1}, {2, 1}}, // 90度をcol-1シフト
		},
		spawnCol: 3,
	},
	TypeT: {
		rotations: [4][4]Cell{
			{{0, 1}, {1, 0}, {1, 1}, {1, 2}},
			{{0, 1}, {1, 1}, {1, 2}, {2, 1}},
			{{1, 0}, {1, 1}, {1, 2}, {2, 1}},
			{{0, 1}, {1, 0}, {1, 1}, {2, 1}},
		},
		spawnCol: 3,
	},
	TypeZ: {
		rotations: [4][4]Cell{
			{{0, 0}, {0, 1}, {1, 1}, {1, 2}},
			{{0, 2}, {1, 1}, {1, 2}, {2, 1}},
			{{1, 0}, {1, 1}, {2, 1}, {2, 2}}, // 0度をrow+1シフト
			{{0, 1}, {1, 0}, {1, 1}, {2, 0}}, // 90度をcol-1シフト
		},
		spawnCol: 3,
	},
}

// Valid はPieceTypeが定義済みの7種類のいずれかであるかを返します。
func (t PieceType) Valid() bool {
	_, ok := pieceShapes[t]
	return ok
}

// Shape は指定された種類・回転状態で占有される4セルのアンカー相対オフセットを返します。
// 返り値はコピーなので、呼び出し側が変更してもテーブルには影響しません。
func Shape(t PieceType, r Rotation) ([]Cell, error) {
	def, ok := pieceShapes[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPieceType, int(t))
	}
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rotation %d for piece %s", int(r), t)
	}
	offsets := def.rotations[r.Index()]
	cells := make([]Cell, len(offsets))
	copy(cells, offsets[:])
	return cells, nil
}

// mustShape はShapeのエラーを致命的な内部エラーとして扱います。
func mustShape(t PieceType, r Rotation) []Cell {
	cells, err := Shape(t, r)
	if err != nil {
		panic(err)
	}
	return cells
}

// Extent は指定回転状態の占有セルを囲む矩形の高さと幅を返します。
func Extent(t PieceType, r Rotation) (height, width int, err error) {
	cells, err := Shape(t, r)
	if err != nil {
		return 0, 0, err
	}
	minRow, maxRow, minCol, maxCol := bounds(cells)
	return maxRow - minRow + 1, maxCol - minCol + 1, nil
}

// SpawnAnchor は回転0で出現するときのアンカー座標を返します。
// 最上段の占有セルがボードの0行目に来るように行を合わせます。
func SpawnAnchor(t PieceType) (row, col int, err error) {
	def, ok := pieceShapes[t]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrUnknownPieceType, int(t))
	}
	minRow, _, _, _ := bounds(def.rotations[0][:])
	return -minRow, def.spawnCol, nil
}

func bounds(cells []Cell) (minRow, maxRow, minCol, maxCol int) {
	minRow, minCol = cells[0].Row, cells[0].Col
	maxRow, maxCol = minRow, minCol
	for _, c := range cells[1:] {
		minRow = min(minRow, c.Row)
		maxRow = max(maxRow, c.Row)
		minCol = min(minCol, c.Col)
		maxCol = max(maxCol, c.Col)
	}
	return minRow, maxRow, minCol, maxCol
}

// ParsePieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
func ParsePieceType(s string) (PieceType, bool) {
	switch s {
	case "I":
		return TypeI, true
	case "J":
		return TypeJ, true
	case "L":
		return TypeL, true
	case "O":
		return TypeO, true
	case "S":
		return TypeS, true
	case "T":
		return TypeT, true
	case "Z":
		return TypeZ, true
	default:
		return 0, false
	}
}

// String はPieceTypeを文字列表現に変換します。
func (t PieceType) String() string {
	switch t {
	case TypeI:
		return "I"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	case TypeO:
		return "O"
	case TypeS:
		return "S"
	case TypeT:
		return "T"
	case TypeZ:
		return "Z"
	default:
		return fmt.Sprintf("PieceType(%d)", int(t))
	}
}

// MarshalJSON はPieceTypeを "I" などの文字列としてシリアライズします。
func (t PieceType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPieceType, int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON は "I" などの文字列からPieceTypeを復元します。
func (t *PieceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParsePieceType(s)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPieceType, s)
	}
	*t = parsed
	return nil
}
