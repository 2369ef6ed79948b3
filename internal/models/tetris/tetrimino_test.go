package tetris

import (
	"encoding/json"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allRotations = []Rotation{Rotation0, Rotation90, Rotation180, Rotation270}

// normalize はセル集合を左上が (0,0) になるよう平行移動し、並べ替えて返します。
func normalize(cells []Cell) []Cell {
	minRow, _, minCol, _ := bounds(cells)
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = Cell{Row: c.Row - minRow, Col: c.Col - minCol}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func TestShape_FourDistinctCells(t *testing.T) {
	for _, pt := range AllPieceTypes {
		for _, r := range allRotations {
			cells, err := Shape(pt, r)
			require.NoError(t, err)
			assert.Len(t, cells, 4, "%s@%d", pt, r)

			seen := make(map[Cell]bool)
			for _, c := range cells {
				assert.False(t, seen[c], "%s@%d has duplicate cell %+v", pt, r, c)
				seen[c] = true
			}
		}
	}
}

func TestShape_ReturnsCopy(t *testing.T) {
	cells, err := Shape(TypeT, Rotation0)
	require.NoError(t, err)
	cells[0] = Cell{Row: 99, Col: 99}

	again, err := Shape(TypeT, Rotation0)
	require.NoError(t, err)
	assert.NotEqual(t, Cell{Row: 99, Col: 99}, again[0])
}

func TestShape_UnknownType(t *testing.T) {
	_, err := Shape(PieceType(42), Rotation0)
	assert.ErrorIs(t, err, ErrUnknownPieceType)

	_, err = Shape(TypeI, Rotation(45))
	assert.Error(t, err)

	assert.Panics(t, func() { mustShape(PieceType(-1), Rotation0) })
}

// TestShape_EffectiveStates はO/I/S/Z/Tの回転対称性を確認します。
func TestShape_EffectiveStates(t *testing.T) {
	footprint := func(pt PieceType, r Rotation) []Cell {
		cells, err := Shape(pt, r)
		require.NoError(t, err)
		return normalize(cells)
	}

	for _, r := range allRotations {
		assert.Equal(t, footprint(TypeO, Rotation0), footprint(TypeO, r), "O must have one effective state")
	}

	for _, pt := range []PieceType{TypeI, TypeS, TypeZ} {
		assert.Equal(t, footprint(pt, Rotation0), footprint(pt, Rotation180), "%s 0/180", pt)
		assert.Equal(t, footprint(pt, Rotation90), footprint(pt, Rotation270), "%s 90/270", pt)
		assert.NotEqual(t, footprint(pt, Rotation0), footprint(pt, Rotation90), "%s 0/90", pt)
	}

	// Tは上下左右の向きで4つの異なる形を持つ
	seen := map[string]Rotation{}
	for _, r := range allRotations {
		key := fmt.Sprint(footprint(TypeT, r))
		prev, dup := seen[key]
		assert.False(t, dup, "T %d duplicates %d", r, prev)
		seen[key] = r
	}
}

func TestRotation_Cycle(t *testing.T) {
	r := Rotation0
	var visited []Rotation
	for i := 0; i < 4; i++ {
		r = r.Next()
		visited = append(visited, r)
	}
	assert.Equal(t, []Rotation{Rotation90, Rotation180, Rotation270, Rotation0}, visited)
}

func TestExtent(t *testing.T) {
	h, w, err := Extent(TypeI, Rotation0)
	require.NoError(t, err)
	assert.Equal(t, 1, h)
	assert.Equal(t, 4, w)

	h, w, err = Extent(TypeI, Rotation90)
	require.NoError(t, err)
	assert.Equal(t, 4, h)
	assert.Equal(t, 1, w)

	h, w, err = Extent(TypeO, Rotation270)
	require.NoError(t, err)
	assert.Equal(t, 2, h)
	assert.Equal(t, 2, w)

	_, _, err = Extent(PieceType(9), Rotation0)
	assert.ErrorIs(t, err, ErrUnknownPieceType)
}

func TestSpawnAnchor_TopRowAndCentered(t *testing.T) {
	for _, pt := range AllPieceTypes {
		p, err := NewPiece(pt)
		require.NoError(t, err)

		minRow, _, minCol, maxCol := bounds(p.Cells())
		assert.Equal(t, 0, minRow, "%s must spawn touching row 0", pt)
		assert.GreaterOrEqual(t, minCol, 3, "%s", pt)
		assert.LessOrEqual(t, maxCol, 6, "%s", pt)
		assert.Equal(t, Rotation0, p.Rotation)
	}

	o, err := NewPiece(TypeO)
	require.NoError(t, err)
	assert.Equal(t, 0, o.Y)
	assert.Equal(t, 4, o.X)

	_, err = NewPiece(PieceType(7))
	assert.ErrorIs(t, err, ErrUnknownPieceType)
}

func TestPieceType_StringAndParse(t *testing.T) {
	for _, pt := range AllPieceTypes {
		parsed, ok := ParsePieceType(pt.String())
		assert.True(t, ok)
		assert.Equal(t, pt, parsed)
	}
	_, ok := ParsePieceType("X")
	assert.False(t, ok)
}

func TestPieceType_JSON(t *testing.T) {
	data, err := json.Marshal(Piece{Type: TypeL, X: 3, Y: 0, Rotation: Rotation90})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"L","x":3,"y":0,"rotation":90}`, string(data))

	var p Piece
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, TypeL, p.Type)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"Q"}`), &p))
	_, err = json.Marshal(PieceType(12))
	assert.Error(t, err)
}
