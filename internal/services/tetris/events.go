package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// Listener はゲームループからの通知を受け取る描画側のインターフェースです。
// すべてのメソッドはゲームを操作しているゴルーチンから同期的に呼ばれます。
type Listener interface {
	OnPieceSpawned(piece tetris.Piece)
	OnPieceMoved(piece tetris.Piece)
	OnPieceLocked(cells []tetris.Cell)
	OnLinesCleared(rows []int)
	OnGameOver()
	OnStateChanged(from, to State)
}

// NopListener は何もしないListenerです。必要な通知だけを実装したい場合に埋め込みます。
type NopListener struct{}

func (NopListener) OnPieceSpawned(tetris.Piece) {}
func (NopListener) OnPieceMoved(tetris.Piece) {}
func (NopListener) OnPieceLocked([]tetris.Cell) {}
func (NopListener) OnLinesCleared([]int) {}
func (NopListener) OnGameOver() {}
func (NopListener) OnStateChanged(State, State) {}
