package tetris

import (
	"log"
	"math/rand"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// bagSize は1つのバッグに入るテトリミノの数です。
const bagSize = 7

// PieceQueue は7-bagシステムに基づいて次のテトリミノの種類を供給します。
// キューが一定数以下になったら新しい7種類のテトリミノをランダムな順序で追加します。
type PieceQueue struct {
	rng     *rand.Rand
	pending []tetris.PieceType
}

// NewPieceQueue は新しいピースキューを作成します。
func NewPieceQueue(rng *rand.Rand) *PieceQueue {
	q := &PieceQueue{rng: rng}
	q.refill()
	return q
}

// refill はシャッフルした新しいバッグをキューの末尾に追加します。
// 連続した同じテトリミノの出現を防ぐため、前のバッグの最後のピースと新しいバッグの最初のピースが
// 同じにならないようにシャッフルを調整します。
func (q *PieceQueue) refill() {
	bag := make([]tetris.PieceType, len(tetris.AllPieceTypes))
	copy(bag, tetris.AllPieceTypes)

	q.rng.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})

	if n := len(q.pending); n > 0 && bag[0] == q.pending[n-1] {
		// ランダムな位置（1から最後まで）を選んで交換
		swapIndex := q.rng.Intn(len(bag)-1) + 1
		bag[0], bag[swapIndex] = bag[swapIndex], bag[0]
	}

	q.pending = append(q.pending, bag...)
}

// Next はキューから次のピースの種類を取り出します。
func (q *PieceQueue) Next() tetris.PieceType {
	if len(q.pending) < bagSize {
		q.refill()
	}
	next := q.pending[0]
	q.pending = q.pending[1:]
	return next
}

// Peek は取り出さずに先頭から n 個の種類を返します。
func (q *PieceQueue) Peek(n int) []tetris.PieceType {
	if n <= 0 {
		return nil
	}
	for len(q.pending) < n {
		q.refill()
	}
	out := make([]tetris.PieceType, n)
	copy(out, q.pending[:n])
	return out
}

// Reset はキューを空にして新しいバッグから始め直します。
func (q *PieceQueue) Reset() {
	q.pending = nil
	q.refill()
	log.Printf("[PieceQueue] キューをリセットしました (先頭: %s)", q.pending[0])
}

// Len はキューに残っている種類の数を返します。
func (q *PieceQueue) Len() int {
	return len(q.pending)
}
