package tetris

import (
	"math/rand"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/models/tetris"
)

// bagRefillThreshold 以下になったら新しいバッグを補充します。
const bagRefillThreshold = 3

// Bag は7-bagシステムに基づくピースキューです。
// キューの残りが3個以下になると、7種類をシャッフルした1袋分を末尾に追加します。
type Bag struct {
	queue []tetris.PieceType
	rng   *rand.Rand
}

// NewBag は新しいバッグを作成します。テストで決定的にするため乱数源は外から渡します。
func NewBag(rng *rand.Rand) *Bag {
	return &Bag{rng: rng}
}

// refill はキューが閾値以下ならシャッフルした7種類を追加します。
func (b *Bag) refill() {
	if len(b.queue) > bagRefillThreshold {
		return
	}
	bag := tetris.AllPieceTypes()
	b.rng.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})
	b.queue = append(b.queue, bag...)
}

// Draw はキューの先頭のピースを取り出します。必要であれば先に補充します。
//
// Returns:
//   tetris.PieceType: 取り出されたピースの種類
func (b *Bag) Draw() tetris.PieceType {
	b.refill()
	if len(b.queue) == 0 {
		panic("bag: empty queue after refill")
	}
	next := b.queue[0]
	b.queue = b.queue[1:]
	return next
}

// Peek は取り出さずに次の n 個のピースを返します。プレビュー表示用です。
// n はキューが補充後に保証する長さ（4）までに制限されます。
func (b *Bag) Peek(n int) []tetris.PieceType {
	b.refill()
	if n > len(b.queue) {
		n = len(b.queue)
	}
	return append([]tetris.PieceType(nil), b.queue[:n]...)
}

// Len は現在キューに入っているピースの数を返します。
func (b *Bag) Len() int { return len(b.queue) }

// Reset はキューを空にします。次の Draw で即座に補充されます。
func (b *Bag) Reset() {
	b.queue = nil
}
