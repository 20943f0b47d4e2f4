package tetris

const (
	DefaultBoardWidth  = 10 // テトリスボードの幅
	DefaultBoardHeight = 20 // テトリスボードの高さ（表示部分のみ、見えない領域はなし）
)

// Board はテトリスのゲームボードを表す占有グリッドです。
// cells[y][x] でアクセスします。yは行で、0が最下段、上に行くほど大きくなります。
type Board struct {
	width  int
	height int
	cells  [][]bool
}

// NewBoard は指定サイズの空のボードを初期化して返します。
//
// Parameters:
//   width  : ボードの幅（列数）
//   height : ボードの高さ（行数）
// Returns:
//   *Board: 全マスが空のボード
func NewBoard(width, height int) *Board {
	b := &Board{width: width, height: height}
	b.cells = make([][]bool, height)
	for y := range b.cells {
		b.cells[y] = make([]bool, width)
	}
	return b
}

// Width はボードの幅を返します。
func (b *Board) Width() int { return b.width }

// Height はボードの高さを返します。
func (b *Board) Height() int { return b.height }

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Check は指定されたマスにブロックを置けるかどうかを判定します。
// ボードの範囲外（上端も含む）は常に置けないものとして扱います。
//
// Returns:
//   bool: 空いている場合はtrue、範囲外または埋まっている場合はfalse
func (b *Board) Check(x, y int) bool {
	if !b.inBounds(x, y) {
		return false
	}
	return !b.cells[y][x]
}

// Occupy は指定されたマスを埋めます。範囲外の場合は何もしません。
func (b *Board) Occupy(x, y int) {
	if !b.inBounds(x, y) {
		return
	}
	b.cells[y][x] = true
}

// Filled は指定されたマスが埋まっているかどうかを返します。範囲外はfalseです。
func (b *Board) Filled(x, y int) bool {
	return b.inBounds(x, y) && b.cells[y][x]
}

// MaxY は列xで最も高い位置にある埋まったマスの行番号を返します。
// 列が空、またはxが範囲外の場合は0を返します。
func (b *Board) MaxY(x int) int {
	if x < 0 || x >= b.width {
		return 0
	}
	for y := b.height - 1; y >= 0; y-- {
		if b.cells[y][x] {
			return y
		}
	}
	return 0
}

// MaxYMany は複数の列に対する MaxY の最大値を返します。
// ハードドロップの着地面を求めるために使います。
func (b *Board) MaxYMany(xs []int) int {
	maxY := 0
	for _, x := range xs {
		if y := b.MaxY(x); y > maxY {
			maxY = y
		}
	}
	return maxY
}

// ColumnEmpty は列xに埋まったマスが一つもない場合にtrueを返します。
// MaxY は空の列と最下段だけ埋まった列を区別できないため、着地計算ではこちらも併用します。
func (b *Board) ColumnEmpty(x int) bool {
	if x < 0 || x >= b.width {
		return true
	}
	for y := 0; y < b.height; y++ {
		if b.cells[y][x] {
			return false
		}
	}
	return true
}

// ClearLines は揃ったラインをすべて消去し、上の行を下に詰めます。
// 消した行の数だけ最上段に空の行を追加します。離れた複数の行も一度に処理します。
//
// Returns:
//   int: クリアされたライン数
func (b *Board) ClearLines() int {
	kept := make([][]bool, 0, b.height)
	for y := 0; y < b.height; y++ {
		if !b.rowFull(y) {
			kept = append(kept, b.cells[y])
		}
	}
	cleared := b.height - len(kept)
	for len(kept) < b.height {
		kept = append(kept, make([]bool, b.width))
	}
	b.cells = kept
	return cleared
}

func (b *Board) rowFull(y int) bool {
	for x := 0; x < b.width; x++ {
		if !b.cells[y][x] {
			return false
		}
	}
	return true
}

// Reset はボードのすべてのマスを空にします。
func (b *Board) Reset() {
	for y := range b.cells {
		for x := range b.cells[y] {
			b.cells[y][x] = false
		}
	}
}

// Snapshot はボードの読み取り専用コピーを返します。[y][x] の順で、y=0 が最下段です。
func (b *Board) Snapshot() [][]bool {
	rows := make([][]bool, b.height)
	for y := range b.cells {
		rows[y] = append([]bool(nil), b.cells[y]...)
	}
	return rows
}
