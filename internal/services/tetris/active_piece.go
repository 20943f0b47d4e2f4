package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/models/tetris"
)

// ActivePiece は現在落下中のテトリミノです。
// 4つのブロック座標を直接保持し、移動・回転・落下のたびに Cells と Rotation を同時に更新します。
type ActivePiece struct {
	Type     tetris.PieceType `json:"type"`
	Rotation tetris.Rotation  `json:"rotation"`
	Cells    [4]tetris.Cell   `json:"cells"`
}

// newActivePiece はカタログの出現オフセットを anchor に平行移動したピースを作ります。
func newActivePiece(catalog *tetris.Catalog, t tetris.PieceType, anchor tetris.Cell) *ActivePiece {
	return &ActivePiece{
		Type:     t,
		Rotation: tetris.R0,
		Cells:    catalog.SpawnCells(t, anchor),
	}
}

// fits は全ブロックを (dx, dy) だけずらした位置がボード上で空いているかを判定します。
func (p *ActivePiece) fits(board *tetris.Board, dx, dy int) bool {
	for _, c := range p.Cells {
		if !board.Check(c.X+dx, c.Y+dy) {
			return false
		}
	}
	return true
}

// shift は全ブロックを (dx, dy) だけ移動します。衝突判定は呼び出し側で行います。
func (p *ActivePiece) shift(dx, dy int) {
	for i := range p.Cells {
		p.Cells[i].X += dx
		p.Cells[i].Y += dy
	}
}

// CanMoveDown は1行下に移動できるかどうかを返します。
func (p *ActivePiece) CanMoveDown(board *tetris.Board) bool {
	return p.fits(board, 0, -1)
}

// MoveHorizontally は左右に1マス移動します。移動先が塞がっていれば何もしません。
// 平行移動では壁蹴りは行いません。
//
// Returns:
//   bool: 移動した場合はtrue
func (p *ActivePiece) MoveHorizontally(board *tetris.Board, right bool) bool {
	dx := -1
	if right {
		dx = 1
	}
	if !p.fits(board, dx, 0) {
		return false
	}
	p.shift(dx, 0)
	return true
}

// Columns は現在のピースが占めている列を重複なしで返します。
func (p *ActivePiece) Columns() []int {
	cols := make([]int, 0, 4)
	seen := make(map[int]bool, 4)
	for _, c := range p.Cells {
		if !seen[c.X] {
			seen[c.X] = true
			cols = append(cols, c.X)
		}
	}
	return cols
}

// boundingBoxOffset はブロックの最小x・最小yを返します。
func (p *ActivePiece) boundingBoxOffset() tetris.Cell {
	lo := p.Cells[0]
	for _, c := range p.Cells[1:] {
		if c.X < lo.X {
			lo.X = c.X
		}
		if c.Y < lo.Y {
			lo.Y = c.Y
		}
	}
	return lo
}

// HardDrop はピースを着地面まで一気に落とします。
// 着地面は占有している列の MaxYMany で、ピースの最下段がその一つ上に来るように全ブロックを平行移動します。
// 列がすべて空の場合は床（y=0）に着地します。ロックはここでは行いません。
// オーバーハングの下にいるピースを持ち上げた結果が盤面からはみ出す場合は移動しません。
//
// Returns:
//   int: 全ブロックの移動量の絶対値の合計（スコア計算に使用）
func (p *ActivePiece) HardDrop(board *tetris.Board) int {
	cols := p.Columns()
	landing := 0
	for _, x := range cols {
		if !board.ColumnEmpty(x) {
			landing = board.MaxYMany(cols) + 1
			break
		}
	}
	bottom := p.boundingBoxOffset().Y

	var dropped [4]tetris.Cell
	distance := 0
	for i, c := range p.Cells {
		dropped[i] = tetris.Cell{X: c.X, Y: landing + (c.Y - bottom)}
		if !board.Check(dropped[i].X, dropped[i].Y) {
			return 0
		}
		delta := dropped[i].Y - c.Y
		if delta < 0 {
			delta = -delta
		}
		distance += delta
	}
	p.Cells = dropped
	return distance
}
