package tetris

import (
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/models/tetris"
)

// Rotate はSRS風の壁蹴りを含む回転をピースに適用します。
//
// アルゴリズム:
//   1. バウンディングボックスの左下（最小x, 最小y）を求める
//   2. 現在の回転状態の回転中心を基準に各ブロックを90度回転する
//   3. 壁蹴り候補をテーブル順に試し、4ブロックすべてが空いている最初の候補を採用する
// どの候補も通らなければ何も変更しません（これはエラーではありません）。
//
// Parameters:
//   catalog   : 回転中心と壁蹴りテーブルを持つカタログ
//   board     : 衝突判定に使うボード
//   clockwise : trueなら時計回り、falseなら反時計回り
// Returns:
//   bool: 回転に成功した場合はtrue
func (p *ActivePiece) Rotate(catalog *tetris.Catalog, board *tetris.Board, clockwise bool) bool {
	next := p.Rotation.Left()
	if clockwise {
		next = p.Rotation.Right()
	}

	offset := p.boundingBoxOffset()
	center := catalog.CenterPoint(p.Type, p.Rotation)
	pivot := offset.Add(center)

	// 回転中心からの相対座標を回転したもの（壁蹴りオフセット適用前）
	var rotated [4]tetris.Cell
	for i, c := range p.Cells {
		rel := c.Sub(pivot)
		if clockwise {
			rel = rel.RotateRight()
		} else {
			rel = rel.RotateLeft()
		}
		rotated[i] = rel.Add(pivot)
	}

	for _, kick := range catalog.KickTests(p.Type, p.Rotation, next) {
		var candidate [4]tetris.Cell
		ok := true
		for i, c := range rotated {
			candidate[i] = c.Add(kick)
			if !board.Check(candidate[i].X, candidate[i].Y) {
				ok = false
				break
			}
		}
		if ok {
			// インデックスで元のブロックと1対1に対応しているのでそのまま置き換える
			p.Cells = candidate
			p.Rotation = next
			return true
		}
	}
	return false
}
