package tetris

import "fmt"

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeO PieceType = iota // 0: O-ミノ
	TypeI                  // 1: I-ミノ
	TypeS                  // 2: S-ミノ
	TypeZ                  // 3: Z-ミノ
	TypeL                  // 4: L-ミノ
	TypeJ                  // 5: J-ミノ
	TypeT                  // 6: T-ミノ

	PieceTypeCount = 7
)

// AllPieceTypes は7種類すべてのテトリミノを定義順に返します。バッグの補充に使います。
func AllPieceTypes() []PieceType {
	return []PieceType{TypeO, TypeI, TypeS, TypeZ, TypeL, TypeJ, TypeT}
}

var pieceTypeNames = [PieceTypeCount]string{"O", "I", "S", "Z", "L", "J", "T"}

// String はPieceTypeを文字列表現（"O", "I" など）に変換します。
func (t PieceType) String() string {
	if t < 0 || int(t) >= PieceTypeCount {
		return fmt.Sprintf("PieceType(%d)", int(t))
	}
	return pieceTypeNames[t]
}

// StringToPieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
func StringToPieceType(s string) (PieceType, bool) {
	for i, name := range pieceTypeNames {
		if name == s {
			return PieceType(i), true
		}
	}
	return TypeO, false
}

// MarshalText はJSONで "T" のような文字列として送信するために実装しています。
func (t PieceType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= PieceTypeCount {
		return nil, fmt.Errorf("不明なテトリミノタイプです: %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *PieceType) UnmarshalText(text []byte) error {
	parsed, ok := StringToPieceType(string(text))
	if !ok {
		return fmt.Errorf("不明なテトリミノタイプです: %q", string(text))
	}
	*t = parsed
	return nil
}

// Rotation はテトリミノの回転状態です。
type Rotation int

const (
	R0 Rotation = iota // 出現時の状態
	RR                 // 出現時から時計回りに90度
	R2                 // 180度
	RL                 // 出現時から反時計回りに90度
)

var rotationNames = [4]string{"R0", "RR", "R2", "RL"}

// Right は時計回りに一段階進めた回転状態を返します。R0→RR→R2→RL→R0
func (r Rotation) Right() Rotation { return (r + 1) % 4 }

// Left は反時計回りに一段階戻した回転状態を返します。
func (r Rotation) Left() Rotation { return (r + 3) % 4 }

func (r Rotation) String() string {
	if r < 0 || r > RL {
		return fmt.Sprintf("Rotation(%d)", int(r))
	}
	return rotationNames[r]
}

func (r Rotation) MarshalText() ([]byte, error) {
	if r < 0 || r > RL {
		return nil, fmt.Errorf("不明な回転状態です: %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rotation) UnmarshalText(text []byte) error {
	for i, name := range rotationNames {
		if name == string(text) {
			*r = Rotation(i)
			return nil
		}
	}
	return fmt.Errorf("不明な回転状態です: %q", string(text))
}

// Cell はボード上の座標（またはオフセット）です。yは上方向に増加します。
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add は2つの座標を足し合わせます。
func (c Cell) Add(o Cell) Cell { return Cell{X: c.X + o.X, Y: c.Y + o.Y} }

// Sub は c - o を返します。
func (c Cell) Sub(o Cell) Cell { return Cell{X: c.X - o.X, Y: c.Y - o.Y} }

// RotateRight は原点を中心に時計回りに90度回転させます。(x, y) -> (y, -x)
func (c Cell) RotateRight() Cell { return Cell{X: c.Y, Y: -c.X} }

// RotateLeft は原点を中心に反時計回りに90度回転させます。(x, y) -> (-y, x)
func (c Cell) RotateLeft() Cell { return Cell{X: -c.Y, Y: c.X} }

// PieceDefinition は1種類のテトリミノの静的な幾何データです。
//   Spawn   : 出現時のブロックの相対座標（出現時にのみ使用）
//   Centers : 回転状態ごとの回転中心（バウンディングボックス左下からの相対座標）
//   Tests   : 回転状態ごとの壁蹴りテストオフセット。遷移ごとの候補は KickTests で求めます。
type PieceDefinition struct {
	Spawn   [4]Cell
	Centers [4]Cell
	Tests   [4][]Cell
}

// Catalog はPieceTypeをインデックスとした定義テーブルです。
type Catalog [PieceTypeCount]PieceDefinition

// jlszTests は J, L, S, Z, T で共通の壁蹴りテーブルです。
var jlszTests = [4][]Cell{
	R0: {{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
	RR: {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
	R2: {{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
	RL: {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
}

var jlszCenters = [4]Cell{R0: {1, 0}, RR: {0, 1}, R2: {1, 1}, RL: {1, 1}}

// DefaultCatalog は標準のテトリミノ定義です。
// 回転中心は必ずしも幾何学的な重心ではありません（Oは回転状態ごとに中心がずれ、Iは非対称です）。
var DefaultCatalog = Catalog{
	TypeO: {
		Spawn:   [4]Cell{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		Centers: [4]Cell{R0: {0, 0}, RR: {0, 1}, R2: {1, 1}, RL: {1, 0}},
		Tests: [4][]Cell{
			R0: {{0, 0}},
			RR: {{0, -1}},
			R2: {{-1, -1}},
			RL: {{-1, 0}},
		},
	},
	TypeI: {
		Spawn:   [4]Cell{{0, 0}, {1, 0}, {2, 0}, {3, 0}},
		Centers: [4]Cell{R0: {1, 0}, RR: {0, 2}, R2: {2, 0}, RL: {0, 1}},
		Tests: [4][]Cell{
			R0: {{0, 0}, {-1, 0}, {2, 0}, {-1, 0}, {2, 0}},
			RR: {{-1, 0}, {0, 0}, {0, 0}, {0, 1}, {0, -2}},
			R2: {{-1, 1}, {1, 1}, {-2, 1}, {1, 0}, {-2, 0}},
			RL: {{0, 1}, {0, 1}, {0, 1}, {0, -1}, {0, 2}},
		},
	},
	TypeS: {
		Spawn:   [4]Cell{{0, 0}, {1, 0}, {1, 1}, {2, 1}},
		Centers: jlszCenters,
		Tests:   jlszTests,
	},
	TypeZ: {
		Spawn:   [4]Cell{{1, 0}, {2, 0}, {0, 1}, {1, 1}},
		Centers: jlszCenters,
		Tests:   jlszTests,
	},
	TypeL: {
		Spawn:   [4]Cell{{2, 1}, {0, 0}, {1, 0}, {2, 0}},
		Centers: jlszCenters,
		Tests:   jlszTests,
	},
	TypeJ: {
		Spawn:   [4]Cell{{0, 1}, {0, 0}, {1, 0}, {2, 0}},
		Centers: jlszCenters,
		Tests:   jlszTests,
	},
	TypeT: {
		Spawn:   [4]Cell{{0, 0}, {1, 0}, {2, 0}, {1, 1}},
		Centers: jlszCenters,
		Tests:   jlszTests,
	},
}

// SpawnCells は出現位置 anchor に平行移動した出現時のブロック座標を返します。
func (c *Catalog) SpawnCells(t PieceType, anchor Cell) [4]Cell {
	var cells [4]Cell
	for i, offset := range c[t].Spawn {
		cells[i] = offset.Add(anchor)
	}
	return cells
}

// CenterPoint は指定された回転状態での回転中心を返します。
func (c *Catalog) CenterPoint(t PieceType, rot Rotation) Cell {
	return c[t].Centers[rot]
}

// KickTests は from から to への回転で試す壁蹴りオフセットを順番に返します。
// 各候補は Tests[from][i] - Tests[to][i] です。
func (c *Catalog) KickTests(t PieceType, from, to Rotation) []Cell {
	prev, next := c[t].Tests[from], c[t].Tests[to]
	n := len(prev)
	if len(next) < n {
		n = len(next)
	}
	tests := make([]Cell, n)
	for i := 0; i < n; i++ {
		tests[i] = prev[i].Sub(next[i])
	}
	return tests
}
