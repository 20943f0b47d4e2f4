package tetris

import (
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/models/tetris"
)

// ゲーム全体に影響する既定値です。Config で上書きできます。
const (
	DefaultGravityPeriod      = 400 * time.Millisecond // 自動落下の間隔
	DefaultSoftDropMultiplier = 3                      // ソフトドロップ時の落下速度倍率
	DefaultLockdownDelay      = 500 * time.Millisecond // 着地してから固定されるまでの猶予時間
	DefaultSpawnX             = 4
	DefaultSpawnY             = 18
	DefaultPreviewCount       = 3 // Snapshot に含める次のピースの数

	SoftDropPoints       = 1 // ソフトドロップで1行落ちるごとの得点
	HardDropPointsPerRow = 3 // ハードドロップで1ブロックが1行落ちるごとの得点
)

// Config はシミュレーションの設定です。
type Config struct {
	BoardWidth         int
	BoardHeight        int
	SpawnAnchor        tetris.Cell
	GravityPeriod      time.Duration
	SoftDropMultiplier int
	LockdownDelay      time.Duration
	PreviewCount       int
	Catalog            *tetris.Catalog
}

// DefaultConfig は標準ルール（10x20、出現位置(4,18)、0.4秒落下、0.5秒ロック）の設定を返します。
func DefaultConfig() Config {
	return Config{
		BoardWidth:         tetris.DefaultBoardWidth,
		BoardHeight:        tetris.DefaultBoardHeight,
		SpawnAnchor:        tetris.Cell{X: DefaultSpawnX, Y: DefaultSpawnY},
		GravityPeriod:      DefaultGravityPeriod,
		SoftDropMultiplier: DefaultSoftDropMultiplier,
		LockdownDelay:      DefaultLockdownDelay,
		PreviewCount:       DefaultPreviewCount,
		Catalog:            &tetris.DefaultCatalog,
	}
}

// withDefaults はゼロ値のフィールドを既定値で埋めます。SpawnAnchor の (0,0) も未設定として扱います。
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BoardWidth <= 0 {
		c.BoardWidth = def.BoardWidth
	}
	if c.BoardHeight <= 0 {
		c.BoardHeight = def.BoardHeight
	}
	if c.SpawnAnchor == (tetris.Cell{}) {
		c.SpawnAnchor = def.SpawnAnchor
	}
	if c.GravityPeriod <= 0 {
		c.GravityPeriod = def.GravityPeriod
	}
	if c.SoftDropMultiplier <= 0 {
		c.SoftDropMultiplier = def.SoftDropMultiplier
	}
	if c.LockdownDelay <= 0 {
		c.LockdownDelay = def.LockdownDelay
	}
	if c.PreviewCount < 0 {
		c.PreviewCount = 0
	}
	if c.Catalog == nil {
		c.Catalog = def.Catalog
	}
	return c
}

// LineClearScore は同時に消したライン数に対する得点を計算します。
// 1ライン目が100点、以降1ラインごとに200点を加算します（1→100, 2→300, 3→500, 4→700）。
//
// Parameters:
//   clearedLines : 同時にクリアされたライン数
// Returns:
//   int: 加算する得点（0ライン以下なら0）
func LineClearScore(clearedLines int) int {
	if clearedLines <= 0 {
		return 0
	}
	return 100 + 200*(clearedLines-1)
}

// HardDropScore はハードドロップで全ブロックが移動した行数の合計から得点を計算します。
func HardDropScore(distance int) int {
	return HardDropPointsPerRow * distance
}
