package tetris

import (
	"math/rand"
	"testing"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/models/tetris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NotNil(t, g.ActivePiece())
	return g
}

// fillRows は except の列を除いて rows の各行を埋めます。
func fillRows(board *tetris.Board, except int, rows ...int) {
	for _, y := range rows {
		for x := 0; x < board.Width(); x++ {
			if x != except {
				board.Occupy(x, y)
			}
		}
	}
}

func verticalI(x int) *ActivePiece {
	return &ActivePiece{
		Type:     tetris.TypeI,
		Rotation: tetris.RR,
		Cells:    [4]tetris.Cell{{X: x, Y: 3}, {X: x, Y: 2}, {X: x, Y: 1}, {X: x, Y: 0}},
	}
}

// settle は重力で着地を検出させ、ロックダウンを満了させます。
func settle(g *Game) TickResult {
	g.Tick(nil, g.cfg.GravityPeriod)
	return g.Tick(nil, g.cfg.LockdownDelay-g.cfg.GravityPeriod)
}

func TestNewGame(t *testing.T) {
	g := newTestGame(t)

	assert.False(t, g.IsGameOver())
	assert.Equal(t, Score{}, g.Score())
	assert.False(t, g.Locking(), "lockdown starts idle")

	snap := g.Snapshot()
	assert.Equal(t, 10, snap.Width)
	assert.Equal(t, 20, snap.Height)
	assert.Len(t, snap.Next, DefaultPreviewCount)
	assert.Equal(t, tetris.R0, snap.Active.Rotation)
	for _, c := range snap.Active.Cells {
		assert.GreaterOrEqual(t, c.Y, DefaultSpawnY)
	}
}

func TestSeededGamesAreIdentical(t *testing.T) {
	a := NewGame(DefaultConfig(), rand.New(rand.NewSource(5)))
	b := NewGame(DefaultConfig(), rand.New(rand.NewSource(5)))
	for i := 0; i < 30; i++ {
		a.Tick([]InputEvent{HardDrop}, 16*time.Millisecond)
		b.Tick([]InputEvent{HardDrop}, 16*time.Millisecond)
		settle(a)
		settle(b)
	}
	assert.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestGravityMovesPieceDown(t *testing.T) {
	g := newTestGame(t)
	before := g.ActivePiece().Cells

	res := g.Tick(nil, 399*time.Millisecond)
	assert.True(t, res.Empty())
	assert.Equal(t, before, g.ActivePiece().Cells)

	g.Tick(nil, time.Millisecond)
	for i, c := range g.ActivePiece().Cells {
		assert.Equal(t, before[i].Y-1, c.Y)
	}
	// 通常の落下では得点は入らない
	assert.Equal(t, 0, g.Score().Points)
}

func TestSoftDropAcceleratesAndScores(t *testing.T) {
	g := newTestGame(t)
	before := g.ActivePiece().Cells

	// 3倍速なので134ms x 3 = 402ms で1行落ちる
	res := g.Tick([]InputEvent{SoftDropOn}, 134*time.Millisecond)
	assert.Equal(t, SoftDropPoints, res.PointsGained)
	assert.Equal(t, before[0].Y-1, g.ActivePiece().Cells[0].Y)
	assert.True(t, g.Snapshot().SoftDrop)

	res = g.Tick([]InputEvent{SoftDropOff}, 134*time.Millisecond)
	assert.Equal(t, 0, res.PointsGained)
	assert.Equal(t, before[0].Y-1, g.ActivePiece().Cells[0].Y)
}

func TestHardDropScenario(t *testing.T) {
	g := newTestGame(t)
	g.active = spawnAt(tetris.TypeO, 4, 18)

	res := g.Tick([]InputEvent{HardDrop}, 0)
	assert.Equal(t, 216, res.PointsGained)
	assert.False(t, res.FigurePlaced, "hard drop does not lock immediately")
	assert.Equal(t, cellSet([4]tetris.Cell{{X: 4, Y: 0}, {X: 5, Y: 0}, {X: 4, Y: 1}, {X: 5, Y: 1}}), cellSet(g.active.Cells))

	// 重力で着地を検出してロックダウン開始
	res = g.Tick(nil, 400*time.Millisecond)
	assert.False(t, res.FigurePlaced)
	assert.True(t, g.Locking())

	res = g.Tick(nil, 100*time.Millisecond)
	assert.True(t, res.FigurePlaced)
	assert.False(t, g.Locking())
	for _, c := range []tetris.Cell{{X: 4, Y: 0}, {X: 5, Y: 0}, {X: 4, Y: 1}, {X: 5, Y: 1}} {
		assert.True(t, g.board.Filled(c.X, c.Y))
	}
	assert.Equal(t, 1, g.Snapshot().PiecesPlaced)
	assert.Equal(t, 216, g.Score().Points)
}

func TestLineClearScenario(t *testing.T) {
	g := newTestGame(t)
	fillRows(g.board, 5, 0)
	g.active = verticalI(5)

	res := settle(g)
	assert.True(t, res.FigurePlaced)
	assert.Equal(t, 1, res.LinesCleared)
	assert.Equal(t, 100, res.PointsGained)
	assert.Equal(t, Score{Points: 100, LinesCleared: 1}, g.Score())

	// 上の行が1段ずつ下がる
	for y := 0; y < 3; y++ {
		assert.True(t, g.board.Filled(5, y))
		assert.False(t, g.board.Filled(4, y))
	}
	assert.False(t, g.board.Filled(5, 3))
}

func TestLineClearScoreTable(t *testing.T) {
	for n, want := range map[int]int{1: 100, 2: 300, 3: 500, 4: 700} {
		g := newTestGame(t)
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		fillRows(g.board, 0, rows...)
		g.active = verticalI(0)

		res := settle(g)
		assert.Equal(t, n, res.LinesCleared, "%d lines", n)
		assert.Equal(t, want, res.PointsGained, "%d lines", n)
		assert.Equal(t, want, LineClearScore(n))
	}
	assert.Equal(t, 0, LineClearScore(0))
}

func TestLockdownCancelledWhenPieceCanFallAgain(t *testing.T) {
	g := newTestGame(t)
	g.active = spawnAt(tetris.TypeO, 4, 5)
	g.board.Occupy(4, 4)

	g.Tick(nil, 400*time.Millisecond)
	require.True(t, g.Locking())

	// 右に動いたので下が空いた
	g.Tick([]InputEvent{MoveRight}, 50*time.Millisecond)
	assert.True(t, g.Locking(), "horizontal moves do not reset the lockdown")

	res := g.Tick(nil, 350*time.Millisecond)
	assert.False(t, res.FigurePlaced)
	assert.False(t, g.Locking())
	assert.Equal(t, 4, g.active.boundingBoxOffset().Y)
}

func TestLockdownRecheckedWhenItExpires(t *testing.T) {
	g := newTestGame(t)
	g.active = spawnAt(tetris.TypeO, 4, 5)
	g.board.Occupy(4, 4)

	g.Tick(nil, 400*time.Millisecond)
	require.True(t, g.Locking())
	g.Tick([]InputEvent{MoveRight}, 0)

	// 満了時点では下に動けるので固定しない
	res := g.Tick(nil, 100*time.Millisecond)
	assert.False(t, res.FigurePlaced)
	assert.False(t, g.board.Filled(5, 5))
}

func TestRotationResetsLockdown(t *testing.T) {
	g := newTestGame(t)
	g.active = spawnAt(tetris.TypeT, 4, 0)

	g.Tick(nil, 400*time.Millisecond)
	require.True(t, g.Locking())
	require.Equal(t, 400*time.Millisecond, g.lockdown.Elapsed())

	g.Tick([]InputEvent{RotateClockwise}, 0)
	assert.Equal(t, tetris.RR, g.active.Rotation)
	assert.True(t, g.Locking())
	assert.Equal(t, time.Duration(0), g.lockdown.Elapsed())
}

func TestTopOut(t *testing.T) {
	g := newTestGame(t)
	// 出現位置を塞ぎ、下2行は左端2列以外を埋める
	for y := 18; y < 20; y++ {
		for x := 2; x < 10; x++ {
			g.board.Occupy(x, y)
		}
	}
	for y := 0; y < 2; y++ {
		for x := 2; x < 10; x++ {
			g.board.Occupy(x, y)
		}
	}
	g.active = spawnAt(tetris.TypeO, 0, 0)
	before := g.Score()

	res := settle(g)
	assert.True(t, res.FigurePlaced)
	assert.True(t, res.GameOver)
	assert.True(t, g.IsGameOver())
	assert.Nil(t, g.ActivePiece())
	// トップアウトしたティックではラインを消さない
	assert.Equal(t, 0, res.LinesCleared)
	assert.Equal(t, before, g.Score())
	assert.True(t, g.board.Filled(0, 0))

	// 以降のティックは何もしない
	res = g.Tick([]InputEvent{HardDrop, MoveLeft}, time.Second)
	assert.True(t, res.Empty())
	assert.True(t, g.Snapshot().IsGameOver)
	assert.Nil(t, g.Snapshot().Active)
}

func TestReset(t *testing.T) {
	g := newTestGame(t)
	g.Tick([]InputEvent{HardDrop}, 0)
	settle(g)
	require.NotZero(t, g.Score().Points)

	g.Reset()
	assert.Equal(t, Score{}, g.Score())
	assert.False(t, g.IsGameOver())
	assert.False(t, g.Locking())
	assert.NotNil(t, g.ActivePiece())
	assert.Equal(t, 0, g.Snapshot().PiecesPlaced)
	for _, row := range g.Snapshot().Board {
		for _, filled := range row {
			assert.False(t, filled)
		}
	}
}

func TestNegativeDeltaIsIgnored(t *testing.T) {
	g := newTestGame(t)
	before := g.ActivePiece().Cells
	g.Tick(nil, -time.Second)
	g.Tick(nil, 399*time.Millisecond)
	assert.Equal(t, before, g.ActivePiece().Cells)
}

func TestParseInputEvent(t *testing.T) {
	cases := map[string]InputEvent{
		"move_left":     MoveLeft,
		"move_right":    MoveRight,
		"rotate":        RotateClockwise,
		"rotate_right":  RotateClockwise,
		"rotate_left":   RotateCounterClockwise,
		"hard_drop":     HardDrop,
		"soft_drop_on":  SoftDropOn,
		"soft_drop_off": SoftDropOff,
	}
	for name, want := range cases {
		got, err := ParseInputEvent(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseInputEvent("hold")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{BoardWidth: 12, PreviewCount: -1}.withDefaults()
	assert.Equal(t, 12, cfg.BoardWidth)
	assert.Equal(t, tetris.DefaultBoardHeight, cfg.BoardHeight)
	assert.Equal(t, DefaultGravityPeriod, cfg.GravityPeriod)
	assert.Equal(t, DefaultLockdownDelay, cfg.LockdownDelay)
	assert.Equal(t, DefaultSoftDropMultiplier, cfg.SoftDropMultiplier)
	assert.Equal(t, 0, cfg.PreviewCount)
	assert.Equal(t, tetris.Cell{X: DefaultSpawnX, Y: DefaultSpawnY}, cfg.SpawnAnchor)
	assert.Same(t, &tetris.DefaultCatalog, cfg.Catalog)
}

func TestTopOutOnFirstSpawnIsReportedOnce(t *testing.T) {
	// 既定の出現位置 (4,18) は4x4の盤面に収まらない
	g := NewGame(Config{BoardWidth: 4, BoardHeight: 4}, rand.New(rand.NewSource(1)))
	require.True(t, g.IsGameOver())
	assert.Nil(t, g.ActivePiece())

	res := g.Tick(nil, time.Millisecond)
	assert.True(t, res.GameOver)
	assert.False(t, res.FigurePlaced)

	for i := 0; i < 10; i++ {
		assert.True(t, g.Tick(nil, g.cfg.GravityPeriod).Empty())
	}

	// Reset の後も同じ盤面ならもう一度だけ通知する
	g.Reset()
	assert.True(t, g.Tick(nil, 0).GameOver)
	assert.False(t, g.Tick(nil, 0).GameOver)
}

func TestRepeatedInputsInOneTick(t *testing.T) {
	g := newTestGame(t)
	g.active = newActivePiece(g.cfg.Catalog, tetris.TypeT, tetris.Cell{X: 4, Y: 10})

	expected := newActivePiece(g.cfg.Catalog, tetris.TypeT, tetris.Cell{X: 2, Y: 10})
	require.True(t, expected.Rotate(g.cfg.Catalog, g.board, true))
	require.True(t, expected.Rotate(g.cfg.Catalog, g.board, true))

	g.Tick([]InputEvent{MoveLeft, MoveLeft, RotateClockwise, RotateClockwise}, 0)

	piece := g.ActivePiece()
	require.NotNil(t, piece)
	assert.Equal(t, tetris.R2, piece.Rotation)
	assert.Equal(t, expected.Cells, piece.Cells)
}
