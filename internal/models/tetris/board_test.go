package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardCheckOutOfBounds(t *testing.T) {
	board := NewBoard(DefaultBoardWidth, DefaultBoardHeight)

	// 範囲外は占有状態に関係なく常にブロックされる
	outside := []Cell{{-1, 0}, {0, -1}, {10, 0}, {0, 20}, {10, 20}, {-5, 25}}
	for _, c := range outside {
		assert.False(t, board.Check(c.X, c.Y), "(%d,%d) should be blocked", c.X, c.Y)
	}

	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			board.Occupy(x, y)
		}
	}
	board.Reset()
	for _, c := range outside {
		assert.False(t, board.Check(c.X, c.Y))
	}
	assert.True(t, board.Check(0, 0))
	assert.True(t, board.Check(9, 19))
}

func TestBoardOccupy(t *testing.T) {
	board := NewBoard(DefaultBoardWidth, DefaultBoardHeight)
	board.Occupy(3, 4)
	assert.False(t, board.Check(3, 4))
	assert.True(t, board.Filled(3, 4))

	// 範囲外への Occupy は何もしない
	assert.NotPanics(t, func() {
		board.Occupy(-1, 0)
		board.Occupy(0, 20)
	})
}

func TestBoardMaxY(t *testing.T) {
	board := NewBoard(DefaultBoardWidth, DefaultBoardHeight)
	assert.Equal(t, 0, board.MaxY(0))
	assert.Equal(t, 0, board.MaxY(-1))
	assert.Equal(t, 0, board.MaxY(10))
	assert.True(t, board.ColumnEmpty(0))

	board.Occupy(2, 0)
	board.Occupy(2, 5)
	board.Occupy(4, 7)
	assert.Equal(t, 5, board.MaxY(2))
	assert.Equal(t, 7, board.MaxYMany([]int{2, 3, 4}))
	assert.Equal(t, 5, board.MaxYMany([]int{1, 2}))
	assert.Equal(t, 0, board.MaxYMany(nil))
	assert.False(t, board.ColumnEmpty(2))
}

func TestBoardClearLinesSingle(t *testing.T) {
	board := NewBoard(DefaultBoardWidth, DefaultBoardHeight)
	for x := 0; x < board.Width(); x++ {
		board.Occupy(x, 0)
	}
	board.Occupy(3, 1)

	cleared := board.ClearLines()
	assert.Equal(t, 1, cleared)
	// 上の行が一段下に落ちる
	assert.True(t, board.Filled(3, 0))
	assert.False(t, board.Filled(3, 1))
	for x := 0; x < board.Width(); x++ {
		assert.False(t, board.Filled(x, board.Height()-1))
	}
}

func TestBoardClearLinesNonAdjacent(t *testing.T) {
	board := NewBoard(DefaultBoardWidth, DefaultBoardHeight)
	for x := 0; x < board.Width(); x++ {
		board.Occupy(x, 0)
		board.Occupy(x, 2)
		board.Occupy(x, 4)
	}
	board.Occupy(0, 1)
	board.Occupy(1, 3)
	board.Occupy(2, 5)

	cleared := board.ClearLines()
	require.Equal(t, 3, cleared)

	assert.True(t, board.Filled(0, 0))
	assert.True(t, board.Filled(1, 1))
	assert.True(t, board.Filled(2, 2))
	filled := 0
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			if board.Filled(x, y) {
				filled++
			}
		}
	}
	assert.Equal(t, 3, filled)
	assert.Len(t, board.Snapshot(), DefaultBoardHeight)
}

func TestBoardClearLinesNothingFull(t *testing.T) {
	board := NewBoard(DefaultBoardWidth, DefaultBoardHeight)
	board.Occupy(0, 0)
	assert.Equal(t, 0, board.ClearLines())
	assert.True(t, board.Filled(0, 0))
}

func TestBoardSnapshotIsCopy(t *testing.T) {
	board := NewBoard(4, 3)
	board.Occupy(1, 2)
	snap := board.Snapshot()
	require.Len(t, snap, 3)
	require.Len(t, snap[0], 4)
	assert.True(t, snap[2][1])

	snap[0][0] = true
	assert.False(t, board.Filled(0, 0))
}
