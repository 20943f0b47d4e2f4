package replay

import (
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/services/tetris"
)

// Event は何かが起きたティックの記録です。
type Event struct {
	Tick   int
	At     time.Duration // ゲーム内の経過時間
	Result tetris.TickResult
}

// Summary は再生結果のまとめです。
type Summary struct {
	Seed         int64
	Ticks        int
	Elapsed      time.Duration
	PiecesPlaced int
	LinesCleared int
	Points       int
	GameOver     bool
	Events       []Event
	Final        tetris.Snapshot
}

// Run はスクリプトをゲームに流し込み、結果をまとめます。ゲームオーバーになった時点で止まります。
// 同じシードとスクリプトからは常に同じ結果が得られます。
//
// Parameters:
//   script : 再生するスクリプト
//   cfg    : ゲーム設定
func Run(script *Script, cfg tetris.Config) Summary {
	game := tetris.NewGame(cfg, rand.New(rand.NewSource(script.Seed)))
	sum := Summary{Seed: script.Seed}

	for _, frame := range script.Frames {
		repeat := frame.Repeat
		if repeat == 0 {
			repeat = 1
		}
		dt := time.Duration(frame.DT)
		for i := 0; i < repeat; i++ {
			var inputs []tetris.InputEvent
			if i == 0 {
				inputs = frame.Inputs
			}
			res := game.Tick(inputs, dt)
			sum.Ticks++
			sum.Elapsed += dt
			if !res.Empty() {
				sum.Events = append(sum.Events, Event{Tick: sum.Ticks, At: sum.Elapsed, Result: res})
			}
			if res.GameOver {
				sum.GameOver = true
				return sum.finish(game)
			}
		}
	}
	return sum.finish(game)
}

func (s Summary) finish(game *tetris.Game) Summary {
	s.Final = game.Snapshot()
	s.PiecesPlaced = s.Final.PiecesPlaced
	s.LinesCleared = s.Final.Score.LinesCleared
	s.Points = s.Final.Score.Points
	return s
}
