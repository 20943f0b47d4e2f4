package tetris

import "time"

// TimerMode はタイマーが繰り返し型か一回限りかを表します。
type TimerMode int

const (
	TimerRepeating TimerMode = iota
	TimerOnce
)

// Timer はフレームごとに経過時間を進めるカウントダウンタイマーです。
// 壁時計には依存せず、Tick に渡された時間だけ進みます。
type Timer struct {
	duration     time.Duration
	elapsed      time.Duration
	mode         TimerMode
	finished     bool
	justFinished bool
}

// NewTimer は新しいタイマーを作成します。
//
// Parameters:
//   duration : 満了までの時間（繰り返し型では周期）
//   mode     : TimerRepeating または TimerOnce
func NewTimer(duration time.Duration, mode TimerMode) *Timer {
	return &Timer{duration: duration, mode: mode}
}

// Tick はタイマーを d だけ進めます。
// 繰り返し型は周期を超えた分を持ち越し、満了したティックだけ JustFinished を返します。
// 一回限りのタイマーは満了時点で止まり、満了した瞬間のティックだけ JustFinished を返します。
func (t *Timer) Tick(d time.Duration) *Timer {
	if t.mode == TimerOnce && t.finished {
		t.justFinished = false
		return t
	}
	t.elapsed += d
	t.justFinished = false
	if t.elapsed < t.duration {
		if t.mode == TimerRepeating {
			t.finished = false
		}
		return t
	}
	t.justFinished = true
	t.finished = true
	if t.mode == TimerRepeating {
		if t.duration > 0 {
			t.elapsed %= t.duration
		} else {
			t.elapsed = 0
		}
	} else {
		t.elapsed = t.duration
	}
	return t
}

// Finished は一回限りのタイマーでは満了済みかどうか、
// 繰り返し型では直前のティックで満了したかどうかを返します。
func (t *Timer) Finished() bool { return t.finished }

// JustFinished は直前の Tick で満了した場合にtrueを返します。
func (t *Timer) JustFinished() bool { return t.justFinished }

// Reset は経過時間を0に戻し、カウントを最初からやり直します。
func (t *Timer) Reset() {
	t.elapsed = 0
	t.finished = false
	t.justFinished = false
}

// Cancel はカウント中のタイマーを満了扱いにして止めます。JustFinished は立ちません。
func (t *Timer) Cancel() {
	t.elapsed = t.duration
	t.finished = true
	t.justFinished = false
}

// Elapsed は現在の経過時間を返します。
func (t *Timer) Elapsed() time.Duration { return t.elapsed }

// Duration はタイマーの満了時間を返します。
func (t *Timer) Duration() time.Duration { return t.duration }
