package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRepeatingTimerWrapsAround(t *testing.T) {
	timer := NewTimer(400*time.Millisecond, TimerRepeating)

	assert.False(t, timer.Tick(300*time.Millisecond).JustFinished())
	assert.True(t, timer.Tick(150*time.Millisecond).JustFinished())
	// 周期を超えた50msは次の周期に持ち越される
	assert.Equal(t, 50*time.Millisecond, timer.Elapsed())
	assert.False(t, timer.Tick(300*time.Millisecond).JustFinished())
	assert.True(t, timer.Tick(50*time.Millisecond).JustFinished())
	assert.Equal(t, time.Duration(0), timer.Elapsed())
}

func TestOnceTimerFinishesOnce(t *testing.T) {
	timer := NewTimer(500*time.Millisecond, TimerOnce)

	assert.False(t, timer.Tick(499*time.Millisecond).JustFinished())
	assert.False(t, timer.Finished())
	assert.True(t, timer.Tick(time.Millisecond).JustFinished())
	assert.True(t, timer.Finished())

	// 満了後は止まったまま
	assert.False(t, timer.Tick(time.Second).JustFinished())
	assert.True(t, timer.Finished())
	assert.Equal(t, 500*time.Millisecond, timer.Elapsed())
}

func TestTimerResetAndCancel(t *testing.T) {
	timer := NewTimer(500*time.Millisecond, TimerOnce)
	timer.Cancel()
	assert.True(t, timer.Finished())
	// Cancel は満了イベントを発生させない
	assert.False(t, timer.JustFinished())
	assert.False(t, timer.Tick(time.Second).JustFinished())

	timer.Reset()
	assert.False(t, timer.Finished())
	assert.Equal(t, time.Duration(0), timer.Elapsed())
	timer.Tick(200 * time.Millisecond)
	timer.Reset()
	assert.False(t, timer.Tick(400*time.Millisecond).JustFinished())
	assert.True(t, timer.Tick(100*time.Millisecond).JustFinished())
}
