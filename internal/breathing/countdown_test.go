package breathing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountdown_ReachesTerminalState(t *testing.T) {
	c := NewCountdown(240)
	c.Start()

	for i := 0; i < 240; i++ {
		c.Tick()
	}

	state := c.State()
	assert.Equal(t, 0, state.SecondsLeft)
	assert.True(t, state.Done)
	assert.False(t, state.Running)

	// 终止后不再递减（不循环）
	c.Tick()
	c.Tick()
	assert.Equal(t, 0, c.State().SecondsLeft)
	assert.True(t, c.State().Done)

	// 终止后 Start 不能重新启动，必须先 Reset
	c.Start()
	assert.False(t, c.State().Running)
}

func TestCountdown_PauseResumePreservesRemaining(t *testing.T) {
	c := NewCountdown(10)
	c.Start()
	for i := 0; i < 4; i++ {
		c.Tick()
	}
	assert.Equal(t, 6, c.State().SecondsLeft)

	c.Pause()
	c.Tick()
	c.Tick()
	assert.Equal(t, 6, c.State().SecondsLeft)

	c.Start()
	c.Tick()
	assert.Equal(t, 5, c.State().SecondsLeft)
}

func TestCountdown_Reset(t *testing.T) {
	c := NewCountdown(10)
	c.Start()
	for i := 0; i < 10; i++ {
		c.Tick()
	}
	assert.True(t, c.State().Done)

	c.Reset()
	state := c.State()
	assert.Equal(t, 10, state.SecondsLeft)
	assert.False(t, state.Done)
	assert.False(t, state.Running)

	c.Start()
	c.Tick()
	assert.Equal(t, 9, c.State().SecondsLeft)
}

func TestCountdown_DefaultDuration(t *testing.T) {
	c := NewCountdown(0)
	assert.Equal(t, DefaultSamplingSeconds, c.State().SecondsLeft)
}

func TestCountdown_NotRunningByDefault(t *testing.T) {
	c := NewCountdown(10)
	c.Tick()
	assert.Equal(t, 10, c.State().SecondsLeft)
}
