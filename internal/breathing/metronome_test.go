package breathing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"respira-monitor/internal/models"
)

func TestMetronome_StartResetsToFirstStep(t *testing.T) {
	var cues []models.BreathingPhase
	m := NewMetronome(nil, func(phase models.BreathingPhase) {
		cues = append(cues, phase)
	})

	m.Start()

	state := m.State()
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, models.PhaseInhale, state.Phase)
	assert.Equal(t, 2, state.SecondsLeft)
	assert.True(t, state.Running)
	assert.Equal(t, []models.BreathingPhase{models.PhaseInhale}, cues)
}

func TestMetronome_TenSecondCycle(t *testing.T) {
	// 吸气2s → 屏息2s → 呼气6s；推进 10 个模拟秒回到吸气整点
	var cues []models.BreathingPhase
	m := NewMetronome(nil, func(phase models.BreathingPhase) {
		cues = append(cues, phase)
	})
	m.Start()

	phases := []models.BreathingPhase{m.State().Phase}
	for i := 0; i < 10; i++ {
		m.Tick()
		phases = append(phases, m.State().Phase)
	}

	// t=0..1 吸气，t=2..3 屏息，t=4..9 呼气，t=10 回到吸气
	expected := []models.BreathingPhase{
		models.PhaseInhale, models.PhaseInhale,
		models.PhaseHold, models.PhaseHold,
		models.PhaseExhale, models.PhaseExhale, models.PhaseExhale,
		models.PhaseExhale, models.PhaseExhale, models.PhaseExhale,
		models.PhaseInhale,
	}
	assert.Equal(t, expected, phases)

	// t=10 时是新周期的吸气整点
	state := m.State()
	assert.Equal(t, models.PhaseInhale, state.Phase)
	assert.Equal(t, 2, state.SecondsLeft)

	// 提示音：启动 + 每次步骤切换（含进入呼气）
	assert.Equal(t, []models.BreathingPhase{
		models.PhaseInhale, models.PhaseHold, models.PhaseExhale, models.PhaseInhale,
	}, cues)
}

func TestMetronome_PausePreservesRemaining(t *testing.T) {
	m := NewMetronome(nil, nil)
	m.Start()
	m.Tick() // inhale 2 → 1

	m.Pause()
	before := m.State()
	assert.False(t, before.Running)
	assert.Equal(t, 1, before.SecondsLeft)

	// 暂停期间 Tick 不生效
	m.Tick()
	m.Tick()
	assert.Equal(t, 1, m.State().SecondsLeft)
	assert.Equal(t, models.PhaseInhale, m.State().Phase)

	// 恢复后从暂停处继续，而不是从步骤开头
	m.Resume()
	m.Tick()
	state := m.State()
	assert.Equal(t, models.PhaseHold, state.Phase)
	assert.Equal(t, 2, state.SecondsLeft)
}

func TestMetronome_RestartResetsMidCycle(t *testing.T) {
	m := NewMetronome(nil, nil)
	m.Start()
	for i := 0; i < 5; i++ {
		m.Tick()
	}
	require.Equal(t, models.PhaseExhale, m.State().Phase)

	// 重新 Start 回到第 0 步
	m.Start()
	state := m.State()
	assert.Equal(t, 0, state.Index)
	assert.Equal(t, models.PhaseInhale, state.Phase)
	assert.Equal(t, 2, state.SecondsLeft)
}

func TestMetronome_CyclesIndefinitely(t *testing.T) {
	m := NewMetronome(nil, nil)
	m.Start()

	// 多个完整周期后仍在运行
	for i := 0; i < 100; i++ {
		m.Tick()
	}
	assert.True(t, m.State().Running)
	assert.Equal(t, models.PhaseInhale, m.State().Phase)
}
