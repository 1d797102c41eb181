// Package breathing 实现引导呼吸练习的定时状态机：
// 固定节律的节拍器（吸气/屏息/呼气循环）和采样倒计时。
// 两者都由外部的秒级时钟驱动（见 Ticker），便于在测试中模拟时间推进。
package breathing

import (
	"sync"

	"respira-monitor/internal/models"
)

// Step 节拍器步骤
type Step struct {
	Phase   models.BreathingPhase
	Seconds int
}

// DefaultSteps 默认引导节律：吸气 2s → 屏息 2s → 呼气 6s，循环
func DefaultSteps() []Step {
	return []Step{
		{Phase: models.PhaseInhale, Seconds: 2},
		{Phase: models.PhaseHold, Seconds: 2},
		{Phase: models.PhaseExhale, Seconds: 6},
	}
}

// CueFunc 进入新步骤时的提示音回调（呼气步骤由调用方播放不同音色）
type CueFunc func(phase models.BreathingPhase)

// MetronomeState 节拍器当前状态
type MetronomeState struct {
	Index       int                   `json:"index"`
	Phase       models.BreathingPhase `json:"phase"`
	SecondsLeft int                   `json:"secondsLeft"`
	Running     bool                  `json:"running"`
}

// Metronome 引导呼吸节拍器
//
// 循环无终止条件：只有显式 Pause 或会话停止（外部时钟停止）
// 会让它停下。Pause 保留剩余秒数，恢复时从暂停处继续。
type Metronome struct {
	mu          sync.Mutex
	steps       []Step
	index       int
	secondsLeft int
	running     bool
	cue         CueFunc
}

// NewMetronome 创建节拍器（初始为暂停状态）；steps 为空时使用默认节律
func NewMetronome(steps []Step, cue CueFunc) *Metronome {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	return &Metronome{
		steps:       steps,
		secondsLeft: steps[0].Seconds,
		cue:         cue,
	}
}

// Start 从第 0 步重新开始并发出提示音
func (m *Metronome) Start() {
	m.mu.Lock()
	m.index = 0
	m.secondsLeft = m.steps[0].Seconds
	m.running = true
	cue := m.cue
	phase := m.steps[0].Phase
	m.mu.Unlock()

	if cue != nil {
		cue(phase)
	}
}

// Pause 暂停；剩余秒数保留，Resume 后从暂停处继续
func (m *Metronome) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

// Resume 从暂停处继续（不重置步骤）
func (m *Metronome) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
}

// Tick 秒级时钟回调：递减剩余秒数，归零时进入下一步骤并发提示音
func (m *Metronome) Tick() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}

	var cue CueFunc
	var phase models.BreathingPhase
	if m.secondsLeft > 1 {
		m.secondsLeft--
	} else {
		m.index = (m.index + 1) % len(m.steps)
		m.secondsLeft = m.steps[m.index].Seconds
		cue = m.cue
		phase = m.steps[m.index].Phase
	}
	m.mu.Unlock()

	if cue != nil {
		cue(phase)
	}
}

// State 当前状态快照
func (m *Metronome) State() MetronomeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetronomeState{
		Index:       m.index,
		Phase:       m.steps[m.index].Phase,
		SecondsLeft: m.secondsLeft,
		Running:     m.running,
	}
}
