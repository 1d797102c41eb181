package breathing

import "sync"

// DefaultSamplingSeconds 采样倒计时默认时长（4 分钟）
const DefaultSamplingSeconds = 240

// CountdownState 倒计时当前状态
type CountdownState struct {
	SecondsLeft int  `json:"secondsLeft"`
	Running     bool `json:"running"`
	Done        bool `json:"done"`
}

// Countdown 采样倒计时
//
// 与节拍器不同，倒计时不循环：归零进入终止 done 状态后不再递减。
// Pause/Resume 保留剩余时间，Reset 恢复到完整时长。
type Countdown struct {
	mu          sync.Mutex
	total       int
	secondsLeft int
	running     bool
	done        bool
}

// NewCountdown 创建倒计时（初始为暂停状态）；seconds <= 0 时使用默认时长
func NewCountdown(seconds int) *Countdown {
	if seconds <= 0 {
		seconds = DefaultSamplingSeconds
	}
	return &Countdown{
		total:       seconds,
		secondsLeft: seconds,
	}
}

// Start 开始（或从暂停处继续）递减
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.running = true
}

// Pause 暂停；剩余时间保留
func (c *Countdown) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

// Reset 恢复到完整时长并清除终止状态
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secondsLeft = c.total
	c.running = false
	c.done = false
}

// Tick 秒级时钟回调：递减一次，归零进入终止状态
func (c *Countdown) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.done {
		return
	}
	c.secondsLeft--
	if c.secondsLeft <= 0 {
		c.secondsLeft = 0
		c.done = true
		c.running = false
	}
}

// State 当前状态快照
func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CountdownState{
		SecondsLeft: c.secondsLeft,
		Running:     c.running,
		Done:        c.done,
	}
}
