package breathing

import (
	"sync"
	"time"
)

// Tickable 由共享时钟驱动的状态机
type Tickable interface {
	Tick()
}

// Ticker 共享秒级时钟
//
// 节拍器和倒计时是两个独立状态机，但共用同一个时钟源，
// 停止监测时统一取消，避免定时器泄漏。Stop 幂等。
type Ticker struct {
	mu       sync.Mutex
	interval time.Duration
	targets  []Tickable
	stop     chan struct{}
}

// NewTicker 创建时钟；interval <= 0 时默认 1 秒
func NewTicker(interval time.Duration, targets ...Tickable) *Ticker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		interval: interval,
		targets:  targets,
	}
}

// Start 启动时钟；已启动时为空操作
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})

	go t.run(t.stop)
}

func (t *Ticker) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			targets := t.targets
			t.mu.Unlock()
			for _, target := range targets {
				target.Tick()
			}
		}
	}
}

// Stop 停止时钟并释放底层定时器；未启动时为空操作
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}
