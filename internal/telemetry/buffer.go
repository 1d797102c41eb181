package telemetry

import (
	"sync"

	"respira-monitor/internal/models"
)

// DefaultBufferCapacity 滑动窗口默认容量
const DefaultBufferCapacity = 300

// StreamBuffer 有界滑动窗口缓冲
//
// 按到达顺序保存最近 capacity 条读数（不按传感器时间戳排序，
// 网络抖动导致的乱序在渲染边界处理）。满时先进先出淘汰。
// 不去重：同一设备相同时间戳的两条读数都保留。
type StreamBuffer struct {
	mu       sync.Mutex
	capacity int
	readings []models.NormalizedReading
}

// NewStreamBuffer 创建缓冲；capacity <= 0 时使用默认容量
func NewStreamBuffer(capacity int) *StreamBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &StreamBuffer{
		capacity: capacity,
		readings: make([]models.NormalizedReading, 0, capacity),
	}
}

// Push 追加到尾部，超出容量时从头部淘汰
func (b *StreamBuffer) Push(r models.NormalizedReading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.readings = append(b.readings, r)
	if overflow := len(b.readings) - b.capacity; overflow > 0 {
		b.readings = append(b.readings[:0], b.readings[overflow:]...)
	}
}

// Snapshot 返回当前内容的副本（后续 Push 不影响已返回的快照）
func (b *StreamBuffer) Snapshot() []models.NormalizedReading {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.NormalizedReading, len(b.readings))
	copy(out, b.readings)
	return out
}

// Clear 清空缓冲（监测停止/重启、切换患者过滤时调用）
func (b *StreamBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.readings = b.readings[:0]
}

// Len 当前长度
func (b *StreamBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.readings)
}

// Capacity 容量上限
func (b *StreamBuffer) Capacity() int {
	return b.capacity
}
