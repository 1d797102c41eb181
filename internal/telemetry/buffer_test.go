package telemetry

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"respira-monitor/internal/models"
)

func mkReading(id string) models.NormalizedReading {
	return models.NormalizedReading{
		ID:         id,
		DeviceID:   "ESP32-001",
		RecordedAt: time.Now().UTC(),
	}
}

func TestStreamBuffer_BoundNeverExceeded(t *testing.T) {
	buf := NewStreamBuffer(5)

	for i := 0; i < 23; i++ {
		buf.Push(mkReading(fmt.Sprintf("r-%d", i)))
		assert.LessOrEqual(t, buf.Len(), 5)
	}

	// 超出容量后内容等于最近 capacity 条，按到达顺序
	snap := buf.Snapshot()
	require.Len(t, snap, 5)
	for i, r := range snap {
		assert.Equal(t, fmt.Sprintf("r-%d", 18+i), r.ID)
	}
}

func TestStreamBuffer_SnapshotIsCopy(t *testing.T) {
	buf := NewStreamBuffer(3)
	buf.Push(mkReading("a"))
	buf.Push(mkReading("b"))

	snap := buf.Snapshot()
	buf.Push(mkReading("c"))
	buf.Push(mkReading("d"))

	// 快照不受后续 Push 影响
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].ID)
	assert.Equal(t, "b", snap[1].ID)
}

func TestStreamBuffer_Clear(t *testing.T) {
	buf := NewStreamBuffer(3)
	buf.Push(mkReading("a"))
	buf.Push(mkReading("b"))

	buf.Clear()
	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, buf.Snapshot())

	// 清空后继续可用
	buf.Push(mkReading("c"))
	assert.Equal(t, 1, buf.Len())
}

func TestStreamBuffer_NoDeduplication(t *testing.T) {
	buf := NewStreamBuffer(10)
	ts := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	r1 := models.NormalizedReading{ID: "x1", DeviceID: "ESP32-001", RecordedAt: ts}
	r2 := models.NormalizedReading{ID: "x2", DeviceID: "ESP32-001", RecordedAt: ts}
	buf.Push(r1)
	buf.Push(r2)

	// 相同时间戳的两条读数都保留，按到达顺序
	snap := buf.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "x1", snap[0].ID)
	assert.Equal(t, "x2", snap[1].ID)
}

func TestStreamBuffer_DefaultCapacity(t *testing.T) {
	buf := NewStreamBuffer(0)
	assert.Equal(t, DefaultBufferCapacity, buf.Capacity())
}
