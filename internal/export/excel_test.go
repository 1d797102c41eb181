package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"respira-monitor/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestWriteSessionReport(t *testing.T) {
	startedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(4 * time.Minute)
	session := &models.MonitoringSession{
		SessionID: "session-1",
		PatientID: "patient-1",
		DeviceID:  "device-1",
		StartedAt: startedAt,
		EndedAt:   &endedAt,
		Status:    models.SessionClosed,
	}

	positive := true
	readings := []models.NormalizedReading{
		{
			ID:            "r-1",
			DeviceID:      "ESP32-0042",
			RecordedAt:    startedAt.Add(time.Second),
			Resp2Adc:      floatPtr(2052.5),
			Resp2Positive: &positive,
			BPM:           floatPtr(71),
		},
		{
			ID:         "r-2",
			DeviceID:   "ESP32-0042",
			RecordedAt: startedAt.Add(2 * time.Second),
			// 全部传感器字段缺失
		},
	}

	summary := &models.SessionSummary{
		SessionID:   "session-1",
		RecordCount: 2,
		AvgBPM:      floatPtr(71),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSessionReport(&buf, session, readings, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{recordsSheet, summarySheet}, f.GetSheetList())

	// 表头与第一条记录
	header, err := f.GetCellValue(recordsSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Recorded At", header)

	adc, err := f.GetCellValue(recordsSheet, "I2")
	require.NoError(t, err)
	assert.Equal(t, "2052.5", adc)

	// 缺失字段留空
	airflow, err := f.GetCellValue(recordsSheet, "C3")
	require.NoError(t, err)
	assert.Empty(t, airflow)

	// 汇总
	label, err := f.GetCellValue(summarySheet, "A6")
	require.NoError(t, err)
	assert.Equal(t, "Record Count", label)
	count, err := f.GetCellValue(summarySheet, "B6")
	require.NoError(t, err)
	assert.Equal(t, "2", count)
}
