// Package export 生成会话报告 Excel 文件
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"respira-monitor/internal/models"
)

const (
	recordsSheet = "Records"
	summarySheet = "Summary"

	timeLayout = "2006-01-02 15:04:05.000"
)

var recordHeaders = []string{
	"Recorded At", "Device", "Airflow", "Resp Baseline", "Resp Diff Abs",
	"Resp Rate", "BPM", "SpO2", "Resp2 ADC", "Resp2 Positive", "Mic Air",
}

// WriteSessionReport 把会话记录与汇总写成 XLSX
//
// Records 工作表逐条列出采样记录，缺失字段留空（不写 0）；
// Summary 工作表列出会话元数据与聚合指标。
func WriteSessionReport(w io.Writer, session *models.MonitoringSession, readings []models.NormalizedReading, summary *models.SessionSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(recordsSheet)
	if err != nil {
		return fmt.Errorf("failed to create records sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := writeRecords(f, readings); err != nil {
		return err
	}
	if err := writeSummary(f, session, summary); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRecords(f *excelize.File, readings []models.NormalizedReading) error {
	for col, header := range recordHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(recordsSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, r := range readings {
		row := i + 2
		values := []interface{}{
			r.RecordedAt.Format(timeLayout),
			r.DeviceID,
			floatCell(r.AirflowValue),
			floatCell(r.RespBaseline),
			floatCell(r.RespDiffAbs),
			floatCell(r.RespRate),
			floatCell(r.BPM),
			floatCell(r.SpO2),
			floatCell(r.Resp2Adc),
			boolCell(r.Resp2Positive),
			floatCell(r.MicAirValue),
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(recordsSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write record row %d: %w", row, err)
			}
		}
	}
	return nil
}

func writeSummary(f *excelize.File, session *models.MonitoringSession, summary *models.SessionSummary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	endedAt := ""
	if session.EndedAt != nil {
		endedAt = session.EndedAt.Format(timeLayout)
	}

	rows := [][2]interface{}{
		{"Session", session.SessionID},
		{"Patient", session.PatientID},
		{"Device", session.DeviceID},
		{"Started At", session.StartedAt.Format(timeLayout)},
		{"Ended At", endedAt},
		{"Record Count", summary.RecordCount},
		{"Avg Airflow", floatCell(summary.AvgAirflow)},
		{"Avg BPM", floatCell(summary.AvgBPM)},
		{"Avg SpO2", floatCell(summary.AvgSpO2)},
		{"Avg Resp Rate", floatCell(summary.AvgRespRate)},
		{"Avg Resp2 ADC", floatCell(summary.AvgResp2Adc)},
		{"Resp2 Positive %", floatCell(summary.Resp2PositivePct)},
	}

	for i, row := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+1)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+1)
		if err := f.SetCellValue(summarySheet, labelCell, row[0]); err != nil {
			return fmt.Errorf("failed to write summary label: %w", err)
		}
		if row[1] == nil {
			continue
		}
		if err := f.SetCellValue(summarySheet, valueCell, row[1]); err != nil {
			return fmt.Errorf("failed to write summary value: %w", err)
		}
	}
	return nil
}

// floatCell nil → 空单元格（缺失读数不能写成 0）
func floatCell(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func boolCell(v *bool) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
