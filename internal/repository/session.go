package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"respira-monitor/internal/models"
)

// SessionRepository 监测会话与采样记录仓库
type SessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSessionRepository(db *sql.DB, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

// Start 创建活动会话
func (r *SessionRepository) Start(patientID, deviceID string) (*models.MonitoringSession, error) {
	s := &models.MonitoringSession{
		SessionID: uuid.NewString(),
		PatientID: patientID,
		DeviceID:  deviceID,
		Status:    models.SessionActive,
	}

	query := `
		INSERT INTO monitoring_sessions (session_id, patient_id, device_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING started_at
	`

	if err := r.db.QueryRow(query, s.SessionID, s.PatientID, s.DeviceID, s.Status).Scan(&s.StartedAt); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	return s, nil
}

// Close 关闭会话并写入结束时间
func (r *SessionRepository) Close(sessionID string, endedAt time.Time) error {
	query := `
		UPDATE monitoring_sessions
		SET ended_at = $2, status = $3
		WHERE session_id = $1 AND status = $4
	`

	result, err := r.db.Exec(query, sessionID, endedAt, models.SessionClosed, models.SessionActive)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return checkAffected(result, "active session", sessionID)
}

// GetByID 按 ID 查询会话
func (r *SessionRepository) GetByID(sessionID string) (*models.MonitoringSession, error) {
	query := `
		SELECT session_id, patient_id, device_id, started_at, ended_at, status
		FROM monitoring_sessions
		WHERE session_id = $1
	`

	var s models.MonitoringSession
	var endedAt sql.NullTime
	if err := r.db.QueryRow(query, sessionID).Scan(&s.SessionID, &s.PatientID, &s.DeviceID, &s.StartedAt, &endedAt, &s.Status); err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	return &s, nil
}

// ListAll 列出全部会话
func (r *SessionRepository) ListAll() ([]models.MonitoringSession, error) {
	query := `
		SELECT session_id, patient_id, device_id, started_at, ended_at, status
		FROM monitoring_sessions
		ORDER BY started_at DESC
	`
	return r.querySessions(query)
}

// ListByPatient 列出某患者的会话
func (r *SessionRepository) ListByPatient(patientID string) ([]models.MonitoringSession, error) {
	query := `
		SELECT session_id, patient_id, device_id, started_at, ended_at, status
		FROM monitoring_sessions
		WHERE patient_id = $1
		ORDER BY started_at DESC
	`
	return r.querySessions(query, patientID)
}

func (r *SessionRepository) querySessions(query string, args ...interface{}) ([]models.MonitoringSession, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.MonitoringSession
	for rows.Next() {
		var s models.MonitoringSession
		var endedAt sql.NullTime
		if err := rows.Scan(&s.SessionID, &s.PatientID, &s.DeviceID, &s.StartedAt, &endedAt, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if endedAt.Valid {
			t := endedAt.Time
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// InsertRecord 写入一条采样记录（逐条落库，相位在渲染时推导，不入库）
func (r *SessionRepository) InsertRecord(sessionID string, reading *models.NormalizedReading) error {
	query := `
		INSERT INTO session_records (
			record_id, session_id, device_id, recorded_at,
			airflow_value, resp_baseline, resp_diff_abs, resp_rate,
			bpm, spo2, resp2_adc, resp2_positive, mic_air_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Exec(query,
		reading.ID, sessionID, reading.DeviceID, reading.RecordedAt,
		reading.AirflowValue, reading.RespBaseline, reading.RespDiffAbs, reading.RespRate,
		reading.BPM, reading.SpO2, reading.Resp2Adc, reading.Resp2Positive, reading.MicAirValue,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session record: %w", err)
	}
	return nil
}

// ListRecords 按时间升序取会话的全部采样记录（报告导出用）
func (r *SessionRepository) ListRecords(sessionID string) ([]models.NormalizedReading, error) {
	query := `
		SELECT record_id, device_id, recorded_at,
		       airflow_value, resp_baseline, resp_diff_abs, resp_rate,
		       bpm, spo2, resp2_adc, resp2_positive, mic_air_value
		FROM session_records
		WHERE session_id = $1
		ORDER BY recorded_at ASC
	`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query session records: %w", err)
	}
	defer rows.Close()

	var readings []models.NormalizedReading
	for rows.Next() {
		var rec models.NormalizedReading
		var airflow, baseline, diffAbs, respRate, bpm, spo2, resp2Adc, micAir sql.NullFloat64
		var resp2Positive sql.NullBool

		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.RecordedAt,
			&airflow, &baseline, &diffAbs, &respRate,
			&bpm, &spo2, &resp2Adc, &resp2Positive, &micAir,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}

		rec.AirflowValue = nullFloat(airflow)
		rec.RespBaseline = nullFloat(baseline)
		rec.RespDiffAbs = nullFloat(diffAbs)
		rec.RespRate = nullFloat(respRate)
		rec.BPM = nullFloat(bpm)
		rec.SpO2 = nullFloat(spo2)
		rec.Resp2Adc = nullFloat(resp2Adc)
		rec.MicAirValue = nullFloat(micAir)
		if resp2Positive.Valid {
			b := resp2Positive.Bool
			rec.Resp2Positive = &b
		}

		readings = append(readings, rec)
	}
	return readings, rows.Err()
}

// GetSummary 计算会话的聚合指标（数据库侧 AVG，空列得到 NULL 映射为 nil）
func (r *SessionRepository) GetSummary(sessionID string) (*models.SessionSummary, error) {
	query := `
		SELECT COUNT(*),
		       AVG(airflow_value), AVG(bpm), AVG(spo2), AVG(resp_rate), AVG(resp2_adc),
		       AVG(CASE WHEN resp2_positive THEN 100.0 WHEN NOT resp2_positive THEN 0.0 END)
		FROM session_records
		WHERE session_id = $1
	`

	summary := &models.SessionSummary{SessionID: sessionID}
	var avgAirflow, avgBPM, avgSpO2, avgRespRate, avgResp2Adc, positivePct sql.NullFloat64

	err := r.db.QueryRow(query, sessionID).Scan(&summary.RecordCount,
		&avgAirflow, &avgBPM, &avgSpO2, &avgRespRate, &avgResp2Adc, &positivePct)
	if err != nil {
		return nil, fmt.Errorf("failed to compute session summary: %w", err)
	}

	summary.AvgAirflow = nullFloat(avgAirflow)
	summary.AvgBPM = nullFloat(avgBPM)
	summary.AvgSpO2 = nullFloat(avgSpO2)
	summary.AvgRespRate = nullFloat(avgRespRate)
	summary.AvgResp2Adc = nullFloat(avgResp2Adc)
	summary.Resp2PositivePct = nullFloat(positivePct)
	return summary, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
