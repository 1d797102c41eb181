package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"respira-monitor/internal/models"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func floatPtr(v float64) *float64 { return &v }

func TestSessionRepository_StartAndClose(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	startedAt := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO monitoring_sessions`).
		WithArgs(sqlmock.AnyArg(), "patient-1", "device-1", models.SessionActive).
		WillReturnRows(sqlmock.NewRows([]string{"started_at"}).AddRow(startedAt))

	s, err := repo.Start("patient-1", "device-1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, models.SessionActive, s.Status)
	assert.Equal(t, startedAt, s.StartedAt)

	endedAt := startedAt.Add(4 * time.Minute)
	mock.ExpectExec(`UPDATE monitoring_sessions`).
		WithArgs(s.SessionID, endedAt, models.SessionClosed, models.SessionActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Close(s.SessionID, endedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_CloseAlreadyClosed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	mock.ExpectExec(`UPDATE monitoring_sessions`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Close("session-1", time.Now())
	assert.Error(t, err)
}

func TestSessionRepository_InsertRecord(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	positive := true
	reading := &models.NormalizedReading{
		ID:            "rec-1",
		DeviceID:      "device-1",
		RecordedAt:    time.Now().UTC(),
		Resp2Adc:      floatPtr(2052.4),
		Resp2Positive: &positive,
	}

	mock.ExpectExec(`INSERT INTO session_records`).
		WithArgs("rec-1", "session-1", "device-1", reading.RecordedAt,
			nil, nil, nil, nil, nil, nil, reading.Resp2Adc, reading.Resp2Positive, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.InsertRecord("session-1", reading))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListRecords_NullFieldsStayAbsent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	recordedAt := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"record_id", "device_id", "recorded_at",
		"airflow_value", "resp_baseline", "resp_diff_abs", "resp_rate",
		"bpm", "spo2", "resp2_adc", "resp2_positive", "mic_air_value",
	}).AddRow("rec-1", "device-1", recordedAt,
		nil, nil, nil, nil, 72.5, 97.0, 2051.0, true, nil)

	mock.ExpectQuery(`SELECT .+ FROM session_records`).
		WithArgs("session-1").
		WillReturnRows(rows)

	readings, err := repo.ListRecords("session-1")
	require.NoError(t, err)
	require.Len(t, readings, 1)

	r := readings[0]
	assert.Nil(t, r.AirflowValue)
	assert.Nil(t, r.MicAirValue)
	require.NotNil(t, r.BPM)
	assert.Equal(t, 72.5, *r.BPM)
	require.NotNil(t, r.Resp2Positive)
	assert.True(t, *r.Resp2Positive)
}

func TestSessionRepository_GetSummary(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepository(db, zap.NewNop())

	rows := sqlmock.NewRows([]string{"count", "avg_airflow", "avg_bpm", "avg_spo2", "avg_resp_rate", "avg_resp2_adc", "positive_pct"}).
		AddRow(240, nil, 71.2, 96.8, 14.5, 2049.3, 47.5)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("session-1").
		WillReturnRows(rows)

	summary, err := repo.GetSummary("session-1")
	require.NoError(t, err)
	assert.Equal(t, 240, summary.RecordCount)
	assert.Nil(t, summary.AvgAirflow) // 整个会话都没有主通道数据时保持缺省
	require.NotNil(t, summary.AvgBPM)
	assert.Equal(t, 71.2, *summary.AvgBPM)
	require.NotNil(t, summary.Resp2PositivePct)
	assert.Equal(t, 47.5, *summary.Resp2PositivePct)
}
