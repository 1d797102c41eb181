package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"respira-monitor/internal/models"
)

func TestDeviceRepository_GetBySerialNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDeviceRepository(db, zap.NewNop())

	rows := sqlmock.NewRows([]string{"device_id", "serial_number", "name", "location", "patient_id", "status", "created_at"}).
		AddRow("device-1", "ESP32-0042", "Bedside unit", "Room 12", "patient-1", models.StatusActive, time.Now())

	mock.ExpectQuery(`SELECT .+ FROM devices`).
		WithArgs("ESP32-0042").
		WillReturnRows(rows)

	d, err := repo.GetBySerialNumber("ESP32-0042")
	require.NoError(t, err)
	assert.Equal(t, "device-1", d.DeviceID)
	require.NotNil(t, d.PatientID)
	assert.Equal(t, "patient-1", *d.PatientID)
}

func TestDeviceRepository_UnassignedDevice(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDeviceRepository(db, zap.NewNop())

	rows := sqlmock.NewRows([]string{"device_id", "serial_number", "name", "location", "patient_id", "status", "created_at"}).
		AddRow("device-2", "ESP32-0099", "Spare", "Storage", nil, models.StatusInactive, time.Now())

	mock.ExpectQuery(`SELECT .+ FROM devices`).
		WithArgs("ESP32-0099").
		WillReturnRows(rows)

	d, err := repo.GetBySerialNumber("ESP32-0099")
	require.NoError(t, err)
	assert.Nil(t, d.PatientID)
}

func TestDeviceRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDeviceRepository(db, zap.NewNop())

	mock.ExpectQuery(`INSERT INTO devices`).
		WithArgs(sqlmock.AnyArg(), "ESP32-0042", "Bedside unit", "Room 12", nil, models.StatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	d := &models.Device{SerialNumber: "ESP32-0042", Name: "Bedside unit", Location: "Room 12"}
	require.NoError(t, repo.Create(d))
	assert.NotEmpty(t, d.DeviceID)
	assert.Equal(t, models.StatusActive, d.Status)
}

func TestDeviceRepository_ChangeStatusNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewDeviceRepository(db, zap.NewNop())

	mock.ExpectExec(`UPDATE devices`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ChangeStatus("missing", models.StatusInactive)
	assert.Error(t, err)
}
