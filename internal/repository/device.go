package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"respira-monitor/internal/models"
)

// DeviceRepository 设备仓库
type DeviceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDeviceRepository(db *sql.DB, logger *zap.Logger) *DeviceRepository {
	return &DeviceRepository{db: db, logger: logger}
}

// List 列出全部设备
func (r *DeviceRepository) List() ([]models.Device, error) {
	query := `
		SELECT device_id, serial_number, name, location, patient_id, status, created_at
		FROM devices
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, rows.Err()
}

// GetBySerialNumber 按序列号查询设备（遥测消息用 deviceId=序列号上报）
func (r *DeviceRepository) GetBySerialNumber(serialNumber string) (*models.Device, error) {
	query := `
		SELECT device_id, serial_number, name, location, patient_id, status, created_at
		FROM devices
		WHERE serial_number = $1
	`
	return scanDevice(r.db.QueryRow(query, serialNumber))
}

func scanDevice(row rowScanner) (*models.Device, error) {
	var d models.Device
	var patientID sql.NullString

	if err := row.Scan(&d.DeviceID, &d.SerialNumber, &d.Name, &d.Location, &patientID, &d.Status, &d.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan device: %w", err)
	}

	if patientID.Valid {
		d.PatientID = &patientID.String
	}
	return &d, nil
}

// Create 创建设备
func (r *DeviceRepository) Create(d *models.Device) error {
	if d.DeviceID == "" {
		d.DeviceID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = models.StatusActive
	}

	query := `
		INSERT INTO devices (device_id, serial_number, name, location, patient_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	if err := r.db.QueryRow(query, d.DeviceID, d.SerialNumber, d.Name, d.Location, d.PatientID, d.Status).Scan(&d.CreatedAt); err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// Update 更新设备（含患者绑定）
func (r *DeviceRepository) Update(d *models.Device) error {
	query := `
		UPDATE devices
		SET serial_number = $2, name = $3, location = $4, patient_id = $5
		WHERE device_id = $1
	`

	result, err := r.db.Exec(query, d.DeviceID, d.SerialNumber, d.Name, d.Location, d.PatientID)
	if err != nil {
		return fmt.Errorf("failed to update device: %w", err)
	}
	return checkAffected(result, "device", d.DeviceID)
}

// ChangeStatus 启用/停用设备
func (r *DeviceRepository) ChangeStatus(deviceID, status string) error {
	result, err := r.db.Exec(`UPDATE devices SET status = $2 WHERE device_id = $1`, deviceID, status)
	if err != nil {
		return fmt.Errorf("failed to change device status: %w", err)
	}
	return checkAffected(result, "device", deviceID)
}

// Delete 删除设备
func (r *DeviceRepository) Delete(deviceID string) error {
	result, err := r.db.Exec(`DELETE FROM devices WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return checkAffected(result, "device", deviceID)
}
