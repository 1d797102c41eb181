package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"respira-monitor/internal/models"
)

// DoctorRepository 医生仓库
type DoctorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDoctorRepository(db *sql.DB, logger *zap.Logger) *DoctorRepository {
	return &DoctorRepository{db: db, logger: logger}
}

// List 列出全部医生
func (r *DoctorRepository) List() ([]models.Doctor, error) {
	query := `
		SELECT doctor_id, first_name, last_name, email, phone, speciality, status, created_at
		FROM doctors
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	var doctors []models.Doctor
	for rows.Next() {
		var d models.Doctor
		if err := rows.Scan(&d.DoctorID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.Speciality, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

// Create 创建医生
func (r *DoctorRepository) Create(d *models.Doctor) error {
	if d.DoctorID == "" {
		d.DoctorID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = models.StatusActive
	}

	query := `
		INSERT INTO doctors (doctor_id, first_name, last_name, email, phone, speciality, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	if err := r.db.QueryRow(query, d.DoctorID, d.FirstName, d.LastName, d.Email, d.Phone, d.Speciality, d.Status).Scan(&d.CreatedAt); err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

// Update 更新医生资料
func (r *DoctorRepository) Update(d *models.Doctor) error {
	query := `
		UPDATE doctors
		SET first_name = $2, last_name = $3, email = $4, phone = $5, speciality = $6
		WHERE doctor_id = $1
	`

	result, err := r.db.Exec(query, d.DoctorID, d.FirstName, d.LastName, d.Email, d.Phone, d.Speciality)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	return checkAffected(result, "doctor", d.DoctorID)
}

// ChangeStatus 启用/停用医生
func (r *DoctorRepository) ChangeStatus(doctorID, status string) error {
	result, err := r.db.Exec(`UPDATE doctors SET status = $2 WHERE doctor_id = $1`, doctorID, status)
	if err != nil {
		return fmt.Errorf("failed to change doctor status: %w", err)
	}
	return checkAffected(result, "doctor", doctorID)
}

// Delete 删除医生
func (r *DoctorRepository) Delete(doctorID string) error {
	result, err := r.db.Exec(`DELETE FROM doctors WHERE doctor_id = $1`, doctorID)
	if err != nil {
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return checkAffected(result, "doctor", doctorID)
}

// checkAffected 校验写操作命中了记录
func checkAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
