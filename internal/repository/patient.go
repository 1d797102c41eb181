package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"respira-monitor/internal/models"
)

// PatientRepository 患者仓库
type PatientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPatientRepository(db *sql.DB, logger *zap.Logger) *PatientRepository {
	return &PatientRepository{db: db, logger: logger}
}

// List 列出全部患者（监测页面的对象选择下拉框也用这个）
func (r *PatientRepository) List() ([]models.Patient, error) {
	query := `
		SELECT patient_id, doctor_id, first_name, last_name, email, phone, birth_date, status, created_at
		FROM patients
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var patients []models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, *p)
	}
	return patients, rows.Err()
}

// GetByID 按 ID 查询患者
func (r *PatientRepository) GetByID(patientID string) (*models.Patient, error) {
	query := `
		SELECT patient_id, doctor_id, first_name, last_name, email, phone, birth_date, status, created_at
		FROM patients
		WHERE patient_id = $1
	`
	return scanPatient(r.db.QueryRow(query, patientID))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var p models.Patient
	var doctorID sql.NullString
	var birthDate sql.NullTime

	if err := row.Scan(&p.PatientID, &doctorID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &birthDate, &p.Status, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan patient: %w", err)
	}

	if doctorID.Valid {
		p.DoctorID = &doctorID.String
	}
	if birthDate.Valid {
		t := birthDate.Time
		p.BirthDate = &t
	}
	return &p, nil
}

// Create 创建患者
func (r *PatientRepository) Create(p *models.Patient) error {
	if p.PatientID == "" {
		p.PatientID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}

	query := `
		INSERT INTO patients (patient_id, doctor_id, first_name, last_name, email, phone, birth_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	if err := r.db.QueryRow(query, p.PatientID, p.DoctorID, p.FirstName, p.LastName, p.Email, p.Phone, p.BirthDate, p.Status).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// Update 更新患者资料
func (r *PatientRepository) Update(p *models.Patient) error {
	query := `
		UPDATE patients
		SET doctor_id = $2, first_name = $3, last_name = $4, email = $5, phone = $6, birth_date = $7
		WHERE patient_id = $1
	`

	result, err := r.db.Exec(query, p.PatientID, p.DoctorID, p.FirstName, p.LastName, p.Email, p.Phone, p.BirthDate)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return checkAffected(result, "patient", p.PatientID)
}

// ChangeStatus 启用/停用患者
func (r *PatientRepository) ChangeStatus(patientID, status string) error {
	result, err := r.db.Exec(`UPDATE patients SET status = $2 WHERE patient_id = $1`, patientID, status)
	if err != nil {
		return fmt.Errorf("failed to change patient status: %w", err)
	}
	return checkAffected(result, "patient", patientID)
}

// Delete 删除患者
func (r *PatientRepository) Delete(patientID string) error {
	result, err := r.db.Exec(`DELETE FROM patients WHERE patient_id = $1`, patientID)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return checkAffected(result, "patient", patientID)
}
