package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"respira-monitor/internal/models"
)

// FamilyRepository 家属仓库
type FamilyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewFamilyRepository(db *sql.DB, logger *zap.Logger) *FamilyRepository {
	return &FamilyRepository{db: db, logger: logger}
}

// List 列出全部家属
func (r *FamilyRepository) List() ([]models.FamilyMember, error) {
	query := `
		SELECT family_id, patient_id, first_name, last_name, email, relationship, status, created_at
		FROM family_members
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	var members []models.FamilyMember
	for rows.Next() {
		var m models.FamilyMember
		if err := rows.Scan(&m.FamilyID, &m.PatientID, &m.FirstName, &m.LastName, &m.Email, &m.Relationship, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListByPatient 列出某患者的家属
func (r *FamilyRepository) ListByPatient(patientID string) ([]models.FamilyMember, error) {
	query := `
		SELECT family_id, patient_id, first_name, last_name, email, relationship, status, created_at
		FROM family_members
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	var members []models.FamilyMember
	for rows.Next() {
		var m models.FamilyMember
		if err := rows.Scan(&m.FamilyID, &m.PatientID, &m.FirstName, &m.LastName, &m.Email, &m.Relationship, &m.Status, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Create 创建家属
func (r *FamilyRepository) Create(m *models.FamilyMember) error {
	if m.FamilyID == "" {
		m.FamilyID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = models.StatusActive
	}

	query := `
		INSERT INTO family_members (family_id, patient_id, first_name, last_name, email, relationship, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	if err := r.db.QueryRow(query, m.FamilyID, m.PatientID, m.FirstName, m.LastName, m.Email, m.Relationship, m.Status).Scan(&m.CreatedAt); err != nil {
		return fmt.Errorf("failed to create family member: %w", err)
	}
	return nil
}

// Update 更新家属资料
func (r *FamilyRepository) Update(m *models.FamilyMember) error {
	query := `
		UPDATE family_members
		SET patient_id = $2, first_name = $3, last_name = $4, email = $5, relationship = $6
		WHERE family_id = $1
	`

	result, err := r.db.Exec(query, m.FamilyID, m.PatientID, m.FirstName, m.LastName, m.Email, m.Relationship)
	if err != nil {
		return fmt.Errorf("failed to update family member: %w", err)
	}
	return checkAffected(result, "family member", m.FamilyID)
}

// ChangeStatus 启用/停用家属
func (r *FamilyRepository) ChangeStatus(familyID, status string) error {
	result, err := r.db.Exec(`UPDATE family_members SET status = $2 WHERE family_id = $1`, familyID, status)
	if err != nil {
		return fmt.Errorf("failed to change family member status: %w", err)
	}
	return checkAffected(result, "family member", familyID)
}

// Delete 删除家属
func (r *FamilyRepository) Delete(familyID string) error {
	result, err := r.db.Exec(`DELETE FROM family_members WHERE family_id = $1`, familyID)
	if err != nil {
		return fmt.Errorf("failed to delete family member: %w", err)
	}
	return checkAffected(result, "family member", familyID)
}
