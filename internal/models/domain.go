package models

import "time"

// 记录状态（医生/患者/家属/设备通用）
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// 监测会话状态
const (
	SessionActive = "active"
	SessionClosed = "closed"
)

// Doctor 医生
type Doctor struct {
	DoctorID   string    `json:"doctorId"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Speciality string    `json:"speciality"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Patient 患者
type Patient struct {
	PatientID string     `json:"patientId"`
	DoctorID  *string    `json:"doctorId,omitempty"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// FamilyMember 家属（与患者的关联账号）
type FamilyMember struct {
	FamilyID     string    `json:"familyId"`
	PatientID    string    `json:"patientId"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Relationship string    `json:"relationship"` // spouse/parent/child/sibling/...
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Device 监测设备（ESP32 呼吸/体征采集终端）
type Device struct {
	DeviceID     string    `json:"deviceId"`
	SerialNumber string    `json:"serialNumber"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	PatientID    *string   `json:"patientId,omitempty"` // 当前分配的患者
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// MonitoringSession 监测会话
type MonitoringSession struct {
	SessionID string     `json:"sessionId"`
	PatientID string     `json:"patientId"`
	DeviceID  string     `json:"deviceId"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Status    string     `json:"status"`
}

// SessionSummary 会话汇总指标（关闭会话时计算，用于报告与外部临床接口推送）
type SessionSummary struct {
	SessionID        string   `json:"sessionId"`
	RecordCount      int      `json:"recordCount"`
	AvgAirflow       *float64 `json:"avgAirflow,omitempty"`
	AvgBPM           *float64 `json:"avgBpm,omitempty"`
	AvgSpO2          *float64 `json:"avgSpo2,omitempty"`
	AvgRespRate      *float64 `json:"avgRespRate,omitempty"`
	AvgResp2Adc      *float64 `json:"avgResp2Adc,omitempty"`
	Resp2PositivePct *float64 `json:"resp2PositivePct,omitempty"`
}
