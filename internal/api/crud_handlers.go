package api

import (
	"net/http"

	"go.uber.org/zap"

	"respira-monitor/internal/models"
	"respira-monitor/internal/repository"
)

// DoctorHandler 医生 CRUD
type DoctorHandler struct {
	repo   *repository.DoctorRepository
	logger *zap.Logger
}

func NewDoctorHandler(repo *repository.DoctorRepository, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{repo: repo, logger: logger}
}

func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.repo.List()
	if err != nil {
		h.logger.Error("Failed to list doctors", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to list doctors")
		return
	}
	Ok(w, doctors)
}

func (h *DoctorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.Doctor
	if err := decodeBody(r, &d); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.repo.Create(&d); err != nil {
		h.logger.Error("Failed to create doctor", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to create doctor")
		return
	}
	Ok(w, d)
}

func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var d models.Doctor
	if err := decodeBody(r, &d); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d.DoctorID = r.PathValue("id")
	if err := h.repo.Update(&d); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, d)
}

func (h *DoctorHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	changeStatus(w, r, h.repo.ChangeStatus)
}

func (h *DoctorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.PathValue("id")); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, struct{}{})
}

// PatientHandler 患者 CRUD
type PatientHandler struct {
	repo   *repository.PatientRepository
	logger *zap.Logger
}

func NewPatientHandler(repo *repository.PatientRepository, logger *zap.Logger) *PatientHandler {
	return &PatientHandler{repo: repo, logger: logger}
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	patients, err := h.repo.List()
	if err != nil {
		h.logger.Error("Failed to list patients", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to list patients")
		return
	}
	Ok(w, patients)
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.repo.GetByID(r.PathValue("id"))
	if err != nil {
		Fail(w, http.StatusNotFound, "patient not found")
		return
	}
	Ok(w, p)
}

func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p models.Patient
	if err := decodeBody(r, &p); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.repo.Create(&p); err != nil {
		h.logger.Error("Failed to create patient", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to create patient")
		return
	}
	Ok(w, p)
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.Patient
	if err := decodeBody(r, &p); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.PatientID = r.PathValue("id")
	if err := h.repo.Update(&p); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, p)
}

func (h *PatientHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	changeStatus(w, r, h.repo.ChangeStatus)
}

func (h *PatientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.PathValue("id")); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, struct{}{})
}

// FamilyHandler 家属 CRUD
type FamilyHandler struct {
	repo   *repository.FamilyRepository
	logger *zap.Logger
}

func NewFamilyHandler(repo *repository.FamilyRepository, logger *zap.Logger) *FamilyHandler {
	return &FamilyHandler{repo: repo, logger: logger}
}

func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	// 可选按患者过滤
	if patientID := r.URL.Query().Get("patientId"); patientID != "" {
		members, err := h.repo.ListByPatient(patientID)
		if err != nil {
			Fail(w, http.StatusInternalServerError, "failed to list family members")
			return
		}
		Ok(w, members)
		return
	}

	members, err := h.repo.List()
	if err != nil {
		h.logger.Error("Failed to list family members", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to list family members")
		return
	}
	Ok(w, members)
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var m models.FamilyMember
	if err := decodeBody(r, &m); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if m.PatientID == "" {
		Fail(w, http.StatusBadRequest, "patientId is required")
		return
	}
	if err := h.repo.Create(&m); err != nil {
		h.logger.Error("Failed to create family member", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to create family member")
		return
	}
	Ok(w, m)
}

func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var m models.FamilyMember
	if err := decodeBody(r, &m); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.FamilyID = r.PathValue("id")
	if err := h.repo.Update(&m); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, m)
}

func (h *FamilyHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	changeStatus(w, r, h.repo.ChangeStatus)
}

func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.PathValue("id")); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, struct{}{})
}

// DeviceHandler 设备 CRUD
type DeviceHandler struct {
	repo   *repository.DeviceRepository
	logger *zap.Logger
}

func NewDeviceHandler(repo *repository.DeviceRepository, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{repo: repo, logger: logger}
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	devices, err := h.repo.List()
	if err != nil {
		h.logger.Error("Failed to list devices", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	Ok(w, devices)
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d models.Device
	if err := decodeBody(r, &d); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if d.SerialNumber == "" {
		Fail(w, http.StatusBadRequest, "serialNumber is required")
		return
	}
	if err := h.repo.Create(&d); err != nil {
		h.logger.Error("Failed to create device", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to create device")
		return
	}
	Ok(w, d)
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var d models.Device
	if err := decodeBody(r, &d); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d.DeviceID = r.PathValue("id")
	if err := h.repo.Update(&d); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, d)
}

func (h *DeviceHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	changeStatus(w, r, h.repo.ChangeStatus)
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.PathValue("id")); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, struct{}{})
}

type statusRequest struct {
	Status string `json:"status"`
}

// changeStatus 状态切换的通用处理
func changeStatus(w http.ResponseWriter, r *http.Request, change func(id, status string) error) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != models.StatusActive && req.Status != models.StatusInactive {
		Fail(w, http.StatusBadRequest, "status must be active or inactive")
		return
	}
	if err := change(r.PathValue("id"), req.Status); err != nil {
		Fail(w, http.StatusNotFound, err.Error())
		return
	}
	Ok(w, struct{}{})
}
