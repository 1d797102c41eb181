package api

import (
	"net/http"

	"go.uber.org/zap"

	"respira-monitor/internal/service"
)

// MonitorHandler 监测生命周期与实时快照接口
type MonitorHandler struct {
	monitor *service.Monitor
	logger  *zap.Logger
}

func NewMonitorHandler(monitor *service.Monitor, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, logger: logger}
}

type startMonitorRequest struct {
	PatientID string `json:"patientId"`
	DeviceID  string `json:"deviceId"`
}

// Start POST /api/monitor/start
func (h *MonitorHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startMonitorRequest
	if err := decodeBody(r, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PatientID == "" || req.DeviceID == "" {
		Fail(w, http.StatusBadRequest, "patientId and deviceId are required")
		return
	}

	session, err := h.monitor.Start(req.PatientID, req.DeviceID)
	if err != nil {
		h.logger.Warn("Failed to start monitoring", zap.Error(err))
		Fail(w, http.StatusConflict, err.Error())
		return
	}
	Ok(w, session)
}

// Stop POST /api/monitor/stop
func (h *MonitorHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.monitor.Stop(); err != nil {
		h.logger.Error("Failed to stop monitoring", zap.Error(err))
		Fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	Ok(w, struct{}{})
}

// Snapshot GET /api/monitor/snapshot
func (h *MonitorHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	Ok(w, h.monitor.Snapshot())
}

type subjectRequest struct {
	PatientID string `json:"patientId"`
	DeviceID  string `json:"deviceId"`
}

// SetSubject POST /api/monitor/subject
func (h *MonitorHandler) SetSubject(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decodeBody(r, &req); err != nil {
		Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.monitor.SetSubject(req.PatientID, req.DeviceID)
	Ok(w, struct{}{})
}

// Metronome POST /api/monitor/metronome/{action}
func (h *MonitorHandler) Metronome(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("action") {
	case "start":
		h.monitor.StartMetronome()
	case "pause":
		h.monitor.PauseMetronome()
	case "resume":
		h.monitor.ResumeMetronome()
	default:
		Fail(w, http.StatusBadRequest, "unknown metronome action")
		return
	}
	Ok(w, h.monitor.Snapshot().Metronome)
}

// Countdown POST /api/monitor/countdown/{action}
func (h *MonitorHandler) Countdown(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("action") {
	case "start":
		h.monitor.StartCountdown()
	case "pause":
		h.monitor.PauseCountdown()
	case "reset":
		h.monitor.ResetCountdown()
	default:
		Fail(w, http.StatusBadRequest, "unknown countdown action")
		return
	}
	Ok(w, h.monitor.Snapshot().Countdown)
}
