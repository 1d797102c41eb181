package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"respira-monitor/internal/export"
	"respira-monitor/internal/models"
	"respira-monitor/internal/repository"
)

// SessionHandler 历史会话查询与报告导出
type SessionHandler struct {
	repo   *repository.SessionRepository
	logger *zap.Logger
}

func NewSessionHandler(repo *repository.SessionRepository, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{repo: repo, logger: logger}
}

// List GET /api/sessions[?patientId=...]
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		sessions []models.MonitoringSession
		err      error
	)
	if patientID := r.URL.Query().Get("patientId"); patientID != "" {
		sessions, err = h.repo.ListByPatient(patientID)
	} else {
		sessions, err = h.repo.ListAll()
	}
	if err != nil {
		h.logger.Error("Failed to list sessions", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	Ok(w, sessions)
}

// Records GET /api/sessions/{id}/records
func (h *SessionHandler) Records(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.ListRecords(r.PathValue("id"))
	if err != nil {
		h.logger.Error("Failed to list session records", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to list session records")
		return
	}
	Ok(w, records)
}

// Summary GET /api/sessions/{id}/summary
func (h *SessionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.repo.GetSummary(r.PathValue("id"))
	if err != nil {
		h.logger.Error("Failed to compute session summary", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to compute session summary")
		return
	}
	Ok(w, summary)
}

// Report GET /api/sessions/{id}/report — XLSX 下载
func (h *SessionHandler) Report(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	session, err := h.repo.GetByID(sessionID)
	if err != nil {
		Fail(w, http.StatusNotFound, "session not found")
		return
	}

	records, err := h.repo.ListRecords(sessionID)
	if err != nil {
		h.logger.Error("Failed to load session records", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to load session records")
		return
	}
	summary, err := h.repo.GetSummary(sessionID)
	if err != nil {
		h.logger.Error("Failed to compute session summary", zap.Error(err))
		Fail(w, http.StatusInternalServerError, "failed to compute session summary")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.xlsx"`, sessionID))
	if err := export.WriteSessionReport(w, session, records, summary); err != nil {
		// 响应头已发出，只能记录
		h.logger.Error("Failed to write session report", zap.Error(err))
	}
}
