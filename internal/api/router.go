package api

import (
	"net/http"

	"respira-monitor/internal/metrics"
)

// Handlers 路由依赖的全部处理器
type Handlers struct {
	Monitor *MonitorHandler
	Live    *LiveHandler
	Doctor  *DoctorHandler
	Patient *PatientHandler
	Family  *FamilyHandler
	Device  *DeviceHandler
	Session *SessionHandler
	Health  *HealthHandler
}

// NewRouter 注册全部路由
func NewRouter(h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// 监测
	mux.HandleFunc("POST /api/monitor/start", h.Monitor.Start)
	mux.HandleFunc("POST /api/monitor/stop", h.Monitor.Stop)
	mux.HandleFunc("GET /api/monitor/snapshot", h.Monitor.Snapshot)
	mux.HandleFunc("POST /api/monitor/subject", h.Monitor.SetSubject)
	mux.HandleFunc("POST /api/monitor/metronome/{action}", h.Monitor.Metronome)
	mux.HandleFunc("POST /api/monitor/countdown/{action}", h.Monitor.Countdown)
	mux.HandleFunc("GET /api/monitor/live", h.Live.Live)

	// 医生
	mux.HandleFunc("GET /api/doctors", h.Doctor.List)
	mux.HandleFunc("POST /api/doctors", h.Doctor.Create)
	mux.HandleFunc("PUT /api/doctors/{id}", h.Doctor.Update)
	mux.HandleFunc("PATCH /api/doctors/{id}/status", h.Doctor.ChangeStatus)
	mux.HandleFunc("DELETE /api/doctors/{id}", h.Doctor.Delete)

	// 患者
	mux.HandleFunc("GET /api/patients", h.Patient.List)
	mux.HandleFunc("GET /api/patients/{id}", h.Patient.Get)
	mux.HandleFunc("POST /api/patients", h.Patient.Create)
	mux.HandleFunc("PUT /api/patients/{id}", h.Patient.Update)
	mux.HandleFunc("PATCH /api/patients/{id}/status", h.Patient.ChangeStatus)
	mux.HandleFunc("DELETE /api/patients/{id}", h.Patient.Delete)

	// 家属
	mux.HandleFunc("GET /api/family", h.Family.List)
	mux.HandleFunc("POST /api/family", h.Family.Create)
	mux.HandleFunc("PUT /api/family/{id}", h.Family.Update)
	mux.HandleFunc("PATCH /api/family/{id}/status", h.Family.ChangeStatus)
	mux.HandleFunc("DELETE /api/family/{id}", h.Family.Delete)

	// 设备
	mux.HandleFunc("GET /api/devices", h.Device.List)
	mux.HandleFunc("POST /api/devices", h.Device.Create)
	mux.HandleFunc("PUT /api/devices/{id}", h.Device.Update)
	mux.HandleFunc("PATCH /api/devices/{id}/status", h.Device.ChangeStatus)
	mux.HandleFunc("DELETE /api/devices/{id}", h.Device.Delete)

	// 历史会话
	mux.HandleFunc("GET /api/sessions", h.Session.List)
	mux.HandleFunc("GET /api/sessions/{id}/records", h.Session.Records)
	mux.HandleFunc("GET /api/sessions/{id}/summary", h.Session.Summary)
	mux.HandleFunc("GET /api/sessions/{id}/report", h.Session.Report)

	return withCORS(mux)
}

// withCORS 前端开发服务器跨域访问
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
