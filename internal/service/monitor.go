// Package service 实现监测服务：会话生命周期、实时快照渲染与引导呼吸控制。
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"respira-monitor/internal/breathing"
	"respira-monitor/internal/config"
	"respira-monitor/internal/metrics"
	"respira-monitor/internal/models"
	"respira-monitor/internal/telemetry"
)

// SessionStore 会话持久化（生产实现见 repository.SessionRepository）
type SessionStore interface {
	Start(patientID, deviceID string) (*models.MonitoringSession, error)
	Close(sessionID string, endedAt time.Time) error
	InsertRecord(sessionID string, reading *models.NormalizedReading) error
	GetSummary(sessionID string) (*models.SessionSummary, error)
}

// TransportSession 一次监测期间的代理连接与订阅
type TransportSession interface {
	Start(sink ReadingSink, onStatus func(connected bool)) error
	Stop() error
}

// ReadingSink 接收规范化读数
type ReadingSink interface {
	OnReading(reading *models.NormalizedReading)
}

// SummarySink 会话结束时接收汇总指标（外部临床接口推送）
type SummarySink interface {
	PushSummary(ctx context.Context, session *models.MonitoringSession, summary *models.SessionSummary) error
}

// MonitorSnapshot 监测页面一次渲染所需的全部状态
type MonitorSnapshot struct {
	Connected bool   `json:"connected"`
	Active    bool   `json:"active"`
	PatientID string `json:"patientId,omitempty"`
	DeviceID  string `json:"deviceId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`

	Channel models.Channel            `json:"channel"`
	Points  []models.ClassifiedPoint  `json:"points"`
	Bands   []models.PhaseBand        `json:"bands"`
	Latest  *models.NormalizedReading `json:"latest,omitempty"`

	Metronome breathing.MetronomeState `json:"metronome"`
	Countdown breathing.CountdownState `json:"countdown"`
}

// Monitor 监测服务
//
// 持有滑动窗口、节拍器和倒计时。相位不入库也不缓存：
// 每次 Snapshot 从窗口数据现算，阈值调整后历史数据立即按新规则渲染。
type Monitor struct {
	cfg       *config.Config
	transport TransportSession
	sessions  SessionStore
	notifier  SummarySink // 可为 nil（未启用外部推送）
	logger    *zap.Logger

	buffer     *telemetry.StreamBuffer
	thresholds telemetry.Thresholds
	metronome  *breathing.Metronome
	countdown  *breathing.Countdown
	ticker     *breathing.Ticker

	mu             sync.Mutex
	active         bool
	connected      bool
	session        *models.MonitoringSession
	subjectPatient string
	subjectDevice  string
}

func NewMonitor(
	cfg *config.Config,
	transport TransportSession,
	sessions SessionStore,
	notifier SummarySink,
	logger *zap.Logger,
) *Monitor {
	m := &Monitor{
		cfg:       cfg,
		transport: transport,
		sessions:  sessions,
		notifier:  notifier,
		logger:    logger,
		buffer:    telemetry.NewStreamBuffer(cfg.Telemetry.BufferCapacity),
		thresholds: telemetry.Thresholds{
			PressureRest: cfg.Classifier.PressureRest,
			PressureHold: cfg.Classifier.PressureHold,
			MicRest:      cfg.Classifier.MicRest,
			MicHold:      cfg.Classifier.MicHold,
		},
	}

	m.metronome = breathing.NewMetronome(nil, func(phase models.BreathingPhase) {
		// 提示音在客户端播放，服务端只记录节拍
		logger.Debug("Breathing cue", zap.String("phase", string(phase)))
	})
	m.countdown = breathing.NewCountdown(cfg.Sampling.Seconds)
	m.ticker = breathing.NewTicker(time.Second, m.metronome, m.countdown)

	return m
}

// Start 开始监测：建立代理连接、创建会话、启动倒计时
//
// 节拍器保持暂停，由用户显式开始引导呼吸。
func (m *Monitor) Start(patientID, deviceID string) (*models.MonitoringSession, error) {
	// 先占住 active 再做慢操作：两个并发 Start 只能有一个通过，
	// 否则会创建两个会话行、两次传输订阅，先到的会话永远留在 active 状态
	m.mu.Lock()
	if m.active {
		m.mu.Unlock()
		return nil, fmt.Errorf("monitoring already in progress")
	}
	m.active = true
	m.session = nil
	m.subjectPatient = patientID
	m.subjectDevice = deviceID
	m.mu.Unlock()

	session, err := m.sessions.Start(patientID, deviceID)
	if err != nil {
		m.mu.Lock()
		m.active = false
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to start monitoring session: %w", err)
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	m.buffer.Clear()
	metrics.BufferLength.Set(0)
	m.countdown.Reset()
	m.countdown.Start()
	m.ticker.Start()

	if err := m.transport.Start(m, m.onStatus); err != nil {
		m.rollbackStart(session)
		return nil, fmt.Errorf("failed to start telemetry transport: %w", err)
	}

	metrics.SessionsStarted.Inc()
	m.logger.Info("Monitoring started",
		zap.String("session_id", session.SessionID),
		zap.String("patient_id", patientID),
		zap.String("device_id", deviceID),
	)
	return session, nil
}

func (m *Monitor) rollbackStart(session *models.MonitoringSession) {
	// 传输启动失败时共享连接可能已经建立，回滚必须一并关闭，
	// 否则没有会话的情况下连接会一直挂着（Stop 是幂等的）
	if err := m.transport.Stop(); err != nil {
		m.logger.Warn("Error stopping telemetry transport during rollback", zap.Error(err))
	}

	m.ticker.Stop()
	m.countdown.Pause()

	m.mu.Lock()
	m.active = false
	m.session = nil
	m.mu.Unlock()

	if err := m.sessions.Close(session.SessionID, time.Now().UTC()); err != nil {
		m.logger.Warn("Failed to close session after transport error", zap.Error(err))
	}
}

// Stop 结束监测：断开代理、清空窗口、关闭会话并推送汇总；未在监测时为空操作
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return nil
	}
	m.active = false
	m.connected = false
	session := m.session
	m.session = nil
	m.mu.Unlock()

	// active 已置 false，断开过程中的状态回调和晚到消息都会被忽略
	if err := m.transport.Stop(); err != nil {
		m.logger.Warn("Error stopping telemetry transport", zap.Error(err))
	}

	m.ticker.Stop()
	m.metronome.Pause()
	m.countdown.Pause()
	m.buffer.Clear()
	metrics.BufferLength.Set(0)

	endedAt := time.Now().UTC()
	if err := m.sessions.Close(session.SessionID, endedAt); err != nil {
		return fmt.Errorf("failed to close monitoring session: %w", err)
	}

	m.pushSummary(session, endedAt)

	m.logger.Info("Monitoring stopped", zap.String("session_id", session.SessionID))
	return nil
}

func (m *Monitor) pushSummary(session *models.MonitoringSession, endedAt time.Time) {
	summary, err := m.sessions.GetSummary(session.SessionID)
	if err != nil {
		m.logger.Warn("Failed to compute session summary", zap.Error(err))
		return
	}

	if m.notifier == nil {
		return
	}

	closed := *session
	closed.EndedAt = &endedAt
	closed.Status = models.SessionClosed

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.notifier.PushSummary(ctx, &closed, summary); err != nil {
		// 外部接口失败不影响本地会话关闭
		m.logger.Warn("Failed to push session summary", zap.Error(err))
	}
}

// SetSubject 切换监测对象：清空滑动窗口，代理连接保持不动
//
// 会话行保留初始归属；切换对象通常伴随 Stop/Start 新会话，
// 这里只服务"同一会话内换设备看一眼"的场景。
func (m *Monitor) SetSubject(patientID, deviceID string) {
	m.mu.Lock()
	m.subjectPatient = patientID
	m.subjectDevice = deviceID
	m.mu.Unlock()

	m.buffer.Clear()
	metrics.BufferLength.Set(0)
}

// OnReading 消费者回调：过滤非当前对象的读数，入窗并落库
func (m *Monitor) OnReading(reading *models.NormalizedReading) {
	m.mu.Lock()
	// session 为 nil 覆盖启动中的短暂窗口（active 已占住、会话行未建）
	if !m.active || m.session == nil {
		m.mu.Unlock()
		return
	}
	patient := m.subjectPatient
	device := m.subjectDevice
	sessionID := m.session.SessionID
	m.mu.Unlock()

	matches := reading.DeviceID == device ||
		(reading.PatientID != nil && *reading.PatientID == patient)
	if !matches {
		metrics.MessagesFiltered.Inc()
		return
	}

	m.buffer.Push(*reading)
	metrics.BufferLength.Set(float64(m.buffer.Len()))

	if err := m.sessions.InsertRecord(sessionID, reading); err != nil {
		m.logger.Warn("Failed to persist reading",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}

// onStatus 代理连接状态回调
func (m *Monitor) onStatus(connected bool) {
	m.mu.Lock()
	active := m.active
	m.connected = connected && active
	m.mu.Unlock()

	if !connected && active {
		metrics.Reconnects.Inc()
	}
}

// Snapshot 渲染当前监测状态
//
// 窗口按到达顺序保存，这里按采样时间重排后再分类分段，
// 乱序到达的读数在渲染边界被修正。
func (m *Monitor) Snapshot() MonitorSnapshot {
	m.mu.Lock()
	snap := MonitorSnapshot{
		Connected: m.connected,
		Active:    m.active,
		PatientID: m.subjectPatient,
		DeviceID:  m.subjectDevice,
	}
	if m.session != nil {
		snap.SessionID = m.session.SessionID
	}
	m.mu.Unlock()

	readings := m.buffer.Snapshot()
	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].RecordedAt.Before(readings[j].RecordedAt)
	})

	points, channel := telemetry.ClassifyAll(readings, m.thresholds)
	snap.Channel = channel
	snap.Points = points
	snap.Bands = telemetry.Segment(points)

	if n := len(readings); n > 0 {
		latest := readings[n-1]
		snap.Latest = &latest
	}

	snap.Metronome = m.metronome.State()
	snap.Countdown = m.countdown.State()
	return snap
}

// StartMetronome 开始引导呼吸（从吸气步骤重新开始）
func (m *Monitor) StartMetronome() { m.metronome.Start() }

// PauseMetronome 暂停引导呼吸（保留当前步骤与剩余秒数）
func (m *Monitor) PauseMetronome() { m.metronome.Pause() }

// ResumeMetronome 从暂停处继续引导呼吸
func (m *Monitor) ResumeMetronome() { m.metronome.Resume() }

// StartCountdown 开始（或继续）采样倒计时
func (m *Monitor) StartCountdown() { m.countdown.Start() }

// PauseCountdown 暂停采样倒计时
func (m *Monitor) PauseCountdown() { m.countdown.Pause() }

// ResetCountdown 重置采样倒计时到完整时长
func (m *Monitor) ResetCountdown() { m.countdown.Reset() }
