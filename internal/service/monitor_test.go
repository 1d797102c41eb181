package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"respira-monitor/internal/config"
	"respira-monitor/internal/models"
)

type fakeTransport struct {
	mu       sync.Mutex
	started  int
	stopped  int
	onStatus func(connected bool)
	startErr error
}

func (f *fakeTransport) Start(_ ReadingSink, onStatus func(bool)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started++
	f.onStatus = onStatus
	return nil
}

func (f *fakeTransport) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	return nil
}

type fakeSessionStore struct {
	mu         sync.Mutex
	startDelay time.Duration
	started    []models.MonitoringSession
	closed     []string
	records    map[string][]models.NormalizedReading
	summary    *models.SessionSummary
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		records: make(map[string][]models.NormalizedReading),
		summary: &models.SessionSummary{},
	}
}

func (f *fakeSessionStore) Start(patientID, deviceID string) (*models.MonitoringSession, error) {
	if f.startDelay > 0 {
		time.Sleep(f.startDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	s := models.MonitoringSession{
		SessionID: "session-1",
		PatientID: patientID,
		DeviceID:  deviceID,
		StartedAt: time.Now().UTC(),
		Status:    models.SessionActive,
	}
	f.started = append(f.started, s)
	return &s, nil
}

func (f *fakeSessionStore) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

func (f *fakeSessionStore) Close(sessionID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, sessionID)
	return nil
}

func (f *fakeSessionStore) InsertRecord(sessionID string, r *models.NormalizedReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[sessionID] = append(f.records[sessionID], *r)
	return nil
}

func (f *fakeSessionStore) GetSummary(sessionID string) (*models.SessionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := *f.summary
	s.SessionID = sessionID
	return &s, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	summaries []*models.SessionSummary
}

func (f *fakeNotifier) PushSummary(_ context.Context, _ *models.MonitoringSession, summary *models.SessionSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, summary)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Telemetry.BufferCapacity = 300
	cfg.Classifier.PressureRest = 0.5
	cfg.Classifier.PressureHold = 2
	cfg.Classifier.MicRest = 20
	cfg.Classifier.MicHold = 60
	cfg.Sampling.Seconds = 240
	return cfg
}

func pressureReading(device string, patient *string, at time.Time, adc float64) *models.NormalizedReading {
	return &models.NormalizedReading{
		ID:         "r-" + at.Format("150405.000"),
		DeviceID:   device,
		PatientID:  patient,
		RecordedAt: at,
		Resp2Adc:   &adc,
	}
}

func TestMonitor_StartStopLifecycle(t *testing.T) {
	transport := &fakeTransport{}
	store := newFakeSessionStore()
	notifier := &fakeNotifier{}
	m := NewMonitor(testConfig(), transport, store, notifier, zap.NewNop())

	session, err := m.Start("patient-1", "device-1")
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.SessionID)
	assert.Equal(t, 1, transport.started)

	// 倒计时随会话启动，节拍器保持暂停
	snap := m.Snapshot()
	assert.True(t, snap.Active)
	assert.True(t, snap.Countdown.Running)
	assert.False(t, snap.Metronome.Running)

	// 重复 Start 被拒绝
	_, err = m.Start("patient-2", "device-2")
	assert.Error(t, err)

	require.NoError(t, m.Stop())
	assert.Equal(t, 1, transport.stopped)
	assert.Equal(t, []string{"session-1"}, store.closed)
	assert.Len(t, notifier.summaries, 1)

	// Stop 幂等
	require.NoError(t, m.Stop())
	assert.Equal(t, 1, transport.stopped)
}

func TestMonitor_StartRollsBackOnTransportError(t *testing.T) {
	transport := &fakeTransport{startErr: assert.AnError}
	store := newFakeSessionStore()
	m := NewMonitor(testConfig(), transport, store, nil, zap.NewNop())

	_, err := m.Start("patient-1", "device-1")
	require.Error(t, err)
	assert.Equal(t, []string{"session-1"}, store.closed)
	assert.False(t, m.Snapshot().Active)

	// 回滚必须关掉传输：订阅失败时共享连接可能已经建立
	assert.Equal(t, 1, transport.stopped)

	// 回滚后可以重新启动
	transport.startErr = nil
	_, err = m.Start("patient-1", "device-1")
	require.NoError(t, err)
	require.NoError(t, m.Stop())
}

func TestMonitor_ConcurrentStartSingleSession(t *testing.T) {
	transport := &fakeTransport{}
	store := newFakeSessionStore()
	store.startDelay = 100 * time.Millisecond // 拉开会话行创建的时间窗口
	m := NewMonitor(testConfig(), transport, store, nil, zap.NewNop())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Start("patient-1", "device-1")
		}(i)
	}
	wg.Wait()

	// 只能有一个 Start 成功：一个会话行、一次传输订阅
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.startCount())
	assert.Equal(t, 1, transport.started)

	require.NoError(t, m.Stop())
	assert.Equal(t, []string{"session-1"}, store.closed)
}

func TestMonitor_OnReadingFiltersBySubject(t *testing.T) {
	transport := &fakeTransport{}
	store := newFakeSessionStore()
	m := NewMonitor(testConfig(), transport, store, nil, zap.NewNop())

	_, err := m.Start("patient-1", "device-1")
	require.NoError(t, err)

	now := time.Now().UTC()
	patient := "patient-1"
	other := "patient-2"

	m.OnReading(pressureReading("device-1", &patient, now, 2050))
	m.OnReading(pressureReading("other-device", &other, now.Add(time.Second), 2060)) // 非当前对象
	m.OnReading(pressureReading("device-1", nil, now.Add(2*time.Second), 2070))      // 设备匹配即接受

	snap := m.Snapshot()
	assert.Len(t, snap.Points, 2)
	assert.Len(t, store.records["session-1"], 2)
}

func TestMonitor_SnapshotClassifiesAndSegments(t *testing.T) {
	transport := &fakeTransport{}
	store := newFakeSessionStore()
	m := NewMonitor(testConfig(), transport, store, nil, zap.NewNop())

	_, err := m.Start("patient-1", "device-1")
	require.NoError(t, err)

	base := time.Now().UTC()
	baseline := 2048.0
	mk := func(offset time.Duration, adc float64) *models.NormalizedReading {
		r := pressureReading("device-1", nil, base.Add(offset), adc)
		r.RespBaseline = &baseline
		return r
	}

	// rest, rest, inhale, inhale, exhale
	m.OnReading(mk(0, 2048.2))
	m.OnReading(mk(1*time.Second, 2048.3))
	m.OnReading(mk(2*time.Second, 2053))
	m.OnReading(mk(3*time.Second, 2054))
	m.OnReading(mk(4*time.Second, 2043))

	snap := m.Snapshot()
	assert.Equal(t, models.ChannelPressure, snap.Channel)
	require.Len(t, snap.Points, 5)
	require.Len(t, snap.Bands, 3)
	assert.Equal(t, models.PhaseRest, snap.Bands[0].Phase)
	assert.Equal(t, models.PhaseInhale, snap.Bands[1].Phase)
	assert.Equal(t, models.PhaseExhale, snap.Bands[2].Phase)

	require.NotNil(t, snap.Latest)
	assert.Equal(t, 2043.0, *snap.Latest.Resp2Adc)
}

func TestMonitor_SnapshotReordersByRecordedAt(t *testing.T) {
	transport := &fakeTransport{}
	store := newFakeSessionStore()
	m := NewMonitor(testConfig(), transport, store, nil, zap.NewNop())

	_, err := m.Start("patient-1", "device-1")
	require.NoError(t, err)

	base := time.Now().UTC()
	// 乱序到达
	m.OnReading(pressureReading("device-1", nil, base.Add(2*time.Second), 2050))
	m.OnReading(pressureReading("device-1", nil, base, 2051))
	m.OnReading(pressureReading("device-1", nil, base.Add(time.Second), 2052))

	snap := m.Snapshot()
	require.Len(t, snap.Points, 3)
	assert.Equal(t, base, snap.Points[0].Reading.RecordedAt)
	assert.Equal(t, base.Add(2*time.Second), snap.Points[2].Reading.RecordedAt)
	assert.Equal(t, 2050.0, *snap.Latest.Resp2Adc)
}

func TestMonitor_SetSubjectClearsWindowKeepsTransport(t *testing.T) {
	transport := &fakeTransport{}
	store := newFakeSessionStore()
	m := NewMonitor(testConfig(), transport, store, nil, zap.NewNop())

	_, err := m.Start("patient-1", "device-1")
	require.NoError(t, err)

	m.OnReading(pressureReading("device-1", nil, time.Now().UTC(), 2050))
	require.Len(t, m.Snapshot().Points, 1)

	m.SetSubject("patient-2", "device-2")
	assert.Empty(t, m.Snapshot().Points)
	assert.Equal(t, 1, transport.started) // 不重连

	m.OnReading(pressureReading("device-2", nil, time.Now().UTC(), 2050))
	assert.Len(t, m.Snapshot().Points, 1)
}

func TestMonitor_ConnectionStatus(t *testing.T) {
	transport := &fakeTransport{}
	store := newFakeSessionStore()
	m := NewMonitor(testConfig(), transport, store, nil, zap.NewNop())

	_, err := m.Start("patient-1", "device-1")
	require.NoError(t, err)
	assert.False(t, m.Snapshot().Connected)

	transport.onStatus(true)
	assert.True(t, m.Snapshot().Connected)

	transport.onStatus(false)
	assert.False(t, m.Snapshot().Connected)

	require.NoError(t, m.Stop())
}

func TestMonitor_IgnoresReadingsWhenInactive(t *testing.T) {
	transport := &fakeTransport{}
	store := newFakeSessionStore()
	m := NewMonitor(testConfig(), transport, store, nil, zap.NewNop())

	m.OnReading(pressureReading("device-1", nil, time.Now().UTC(), 2050))
	assert.Empty(t, m.Snapshot().Points)
	assert.Empty(t, store.records)
}

func TestMonitor_MetronomeControls(t *testing.T) {
	m := NewMonitor(testConfig(), &fakeTransport{}, newFakeSessionStore(), nil, zap.NewNop())

	m.StartMetronome()
	state := m.Snapshot().Metronome
	assert.True(t, state.Running)
	assert.Equal(t, models.PhaseInhale, state.Phase)

	m.PauseMetronome()
	assert.False(t, m.Snapshot().Metronome.Running)

	m.ResumeMetronome()
	assert.True(t, m.Snapshot().Metronome.Running)
}
