package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FullPayload(t *testing.T) {
	payload := []byte(`{
		"deviceId": "ESP32-001",
		"patientId": "patient-1",
		"recordedAt": "2025-03-10T12:00:00Z",
		"airflowValue": 2.35,
		"respBaseline": 2.1,
		"respDiffAbs": 0.25,
		"respRate": 14,
		"bpm": 72,
		"spo2": 97.5,
		"resp2Adc": 1.8,
		"resp2Positive": true,
		"micAirValue": 0
	}`)

	r, err := Normalize(payload)
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "ESP32-001", r.DeviceID)
	require.NotNil(t, r.PatientID)
	assert.Equal(t, "patient-1", *r.PatientID)
	assert.Equal(t, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), r.RecordedAt.UTC())

	require.NotNil(t, r.AirflowValue)
	assert.Equal(t, 2.35, *r.AirflowValue)
	require.NotNil(t, r.Resp2Positive)
	assert.True(t, *r.Resp2Positive)

	// 0 是有意义的读数，必须保留而不是当缺失处理
	require.NotNil(t, r.MicAirValue)
	assert.Equal(t, 0.0, *r.MicAirValue)
}

func TestNormalize_EmptyObject(t *testing.T) {
	// 任意字段子集（包括空集）都不报错，缺失字段保持缺失
	r, err := Normalize([]byte(`{}`))
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Empty(t, r.DeviceID)
	assert.Nil(t, r.PatientID)
	assert.Nil(t, r.AirflowValue)
	assert.Nil(t, r.BPM)
	assert.Nil(t, r.Resp2Adc)
	assert.Nil(t, r.Resp2Positive)
	assert.Nil(t, r.MicAirValue)
	// 时间戳缺失时取当前时间
	assert.WithinDuration(t, time.Now().UTC(), r.RecordedAt, 5*time.Second)
}

func TestNormalize_NonNumericFieldsBecomeAbsent(t *testing.T) {
	// 数值字段收到非数值时置为缺失，绝不强转为 0
	payload := []byte(`{
		"deviceId": "ESP32-002",
		"recordedAt": "not-a-timestamp",
		"airflowValue": "oops",
		"bpm": true,
		"resp2Positive": "yes",
		"spo2": null
	}`)

	r, err := Normalize(payload)
	require.NoError(t, err)

	assert.Nil(t, r.AirflowValue)
	assert.Nil(t, r.BPM)
	assert.Nil(t, r.Resp2Positive)
	assert.Nil(t, r.SpO2)
	assert.WithinDuration(t, time.Now().UTC(), r.RecordedAt, 5*time.Second)
}

func TestNormalize_StructurallyInvalid(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json`),
		[]byte(`[1, 2, 3]`),
		[]byte(`"just a string"`),
		[]byte(`null`),
	}
	for _, payload := range cases {
		_, err := Normalize(payload)
		assert.ErrorIs(t, err, ErrNotObject, "payload: %s", payload)
	}
}

func TestNormalize_FreshIDPerCall(t *testing.T) {
	payload := []byte(`{"deviceId":"ESP32-001"}`)

	r1, err := Normalize(payload)
	require.NoError(t, err)
	r2, err := Normalize(payload)
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)
}
