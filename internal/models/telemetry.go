package models

import "time"

// BreathingPhase 呼吸相位（从单条读数推导的分类标签）
type BreathingPhase string

const (
	PhaseInhale BreathingPhase = "inhale"
	PhaseHold   BreathingPhase = "hold"
	PhaseExhale BreathingPhase = "exhale"
	PhaseRest   BreathingPhase = "rest"
)

// Channel 当前提供有效呼吸数据的感应通道
// 基于缓冲区快照整体判定（不是逐条判定），传感器可用性变化时会随新数据切换
type Channel string

const (
	ChannelPressure   Channel = "pressure"   // 压力传感器（resp2Adc）
	ChannelMicrophone Channel = "microphone" // 遗留麦克风气流通道（micAirValue）
	ChannelNone       Channel = "none"       // 无可用信号
)

// NormalizedReading 规范化后的遥测读数
//
// 所有传感器字段都是可选的（指针类型）：nil 表示"本次采样无数据"，
// 不能与 0 混淆——0 是有意义的读数。
type NormalizedReading struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"deviceId"`
	PatientID  *string   `json:"patientId,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`

	// 呼吸主通道
	AirflowValue *float64 `json:"airflowValue,omitempty"`
	RespBaseline *float64 `json:"respBaseline,omitempty"`
	RespDiffAbs  *float64 `json:"respDiffAbs,omitempty"`
	RespRate     *float64 `json:"respRate,omitempty"`

	// 心率 / 血氧
	BPM  *float64 `json:"bpm,omitempty"`
	SpO2 *float64 `json:"spo2,omitempty"`

	// 呼吸次通道（压力传感器 ADC + 硬件方向标志）
	Resp2Adc      *float64 `json:"resp2Adc,omitempty"`
	Resp2Positive *bool    `json:"resp2Positive,omitempty"`

	// 遗留麦克风通道（兼容旧固件）
	MicAirValue *float64 `json:"micAirValue,omitempty"`
}

// ClassifiedPoint 带相位标签的读数
type ClassifiedPoint struct {
	Reading NormalizedReading `json:"reading"`
	Phase   BreathingPhase    `json:"phase"`
}

// PhaseBand 连续同相位区段（用于图表底色渲染）
//
// 不变式：区段完整划分输入序列，无间隙无重叠，相邻区段相位不同
type PhaseBand struct {
	Start time.Time      `json:"start"`
	End   time.Time      `json:"end"`
	Phase BreathingPhase `json:"phase"`
}
