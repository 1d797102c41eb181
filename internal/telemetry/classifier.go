package telemetry

import (
	"math"

	"respira-monitor/internal/models"
)

// Thresholds 相位判定阈值
//
// 两个通道的量纲不同（压力传感器电压 vs 麦克风气流代理值），阈值各自独立。
// 数值是启发式的，没有临床推导依据，保持可配置，不要当物理常数用。
type Thresholds struct {
	PressureRest float64 // 压力通道 |delta| 低于此值 → rest
	PressureHold float64 // 压力通道 |delta| 低于此值 → hold
	MicRest      float64 // 麦克风通道 |delta| 低于此值 → rest
	MicHold      float64 // 麦克风通道 |delta| 低于此值 → hold
}

// DefaultThresholds 默认阈值
func DefaultThresholds() Thresholds {
	return Thresholds{
		PressureRest: 0.5,
		PressureHold: 2,
		MicRest:      20,
		MicHold:      60,
	}
}

// Classify 把单条读数映射为呼吸相位（纯函数）
//
// 压力通道：delta = resp2Adc − baseline。硬件方向标志存在时优先于
// 幅值判定（true → exhale，false → inhale），用来抑制阈值附近的
// 噪声抖动。否则按 |delta| 分档：rest / hold / 按符号取 inhale、exhale。
//
// 麦克风通道：delta = airflowValue − baseline，只有幅值判定。
//
// channel 为 none 时返回 ok=false，读数不参与渲染序列。
func Classify(r models.NormalizedReading, channel models.Channel, th Thresholds) (models.BreathingPhase, bool) {
	baseline := 0.0
	if r.RespBaseline != nil {
		baseline = *r.RespBaseline
	}

	switch channel {
	case models.ChannelPressure:
		value := 0.0
		if r.Resp2Adc != nil {
			value = *r.Resp2Adc
		}
		delta := value - baseline

		// 方向标志优先于幅值
		if r.Resp2Positive != nil {
			if *r.Resp2Positive {
				return models.PhaseExhale, true
			}
			return models.PhaseInhale, true
		}

		return byMagnitude(delta, th.PressureRest, th.PressureHold), true

	case models.ChannelMicrophone:
		value := 0.0
		if r.AirflowValue != nil {
			value = *r.AirflowValue
		}
		delta := value - baseline

		return byMagnitude(delta, th.MicRest, th.MicHold), true
	}

	return "", false
}

func byMagnitude(delta, restMax, holdMax float64) models.BreathingPhase {
	abs := math.Abs(delta)
	switch {
	case abs < restMax:
		return models.PhaseRest
	case abs < holdMax:
		return models.PhaseHold
	case delta >= 0:
		return models.PhaseInhale
	default:
		return models.PhaseExhale
	}
}

// ClassifyAll 对快照统一判定通道并逐条分类
//
// 返回分类序列和判定出的通道；通道为 none 时返回空序列。
func ClassifyAll(readings []models.NormalizedReading, th Thresholds) ([]models.ClassifiedPoint, models.Channel) {
	channel := DetectChannel(readings)
	if channel == models.ChannelNone {
		return nil, channel
	}

	points := make([]models.ClassifiedPoint, 0, len(readings))
	for _, r := range readings {
		phase, ok := Classify(r, channel, th)
		if !ok {
			continue
		}
		points = append(points, models.ClassifiedPoint{Reading: r, Phase: phase})
	}
	return points, channel
}
