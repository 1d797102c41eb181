package telemetry

import "respira-monitor/internal/models"

// DetectChannel 扫描缓冲区快照，判定当前可用的呼吸感应通道
//
// 判定对整个快照全局生效（不是逐条判定）：
//   - 次通道（resp2Adc）出现任意非零值 → 压力通道
//   - 否则遗留通道（micAirValue）出现任意非零值 → 麦克风通道
//   - 两者都全零/缺失 → none（跳过分类，渲染"无信号"状态）
//
// 每次取快照时重新计算，避免传感器可用性在会话中途变化时用到过期通道。
func DetectChannel(readings []models.NormalizedReading) models.Channel {
	hasMic := false
	for _, r := range readings {
		if r.Resp2Adc != nil && *r.Resp2Adc != 0 {
			return models.ChannelPressure
		}
		if r.MicAirValue != nil && *r.MicAirValue != 0 {
			hasMic = true
		}
	}
	if hasMic {
		return models.ChannelMicrophone
	}
	return models.ChannelNone
}
