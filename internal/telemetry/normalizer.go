// Package telemetry 实现遥测流处理核心：
//
//   - 规范化：把设备上报的动态 JSON 转成规范读数（字段缺失 = nil，不补零）
//   - 有界滑动窗口缓冲
//   - 通道判定：扫描快照选择压力 / 麦克风通道
//   - 相位分类：从单条读数推导呼吸相位（吸气/屏息/呼气/静息）
//   - 区段切分：把分类序列折叠成连续同相位区段供图表渲染
//
// 管线内不向上抛错：坏消息丢弃并记日志，无信号输出 none 通道。
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"respira-monitor/internal/models"
)

// ErrNotObject 负载不是 JSON 对象（结构性错误，整条丢弃）
var ErrNotObject = errors.New("payload is not a JSON object")

// Normalize 把原始遥测负载规范化为读数
//
// 总函数：除负载不是 JSON 对象外不会失败。字段缺失或类型不对
// 一律置为 nil——0 是有意义的读数，不能用来表示"无数据"。
// 时间戳缺失或无法解析时取当前时间。
func Normalize(payload []byte) (*models.NormalizedReading, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if raw == nil {
		return nil, ErrNotObject
	}

	reading := &models.NormalizedReading{
		// 线上格式没有稳定的读数标识符，每次生成新的
		ID:         uuid.NewString(),
		DeviceID:   pickString(raw, "deviceId"),
		RecordedAt: pickTimestamp(raw, "recordedAt"),

		AirflowValue: pickFloat(raw, "airflowValue"),
		RespBaseline: pickFloat(raw, "respBaseline"),
		RespDiffAbs:  pickFloat(raw, "respDiffAbs"),
		RespRate:     pickFloat(raw, "respRate"),
		BPM:          pickFloat(raw, "bpm"),
		SpO2:         pickFloat(raw, "spo2"),

		Resp2Adc:      pickFloat(raw, "resp2Adc"),
		Resp2Positive: pickBool(raw, "resp2Positive"),

		MicAirValue: pickFloat(raw, "micAirValue"),
	}

	if patientID := pickString(raw, "patientId"); patientID != "" {
		reading.PatientID = &patientID
	}

	return reading, nil
}

// pickFloat 提取有限数值字段；缺失、非数值或 NaN/Inf 返回 nil
func pickFloat(raw map[string]interface{}, key string) *float64 {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	f, ok := v.(float64) // encoding/json 的数值统一解码为 float64
	if !ok {
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func pickBool(raw map[string]interface{}, key string) *bool {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

func pickString(raw map[string]interface{}, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func pickTimestamp(raw map[string]interface{}, key string) time.Time {
	if s := pickString(raw, key); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
