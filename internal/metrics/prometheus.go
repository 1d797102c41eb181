// Package metrics 导出 Prometheus 指标
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesReceived 收到的遥测消息总数
	MessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respira_messages_received_total",
			Help: "Total number of telemetry messages received from the broker",
		},
	)

	// MessagesMalformed 丢弃的坏消息总数（非 JSON 对象）
	MessagesMalformed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respira_messages_malformed_total",
			Help: "Total number of malformed telemetry messages dropped",
		},
	)

	// MessagesFiltered 因患者过滤被丢弃的消息总数
	MessagesFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respira_messages_filtered_total",
			Help: "Total number of messages dropped by the subject filter",
		},
	)

	// Reconnects 断线重连次数
	Reconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respira_broker_reconnects_total",
			Help: "Total number of broker connection losses",
		},
	)

	// BufferLength 滑动窗口当前长度
	BufferLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "respira_buffer_length",
			Help: "Current number of readings in the stream buffer",
		},
	)

	// SessionsStarted 启动的监测会话总数
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "respira_sessions_started_total",
			Help: "Total number of monitoring sessions started",
		},
	)
)

// Handler 返回 /metrics 端点处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
