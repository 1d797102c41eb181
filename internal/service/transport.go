package service

import (
	"go.uber.org/zap"

	"respira-monitor/internal/cache"
	"respira-monitor/internal/config"
	"respira-monitor/internal/consumer"
	"respira-monitor/internal/mqtt"
)

// MQTTTransport 生产传输实现：进程级 MQTT 单例 + 遥测消费者
//
// Start/Stop 与监测会话一一对应：Start 建立（或复用）共享连接并订阅，
// Stop 取消订阅并关闭共享连接。
type MQTTTransport struct {
	cfg     *config.Config
	devices consumer.DeviceResolver
	kv      cache.KVStore
	streams cache.StreamPublisher
	logger  *zap.Logger

	consumer *consumer.TelemetryConsumer
}

func NewMQTTTransport(
	cfg *config.Config,
	devices consumer.DeviceResolver,
	kv cache.KVStore,
	streams cache.StreamPublisher,
	logger *zap.Logger,
) *MQTTTransport {
	return &MQTTTransport{
		cfg:     cfg,
		devices: devices,
		kv:      kv,
		streams: streams,
		logger:  logger,
	}
}

// Start 连接代理并启动消费者
func (t *MQTTTransport) Start(sink ReadingSink, onStatus func(connected bool)) error {
	client := mqtt.Connect(&t.cfg.MQTT, t.logger)
	client.OnStatus(onStatus)

	t.consumer = consumer.NewTelemetryConsumer(
		t.cfg, client, t.devices, t.kv, t.streams, sink, t.logger)
	return t.consumer.Start()
}

// Stop 停止消费者并关闭共享连接
func (t *MQTTTransport) Stop() error {
	var err error
	if t.consumer != nil {
		err = t.consumer.Stop()
		t.consumer = nil
	}
	mqtt.Close()
	return err
}
