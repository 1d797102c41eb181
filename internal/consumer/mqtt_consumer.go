package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"respira-monitor/internal/cache"
	"respira-monitor/internal/config"
	"respira-monitor/internal/metrics"
	"respira-monitor/internal/models"
	"respira-monitor/internal/mqtt"
	"respira-monitor/internal/telemetry"
)

// ReadingSink 接收规范化读数的下游（监测服务实现）
type ReadingSink interface {
	OnReading(reading *models.NormalizedReading)
}

// Transport 遥测订阅传输（生产环境为 mqtt.Client）
type Transport interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// DeviceResolver 按序列号解析设备（设备用序列号上报）
type DeviceResolver interface {
	GetBySerialNumber(serialNumber string) (*models.Device, error)
}

// TelemetryConsumer 遥测消息消费者
//
// 职责：订阅数据主题，规范化每条消息，补全设备/患者归属，
// 再分发给监测服务、设备最新读数缓存和 Redis Streams。
// 单条消息的失败只丢弃该条，不影响订阅。
type TelemetryConsumer struct {
	cfg       *config.Config
	transport Transport
	devices   DeviceResolver
	kv        cache.KVStore
	streams   cache.StreamPublisher
	sink      ReadingSink
	logger    *zap.Logger
}

func NewTelemetryConsumer(
	cfg *config.Config,
	transport Transport,
	devices DeviceResolver,
	kv cache.KVStore,
	streams cache.StreamPublisher,
	sink ReadingSink,
	logger *zap.Logger,
) *TelemetryConsumer {
	return &TelemetryConsumer{
		cfg:       cfg,
		transport: transport,
		devices:   devices,
		kv:        kv,
		streams:   streams,
		sink:      sink,
		logger:    logger,
	}
}

// Start 订阅遥测主题
func (c *TelemetryConsumer) Start() error {
	if err := c.transport.Subscribe(c.cfg.Telemetry.Topic, c.cfg.MQTT.QoS, c.HandleMessage); err != nil {
		return fmt.Errorf("failed to start telemetry consumer: %w", err)
	}
	c.logger.Info("Telemetry consumer started", zap.String("topic", c.cfg.Telemetry.Topic))
	return nil
}

// Stop 取消订阅
func (c *TelemetryConsumer) Stop() error {
	return c.transport.Unsubscribe(c.cfg.Telemetry.Topic)
}

// HandleMessage 处理单条遥测消息
func (c *TelemetryConsumer) HandleMessage(topic string, payload []byte) error {
	metrics.MessagesReceived.Inc()

	reading, err := telemetry.Normalize(payload)
	if err != nil {
		metrics.MessagesMalformed.Inc()
		return fmt.Errorf("dropping malformed message on %s: %w", topic, err)
	}

	// 消息体缺 deviceId 时退回主题段：devices/{id}/telemetry
	if reading.DeviceID == "" {
		reading.DeviceID = deviceIDFromTopic(topic)
	}

	c.resolvePatient(reading)

	// 先分发给监测管线，缓存/流发布失败不影响实时链路
	c.sink.OnReading(reading)
	c.publish(reading)

	return nil
}

// resolvePatient 消息未携带患者时按设备绑定补全
func (c *TelemetryConsumer) resolvePatient(reading *models.NormalizedReading) {
	if reading.PatientID != nil || reading.DeviceID == "" {
		return
	}

	device, err := c.devices.GetBySerialNumber(reading.DeviceID)
	if err != nil {
		c.logger.Debug("Device not registered, keeping reading unassigned",
			zap.String("device_id", reading.DeviceID))
		return
	}
	reading.PatientID = device.PatientID
}

func (c *TelemetryConsumer) publish(reading *models.NormalizedReading) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if data, err := json.Marshal(reading); err == nil {
		key := fmt.Sprintf("respira:device:%s:latest", reading.DeviceID)
		ttl := time.Duration(c.cfg.Telemetry.LatestTTL) * time.Second
		if err := c.kv.Set(ctx, key, string(data), ttl); err != nil {
			c.logger.Warn("Failed to cache latest reading", zap.Error(err))
		}
	}

	if _, err := c.streams.PublishJSON(ctx, c.cfg.Telemetry.Stream, reading); err != nil {
		c.logger.Warn("Failed to publish reading to stream",
			zap.String("stream", c.cfg.Telemetry.Stream),
			zap.Error(err),
		)
	}
}

// deviceIDFromTopic 提取 devices/{id}/telemetry 的中段
func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 && parts[0] == "devices" {
		return parts[1]
	}
	return ""
}
