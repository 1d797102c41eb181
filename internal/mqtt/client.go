// Package mqtt 封装与遥测代理的连接
//
// 连接是进程级单例：代理客户端不应随每次前台刷新/服务重组而重连，
// 生命周期绑定"监测进行中"状态，由幂等的 Connect/Close 显式管理。
package mqtt

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"respira-monitor/internal/config"
)

const (
	keepAlive         = 30 * time.Second
	connectTimeout    = 5 * time.Second
	reconnectInterval = 2 * time.Second
)

// MessageHandler 消息处理函数类型
type MessageHandler func(topic string, payload []byte) error

// StatusHandler 连接状态变更回调（connected=false 覆盖断线重连中与最终关闭）
type StatusHandler func(connected bool)

// Client MQTT客户端封装
type Client struct {
	client mqtt.Client
	cfg    *config.MQTTConfig
	logger *zap.Logger

	mu       sync.Mutex
	handlers []StatusHandler
}

var (
	sharedMu sync.Mutex
	shared   *Client
)

// Connect 获取进程级共享连接（幂等：已连接时直接返回现有连接）
//
// 连接失败不返回错误：客户端按固定间隔自动重试，调用方只通过
// StatusHandler 观察 connected/disconnected 状态变化，不需要自己的重试循环。
func Connect(cfg *config.MQTTConfig, logger *zap.Logger) *Client {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		return shared
	}

	c := &Client{cfg: cfg, logger: logger}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	// clientId 加随机后缀避免多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.ClientID, uuid.NewString()[:8]))

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetKeepAlive(keepAlive)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(reconnectInterval)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(reconnectInterval)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("Connected to MQTT broker", zap.String("broker", cfg.Broker))
		c.notify(true)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		// 非致命：客户端自动重连，这里只记录并通知状态
		logger.Warn("MQTT connection lost", zap.Error(err))
		c.notify(false)
	})

	c.client = mqtt.NewClient(opts)
	// 不等待连接完成：失败由客户端按固定间隔重试
	c.client.Connect()

	shared = c
	return c
}

// Close 关闭并清除共享连接；无连接时为空操作
//
// 关闭后下一次 Connect 会建立全新连接。
func Close() {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil {
		return
	}
	shared.notify(false)
	shared.client.Disconnect(250) // 250ms等待时间
	shared = nil
}

// OnStatus 注册连接状态回调
func (c *Client) OnStatus(handler StatusHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

func (c *Client) notify(connected bool) {
	c.mu.Lock()
	handlers := make([]StatusHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(connected)
	}
}

// Subscribe 订阅主题
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if token := c.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			// 记录错误，但不中断后续消息处理
			c.logger.Warn("Error handling MQTT message",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	return nil
}

// Unsubscribe 取消订阅
func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to unsubscribe: %w", token.Error())
	}

	return nil
}

// Publish 发布消息
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}

	return nil
}

// IsConnected 检查连接状态
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
