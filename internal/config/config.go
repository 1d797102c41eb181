package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT配置
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte
}

// Config 监测服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	HTTP struct {
		Addr string
	}

	// 遥测管线配置
	Telemetry struct {
		Topic          string // 数据主题，如 "devices/+/telemetry"
		BufferCapacity int    // 滑动窗口容量
		LatestTTL      int    // 设备最新读数缓存 TTL（秒）
		Stream         string // Redis Streams 流名
	}

	// 相位判定阈值（启发式，待临床验证；见 telemetry.Thresholds）
	Classifier struct {
		PressureRest float64
		PressureHold float64
		MicRest      float64
		MicHold      float64
	}

	// 采样倒计时时长（秒）
	Sampling struct {
		Seconds int
	}

	// 外部临床接口（会话汇总推送）
	Clinical struct {
		Enabled  bool
		Endpoint string
		APIKey   string
		Source   string
	}

	Log struct {
		Level  string
		Format string
		File   string // 非空时同时写入滚动日志文件
	}
}

// Load 加载配置（.env 文件 + 环境变量 + 默认值）
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or default values")
	}

	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "respira")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://192.168.1.50:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "respira-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(getEnvInt("MQTT_QOS", 1))

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8085")

	cfg.Telemetry.Topic = getEnv("TELEMETRY_TOPIC", "devices/+/telemetry")
	cfg.Telemetry.BufferCapacity = getEnvInt("TELEMETRY_BUFFER_CAPACITY", 300)
	cfg.Telemetry.LatestTTL = getEnvInt("TELEMETRY_LATEST_TTL", 60)
	cfg.Telemetry.Stream = getEnv("TELEMETRY_STREAM", "telemetry:data:stream")

	cfg.Classifier.PressureRest = getEnvFloat("CLASSIFIER_PRESSURE_REST", 0.5)
	cfg.Classifier.PressureHold = getEnvFloat("CLASSIFIER_PRESSURE_HOLD", 2)
	cfg.Classifier.MicRest = getEnvFloat("CLASSIFIER_MIC_REST", 20)
	cfg.Classifier.MicHold = getEnvFloat("CLASSIFIER_MIC_HOLD", 60)

	cfg.Sampling.Seconds = getEnvInt("SAMPLING_SECONDS", 240)

	cfg.Clinical.Enabled = strings.EqualFold(getEnv("CLINICAL_API_ENABLED", "false"), "true")
	cfg.Clinical.Endpoint = getEnv("CLINICAL_API_ENDPOINT", "")
	cfg.Clinical.APIKey = getEnv("CLINICAL_API_KEY", "")
	cfg.Clinical.Source = getEnv("CLINICAL_API_SOURCE", "respira-monitor")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")
	cfg.Log.File = getEnv("LOG_FILE", "")

	if cfg.Clinical.Enabled && (cfg.Clinical.Endpoint == "" || cfg.Clinical.APIKey == "") {
		return nil, fmt.Errorf("clinical API enabled but CLINICAL_API_ENDPOINT/CLINICAL_API_KEY not set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
