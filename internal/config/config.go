package config

import (
	"os"
	"strconv"
	"time"
)

// Config seat-monitor service configuration
type Config struct {
	Server struct {
		Addr            string
		ShutdownTimeout time.Duration
	}

	Store struct {
		Backend        string // memory | file | redis | postgres
		DataDir        string // file backend directory
		RedisKeyPrefix string // redis backend key prefix, e.g. "seat:"
	}

	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig

	Monitor struct {
		AggregateInterval time.Duration // tumbling window length
		InboxSize         int           // buffered inbound messages
		SubscriberBuffer  int           // per-subscriber outbound queue
		ProlongedMinutes  int           // danger threshold
	}

	Ingest struct {
		MQTT struct {
			Enabled bool
			Topic   string
		}
		Stream struct {
			Enabled  bool
			Name     string
			Group    string
			Consumer string
		}
	}

	Notify struct {
		Webhook struct {
			URL     string // empty disables
			Timeout time.Duration
		}
		Stream struct {
			Enabled bool
			Name    string
			MaxLen  int64
		}
		MQTT struct {
			Topic string // empty disables
		}
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Server.Addr = ":" + getEnv("PORT", "8080")
	cfg.Server.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", 5*time.Second)

	cfg.Store.Backend = getEnv("STORE_BACKEND", "file")
	cfg.Store.DataDir = getEnv("DATA_DIR", "data")
	cfg.Store.RedisKeyPrefix = getEnv("STORE_REDIS_PREFIX", "seat:")

	cfg.Database = loadDatabase()
	cfg.Redis = loadRedis()
	cfg.MQTT = loadMQTT()

	cfg.Monitor.AggregateInterval = getDuration("AGGREGATE_INTERVAL", 10*time.Second)
	cfg.Monitor.InboxSize = getInt("INBOX_SIZE", 256)
	cfg.Monitor.SubscriberBuffer = getInt("SUBSCRIBER_BUFFER", 16)
	cfg.Monitor.ProlongedMinutes = getInt("PROLONGED_MINUTES", 2)

	cfg.Ingest.MQTT.Enabled = getBool("INGEST_MQTT_ENABLED", false)
	cfg.Ingest.MQTT.Topic = getEnv("INGEST_MQTT_TOPIC", "seat/+/events")
	cfg.Ingest.Stream.Enabled = getBool("INGEST_STREAM_ENABLED", false)
	cfg.Ingest.Stream.Name = getEnv("INGEST_STREAM_NAME", "seat:inbound")
	cfg.Ingest.Stream.Group = getEnv("INGEST_STREAM_GROUP", "seat-monitor")
	cfg.Ingest.Stream.Consumer = getEnv("INGEST_STREAM_CONSUMER", "seat-monitor-1")

	cfg.Notify.Webhook.URL = getEnv("NOTIFY_WEBHOOK_URL", "")
	cfg.Notify.Webhook.Timeout = getDuration("NOTIFY_WEBHOOK_TIMEOUT", 3*time.Second)
	cfg.Notify.Stream.Enabled = getBool("NOTIFY_STREAM_ENABLED", false)
	cfg.Notify.Stream.Name = getEnv("NOTIFY_STREAM_NAME", "seat:notifications")
	cfg.Notify.Stream.MaxLen = int64(getInt("NOTIFY_STREAM_MAXLEN", 1000))
	cfg.Notify.MQTT.Topic = getEnv("NOTIFY_MQTT_TOPIC", "")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// NeedsMQTT reports whether any component uses the broker.
func (c *Config) NeedsMQTT() bool {
	return c.Ingest.MQTT.Enabled || c.Notify.MQTT.Topic != ""
}

// NeedsRedis reports whether any component uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.Store.Backend == "redis" || c.Ingest.Stream.Enabled || c.Notify.Stream.Enabled
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDuration accepts Go durations ("10s") or bare seconds ("10").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
