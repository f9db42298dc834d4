package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// DatabaseConfig postgres store backend
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration // dial and startup ping
}

// DSN lib/pq connection URL. Credentials are escaped.
func (c DatabaseConfig) DSN() string {
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	query.Set("application_name", "seat-monitor")
	if c.ConnectTimeout > 0 {
		// lib/pq takes whole seconds and treats 0 as no limit
		secs := int(c.ConnectTimeout.Round(time.Second) / time.Second)
		if secs < 1 {
			secs = 1
		}
		query.Set("connect_timeout", strconv.Itoa(secs))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Name,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// RedisConfig shared client for the redis store, stream ingest and stream notify
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MQTTConfig broker used for ingest and republish
type MQTTConfig struct {
	Broker    string
	ClientID  string
	Username  string
	Password  string
	QoS       byte
	KeepAlive time.Duration
	// OperationTimeout bounds connect, subscribe and publish acknowledgements.
	OperationTimeout time.Duration
}

func loadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		Name:            getEnv("DB_NAME", "seat_monitor"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		ConnectTimeout:  getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
	}
}

func loadRedis() RedisConfig {
	return RedisConfig{
		Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getInt("REDIS_DB", 0),
		PoolSize:     getInt("REDIS_POOL_SIZE", 10),
		DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
	}
}

func loadMQTT() MQTTConfig {
	qos := getInt("MQTT_QOS", 1)
	if qos < 0 || qos > 2 {
		qos = 1
	}
	return MQTTConfig{
		Broker:           getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		ClientID:         getEnv("MQTT_CLIENT_ID", "seat-monitor"),
		Username:         getEnv("MQTT_USERNAME", ""),
		Password:         getEnv("MQTT_PASSWORD", ""),
		QoS:              byte(qos),
		KeepAlive:        getDuration("MQTT_KEEPALIVE", 30*time.Second),
		OperationTimeout: getDuration("MQTT_OPERATION_TIMEOUT", 5*time.Second),
	}
}
