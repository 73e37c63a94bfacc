package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/chattyapp/chatty-server/pkg/config"
	"github.com/chattyapp/chatty-server/pkg/database"
	"github.com/chattyapp/chatty-server/pkg/log"
)

type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	JWT       JWTConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Database  database.Config
	Log       log.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

type JWTConfig struct {
	Secret        string        // base64-encoded HS256 secret
	AccessExpiry  time.Duration `mapstructure:"access_expiry"`
	RefreshExpiry time.Duration `mapstructure:"refresh_expiry"`
	Issuer        string
}

type KafkaConfig struct {
	Brokers              string
	PublicMessagesTopic  string `mapstructure:"public_messages_topic"`
	PrivateMessagesTopic string `mapstructure:"private_messages_topic"`
	NotificationsTopic   string `mapstructure:"notifications_topic"`
	GroupID              string `mapstructure:"group_id"`
	Partitions           int
}

type RedisConfig struct {
	Address     string
	Password    string
	DB          int
	MessageTTL  time.Duration `mapstructure:"message_ttl"`
	MaxMessages int           `mapstructure:"max_messages"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 16384)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_expiry", "15m")
	v.SetDefault("jwt.refresh_expiry", "168h")
	v.SetDefault("jwt.issuer", "chatty")
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.public_messages_topic", "public-messages")
	v.SetDefault("kafka.private_messages_topic", "private-messages")
	v.SetDefault("kafka.notifications_topic", "notifications")
	v.SetDefault("kafka.group_id", "chatty-dispatchers")
	v.SetDefault("kafka.partitions", 8)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.message_ttl", "3600s")
	v.SetDefault("redis.max_messages", 50)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "chatty.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "chatty-server")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.group_id", "KAFKA_GROUP_ID")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.JWT.AccessExpiry = parseDuration(v, "jwt.access_expiry", 15*time.Minute)
	cfg.JWT.RefreshExpiry = parseDuration(v, "jwt.refresh_expiry", 7*24*time.Hour)
	cfg.Redis.MessageTTL = parseDuration(v, "redis.message_ttl", time.Hour)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
