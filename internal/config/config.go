package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type RedisConfig struct {
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	Prefix             string `mapstructure:"prefix"`
	PresenceTTLSeconds int    `mapstructure:"presence_ttl_seconds"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTConfig struct {
	Algorithm     string `mapstructure:"algorithm"`
	HSSecret      string `mapstructure:"hs_secret"`
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type WSConfig struct {
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSizeBytes  int64 `mapstructure:"max_message_size_bytes"`
	RateLimitPerSec      int   `mapstructure:"rate_limit_per_sec"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	WS      WSConfig      `mapstructure:"ws"`
	Metrics MetricsConfig `mapstructure:"metrics"`

	// derived
	MongoTimeout  time.Duration
	PresenceTTL   time.Duration
	PingInterval  time.Duration
	WriteDeadline time.Duration
}

// Load reads the YAML config at path. Environment variables with the APP_
// prefix override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Port == "" {
		cfg.App.Port = "5000"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "zameer"
	}
	if cfg.Mongo.TimeoutSeconds == 0 {
		cfg.Mongo.TimeoutSeconds = 10
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "chat"
	}
	if cfg.Redis.PresenceTTLSeconds == 0 {
		cfg.Redis.PresenceTTLSeconds = 60
	}
	if cfg.JWT.Algorithm == "" {
		cfg.JWT.Algorithm = "HS256"
	}
	if cfg.WS.PingIntervalSeconds == 0 {
		cfg.WS.PingIntervalSeconds = 25
	}
	if cfg.WS.WriteDeadlineSeconds == 0 {
		cfg.WS.WriteDeadlineSeconds = 10
	}
	if cfg.WS.MaxMessageSizeBytes == 0 {
		cfg.WS.MaxMessageSizeBytes = 64 * 1024
	}
	if cfg.WS.RateLimitPerSec == 0 {
		cfg.WS.RateLimitPerSec = 20
	}
	cfg.MongoTimeout = time.Duration(cfg.Mongo.TimeoutSeconds) * time.Second
	cfg.PresenceTTL = time.Duration(cfg.Redis.PresenceTTLSeconds) * time.Second
	cfg.PingInterval = time.Duration(cfg.WS.PingIntervalSeconds) * time.Second
	cfg.WriteDeadline = time.Duration(cfg.WS.WriteDeadlineSeconds) * time.Second
}
