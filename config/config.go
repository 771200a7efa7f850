// Package config 加载 gocrud 服务配置：YAML 文件 + GOCRUD_ 前缀环境变量覆盖。
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	dbcore "gocrud/data/db"
	httpx "gocrud/http"
)

// EnvPrefix 环境变量前缀，例如 GOCRUD_DATABASE_DSN
const EnvPrefix = "GOCRUD"

// 事件传输方式
const (
	TransportNone   = "none"
	TransportMemory = "memory"
	TransportRedis  = "redis"
	TransportNATS   = "nats"
)

// Config 服务配置
type Config struct {
	Database dbcore.DBConfig `mapstructure:"database"`
	HTTP     httpx.WebConfig `mapstructure:"http"`
	Query    QueryConfig     `mapstructure:"query"`
	Events   EventsConfig    `mapstructure:"events"`
	Log      LogConfig       `mapstructure:"log"`
}

// QueryConfig 列表查询默认值
type QueryConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	// MaxLimit 0 表示不限制
	MaxLimit int `mapstructure:"max_limit"`
}

// EventsConfig 变更事件发布配置
type EventsConfig struct {
	Transport string      `mapstructure:"transport"`
	Redis     RedisConfig `mapstructure:"redis"`
	NATS      NATSConfig  `mapstructure:"nats"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	StreamPrefix string `mapstructure:"stream_prefix"`
	MaxLen       int64  `mapstructure:"max_len"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Stream        string        `mapstructure:"stream"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	MaxAge        time.Duration `mapstructure:"max_age"`
}

// LogConfig 日志配置，format 为 json 或 console
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 读取配置。path 为空时只使用默认值与环境变量；文件不存在视为错误。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if c.Database.Driver == "" {
		return fmt.Errorf("database.driver is required")
	}
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("query.default_limit must be positive, got %d", c.Query.DefaultLimit)
	}
	if c.Query.MaxLimit < 0 {
		return fmt.Errorf("query.max_limit must not be negative, got %d", c.Query.MaxLimit)
	}
	switch c.Events.Transport {
	case TransportNone, TransportMemory:
	case TransportRedis:
		if c.Events.Redis.Addr == "" {
			return fmt.Errorf("events.redis.addr is required for redis transport")
		}
	case TransportNATS:
		if c.Events.NATS.URL == "" {
			return fmt.Errorf("events.nats.url is required for nats transport")
		}
	default:
		return fmt.Errorf("unknown events.transport %q", c.Events.Transport)
	}
	return nil
}

// setDefaults 为每个键设置默认值，AutomaticEnv 只对已知键生效
func setDefaults(v *viper.Viper) {
	web := httpx.DefaultWebConfig()

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:gocrud.db?_time_format=sqlite")
	v.SetDefault("database.dialect", "")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)
	v.SetDefault("database.conn_max_idle_time", 0)

	v.SetDefault("http.addr", web.Addr)
	v.SetDefault("http.read_timeout", web.ReadTimeout)
	v.SetDefault("http.write_timeout", web.WriteTimeout)
	v.SetDefault("http.idle_timeout", web.IdleTimeout)
	v.SetDefault("http.shutdown_timeout", web.ShutdownTimeout)
	v.SetDefault("http.max_body_bytes", web.MaxBodyBytes)

	v.SetDefault("query.default_limit", 15)
	v.SetDefault("query.max_limit", 100)

	v.SetDefault("events.transport", TransportMemory)
	v.SetDefault("events.redis.addr", "")
	v.SetDefault("events.redis.username", "")
	v.SetDefault("events.redis.password", "")
	v.SetDefault("events.redis.db", 0)
	v.SetDefault("events.redis.stream_prefix", "gocrud:")
	v.SetDefault("events.redis.max_len", 10000)
	v.SetDefault("events.nats.url", "")
	v.SetDefault("events.nats.stream", "GOCRUD")
	v.SetDefault("events.nats.subject_prefix", "gocrud.")
	v.SetDefault("events.nats.max_age", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
