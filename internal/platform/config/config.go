// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Log    LogConfig
	Purge  PurgeConfig
}

type ServerConfig struct {
	Addr            string        `env:"NORTHSTAR_ADDR" env-default:":8080"`
	ShutdownTimeout time.Duration `env:"NORTHSTAR_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type DBConfig struct {
	Host     string `env:"NORTHSTAR_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"NORTHSTAR_PG_PORT" env-default:"5432"`
	Name     string `env:"NORTHSTAR_PG_NAME" env-default:"northstar"`
	User     string `env:"NORTHSTAR_PG_USER" env-default:"northstar"`
	Password string `env:"NORTHSTAR_PG_PASSWORD" env-default:""`
	SSLMode  string `env:"NORTHSTAR_PG_SSLMODE" env-default:"disable"`

	MaxOpenConns int           `env:"NORTHSTAR_PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns int           `env:"NORTHSTAR_PG_MAX_IDLE_CONNS" env-default:"5"`
	ConnLifetime time.Duration `env:"NORTHSTAR_PG_CONN_LIFETIME" env-default:"30m"`
}

// DSN renders the lib/pq connection URL.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	// URL is empty when the head cache is disabled.
	URL          string        `env:"NORTHSTAR_REDIS_URL" env-default:""`
	PoolSize     int           `env:"NORTHSTAR_REDIS_POOL_SIZE" env-default:"10"`
	MinIdleConns int           `env:"NORTHSTAR_REDIS_MIN_IDLE_CONNS" env-default:"2"`
	DialTimeout  time.Duration `env:"NORTHSTAR_REDIS_DIAL_TIMEOUT" env-default:"5s"`
	ReadTimeout  time.Duration `env:"NORTHSTAR_REDIS_READ_TIMEOUT" env-default:"3s"`
	WriteTimeout time.Duration `env:"NORTHSTAR_REDIS_WRITE_TIMEOUT" env-default:"3s"`
}

type AuthConfig struct {
	// JWTSigningKey must be overridden outside local development.
	JWTSigningKey string        `env:"NORTHSTAR_JWT_SIGNING_KEY" env-default:"dev-secret-key-change-in-production"`
	TokenTTL      time.Duration `env:"NORTHSTAR_JWT_TOKEN_TTL" env-default:"1h"`
}

type LogConfig struct {
	Level  string `env:"NORTHSTAR_LOG_LEVEL" env-default:"info"`
	Format string `env:"NORTHSTAR_LOG_FORMAT" env-default:"json"`
}

type PurgeConfig struct {
	BatchSize int `env:"NORTHSTAR_PURGE_BATCH_SIZE" env-default:"100"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return &cfg, nil
}
