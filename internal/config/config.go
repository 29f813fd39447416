package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	RedisAddr     string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" yaml:"redis_db"`

	// IdentityTTL is how long an idle identity survives in the fast store.
	IdentityTTL time.Duration `mapstructure:"identity_ttl" yaml:"identity_ttl"`
	// HistoryLimit caps the recent-message ring served to joining clients.
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
	// MessageRateLimit caps chat messages per connection per minute.
	// Zero disables the cap.
	MessageRateLimit int `mapstructure:"message_rate_limit" yaml:"message_rate_limit"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "pokechat.db",
		RedisAddr:         "localhost:6379",
		RedisPassword:     "",
		RedisDB:           0,
		IdentityTTL:       48 * time.Hour,
		HistoryLimit:      100,
		MessageRateLimit:  120,
		JWTSecret:         "change-me",
		JWTIssuer:         "pokechat",
		JWTAudience:       "pokechat-clients",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.RedisAddr != "" {
		c.RedisAddr = other.RedisAddr
	}
	if other.RedisPassword != "" {
		c.RedisPassword = other.RedisPassword
	}
	if other.RedisDB != 0 {
		c.RedisDB = other.RedisDB
	}
	if other.IdentityTTL != 0 {
		c.IdentityTTL = other.IdentityTTL
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.MessageRateLimit != 0 {
		c.MessageRateLimit = other.MessageRateLimit
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.JWTIssuer != "" {
		c.JWTIssuer = other.JWTIssuer
	}
	if other.JWTAudience != "" {
		c.JWTAudience = other.JWTAudience
	}
}
