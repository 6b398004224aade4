package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Provider  ProviderSettings  `mapstructure:"provider"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ProviderSettings configures the external identity provider connection.
type ProviderSettings struct {
	URL           string        `mapstructure:"url"`
	AnonKey       string        `mapstructure:"anon_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	AutoRefresh   bool          `mapstructure:"auto_refresh"`
	RefreshMargin time.Duration `mapstructure:"refresh_margin"`
	SessionFile   string        `mapstructure:"session_file"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures Redis connection and TLS
type RedisSettings struct {
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	DB                 int           `mapstructure:"db"`
	Password           string        `mapstructure:"password"`
	TLSEnabled         bool          `mapstructure:"tls_enabled"`
	ProfileCachePrefix string        `mapstructure:"profile_cache_prefix"`
	ProfileCacheTTL    time.Duration `mapstructure:"profile_cache_ttl"`
	RateLimitPrefix    string        `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures Kafka producer
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
	Async       bool     `mapstructure:"async"`
}

// RateLimitSettings configures rate limiting windows and max attempts per endpoint
type RateLimitSettings struct {
	WindowDuration           time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts         int           `mapstructure:"login_max_attempts"`
	SignUpMaxAttempts        int           `mapstructure:"sign_up_max_attempts"`
	PasswordResetMaxAttempts int           `mapstructure:"password_reset_max_attempts"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("LEARNHUB")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"provider.url",
		"provider.anon_key",
		"provider.timeout",
		"provider.auto_refresh",
		"provider.refresh_margin",
		"provider.session_file",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.profile_cache_prefix",
		"redis.profile_cache_ttl",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"kafka.async",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.sign_up_max_attempts",
		"rate_limit.password_reset_max_attempts",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "learnhub-client")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "127.0.0.1")
	v.SetDefault("app.port", 8080)

	v.SetDefault("provider.url", "http://localhost:54321")
	v.SetDefault("provider.anon_key", "")
	v.SetDefault("provider.timeout", "10s")
	v.SetDefault("provider.auto_refresh", true)
	v.SetDefault("provider.refresh_margin", "60s")
	v.SetDefault("provider.session_file", "")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "learnhub")
	v.SetDefault("postgres.password", "learnhub_password")
	v.SetDefault("postgres.database", "learnhub")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.profile_cache_prefix", "learnhub:profile")
	v.SetDefault("redis.profile_cache_ttl", "5m")
	v.SetDefault("redis.rate_limit_prefix", "learnhub:ratelimit")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "learnhub")
	v.SetDefault("kafka.async", true)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.sign_up_max_attempts", 3)
	v.SetDefault("rate_limit.password_reset_max_attempts", 3)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "LEARNHUB_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
