// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App          AppConfig          `koanf:"app"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	JWT          JWTConfig          `koanf:"jwt"`
	RateLimit    RateLimitConfig    `koanf:"rate_limit"`
	CORS         CORSConfig         `koanf:"cors"`
	Log          LogConfig          `koanf:"log"`
	Otel         OtelConfig         `koanf:"otel"`
	Habits       HabitsConfig       `koanf:"habits"`
	Gamification GamificationConfig `koanf:"gamification"`
	Jobs         JobsConfig         `koanf:"jobs"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	PrivateKeyPath    string        `koanf:"private_key_path"`
	PublicKeyPath     string        `koanf:"public_key_path"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
	Issuer            string        `koanf:"issuer"`
	Audience          string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// HabitsConfig tunes the habit store. NeverMissTwice resets a streak on a
// second consecutive skipped/failed day.
type HabitsConfig struct {
	FreeLimit      int  `koanf:"free_limit"`
	NeverMissTwice bool `koanf:"never_miss_twice"`
	MaxRangeDays   int  `koanf:"max_range_days"`
}

// GamificationConfig controls whether un-completing a habit deducts the
// reported XP from the stored total.
type GamificationConfig struct {
	PersistUncompletePenalty bool `koanf:"persist_uncomplete_penalty"`
}

type JobsConfig struct {
	SweepEnabled     bool          `koanf:"sweep_enabled"`
	SweepInterval    time.Duration `koanf:"sweep_interval"`
	SweepConcurrency int           `koanf:"sweep_concurrency"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Habit Ledger",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       false,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"jwt.access_token_expire": "1h",
		"jwt.issuer":              "habit-ledger",
		"jwt.audience":            "habit-ledger-api",
		"jwt.private_key_path":    "keys/private.pem",
		"jwt.public_key_path":     "keys/public.pem",

		"rate_limit.requests": 100,
		"rate_limit.window":   "1m",
		"rate_limit.burst":    20,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":        "info",
		"log.format":       "json",
		"log.file":         "",
		"log.max_size_mb":  10,
		"log.max_backups":  3,
		"log.max_age_days": 28,

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "habit-ledger",

		"habits.free_limit":       5,
		"habits.never_miss_twice": false,
		"habits.max_range_days":   366,

		"gamification.persist_uncomplete_penalty": true,

		"jobs.sweep_enabled":     false,
		"jobs.sweep_interval":    "1h",
		"jobs.sweep_concurrency": 4,
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                    "database.url",
	"DATABASE_AUTO_MIGRATE":           "database.auto_migrate",
	"REDIS_URL":                       "redis.url",
	"ENVIRONMENT":                     "app.environment",
	"HOST":                            "server.host",
	"PORT":                            "server.port",
	"LOG_LEVEL":                       "log.level",
	"LOG_FORMAT":                      "log.format",
	"LOG_FILE":                        "log.file",
	"JWT_PRIVATE_KEY_PATH":            "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":             "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":         "jwt.access_token_expire",
	"JWT_ISSUER":                      "jwt.issuer",
	"JWT_AUDIENCE":                    "jwt.audience",
	"RATE_LIMIT_REQUESTS":             "rate_limit.requests",
	"RATE_LIMIT_WINDOW":               "rate_limit.window",
	"RATE_LIMIT_BURST":                "rate_limit.burst",
	"OTEL_ENDPOINT":                   "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":     "otel.endpoint",
	"OTEL_SERVICE_NAME":               "otel.service_name",
	"OTEL_ENABLED":                    "otel.enabled",
	"OTEL_INSECURE":                   "otel.insecure",
	"OTEL_SAMPLE_RATE":                "otel.sample_rate",
	"HABITS_FREE_LIMIT":               "habits.free_limit",
	"HABITS_NEVER_MISS_TWICE":         "habits.never_miss_twice",
	"HABITS_MAX_RANGE_DAYS":           "habits.max_range_days",
	"GAMIFICATION_PERSIST_UNCOMPLETE": "gamification.persist_uncomplete_penalty",
	"JOBS_SWEEP_ENABLED":              "jobs.sweep_enabled",
	"JOBS_SWEEP_INTERVAL":             "jobs.sweep_interval",
	"JOBS_SWEEP_CONCURRENCY":          "jobs.sweep_concurrency",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PrivateKeyPath == "" {
		return fmt.Errorf("JWT_PRIVATE_KEY_PATH is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Habits.FreeLimit < 1 {
		return fmt.Errorf("habits.free_limit must be at least 1")
	}

	if c.Habits.MaxRangeDays < 1 {
		return fmt.Errorf("habits.max_range_days must be at least 1")
	}

	if c.Jobs.SweepEnabled {
		if c.Jobs.SweepInterval < time.Minute {
			return fmt.Errorf("jobs.sweep_interval must be at least 1m")
		}
		if c.Jobs.SweepConcurrency < 1 {
			return fmt.Errorf("jobs.sweep_concurrency must be at least 1")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
