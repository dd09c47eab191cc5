package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// devSecret signs sessions when no secret is configured outside release mode.
const devSecret = "workflow-dev-secret"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Export   ExportConfig   `mapstructure:"export"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	BaseURL         string        `mapstructure:"base_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// IsRelease reports whether the server runs in gin release mode.
func (s ServerConfig) IsRelease() bool {
	return s.Mode == "release"
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ConnString returns DSN when set, otherwise a postgres URL built from the discrete fields.
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type AuthConfig struct {
	Secret         string        `mapstructure:"secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	CookieName     string        `mapstructure:"cookie_name"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	AdminEmail     string        `mapstructure:"admin_email"`
	AdminPassword  string        `mapstructure:"admin_password"`
	LoginRateLimit string        `mapstructure:"login_rate_limit"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ExportConfig customises generated workbooks. An empty LogoPath uses the built-in logo.
type ExportConfig struct {
	LogoPath string `mapstructure:"logo_path"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configs/config.yaml (optional) and applies environment overrides.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Auth.Secret == "" {
		if c.Server.IsRelease() {
			return errors.New("AUTH_SECRET is required in release mode")
		}
		c.Auth.Secret = devSecret
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("auth.session_ttl must be positive")
	}
	c.Auth.AdminEmail = strings.ToLower(strings.TrimSpace(c.Auth.AdminEmail))
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "workflow")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.session_ttl", 12*time.Hour)
	v.SetDefault("auth.cookie_name", "workflow_session")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.admin_email", "admin@workflow.local")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("auth.login_rate_limit", "10-M")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("export.logo_path", "")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	_ = v.BindEnv("server.port", "PORT", "SERVER_PORT")
	_ = v.BindEnv("server.mode", "GIN_MODE", "SERVER_MODE")
	_ = v.BindEnv("server.base_url", "BASE_URL")

	// Database
	_ = v.BindEnv("database.driver", "DB_DRIVER")
	_ = v.BindEnv("database.dsn", "DATABASE_URL")
	_ = v.BindEnv("database.host", "DB_HOST")
	_ = v.BindEnv("database.port", "DB_PORT")
	_ = v.BindEnv("database.user", "DB_USER")
	_ = v.BindEnv("database.password", "DB_PASSWORD")
	_ = v.BindEnv("database.dbname", "DB_NAME")
	_ = v.BindEnv("database.sslmode", "DB_SSLMODE")

	// Auth
	_ = v.BindEnv("auth.secret", "AUTH_SECRET", "JWT_SECRET")
	_ = v.BindEnv("auth.session_ttl", "SESSION_TTL")
	_ = v.BindEnv("auth.cookie_secure", "COOKIE_SECURE")
	_ = v.BindEnv("auth.admin_email", "ADMIN_EMAIL")
	_ = v.BindEnv("auth.admin_password", "ADMIN_PASSWORD")
	_ = v.BindEnv("auth.login_rate_limit", "LOGIN_RATE_LIMIT")

	// Redis
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	// Log
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")

	_ = v.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
	_ = v.BindEnv("export.logo_path", "EXPORT_LOGO_PATH")
}
