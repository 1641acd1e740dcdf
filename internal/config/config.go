package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Tracing  TracingConfig  `yaml:"tracing"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	AutoMigrate     bool          `yaml:"autoMigrate"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LedgerConfig bounds every stock-affecting transaction.
type LedgerConfig struct {
	TxTimeout time.Duration `yaml:"txTimeout"`
}

type TracingConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ServiceName    string `yaml:"serviceName"`
	JaegerEndpoint string `yaml:"jaegerEndpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            3306,
			User:            "repuestos",
			Password:        "secret",
			Name:            "repuestos",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			AutoMigrate:     true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Ledger: LedgerConfig{
			TxTimeout: 5 * time.Second,
		},
		Tracing: TracingConfig{
			Enabled:        false,
			ServiceName:    "repuestos",
			JaegerEndpoint: "http://localhost:14268/api/traces",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load returns the defaults overlaid with environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any environment variable that is set. Values
// already in cfg act as defaults.
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", cfg.Server.Port)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout.String())
	v.SetDefault("DB_HOST", cfg.Database.Host)
	v.SetDefault("DB_PORT", cfg.Database.Port)
	v.SetDefault("DB_USER", cfg.Database.User)
	v.SetDefault("DB_PASSWORD", cfg.Database.Password)
	v.SetDefault("DB_NAME", cfg.Database.Name)
	v.SetDefault("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	v.SetDefault("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	v.SetDefault("DB_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime.String())
	v.SetDefault("DB_AUTO_MIGRATE", cfg.Database.AutoMigrate)
	v.SetDefault("LOG_LEVEL", cfg.Log.Level)
	v.SetDefault("LOG_FORMAT", cfg.Log.Format)
	v.SetDefault("LEDGER_TX_TIMEOUT", cfg.Ledger.TxTimeout.String())
	v.SetDefault("TRACING_ENABLED", cfg.Tracing.Enabled)
	v.SetDefault("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	v.SetDefault("TRACING_JAEGER_ENDPOINT", cfg.Tracing.JaegerEndpoint)
	v.SetDefault("CORS_ALLOWED_ORIGINS", strings.Join(cfg.CORS.AllowedOrigins, ","))

	shutdownTimeout, err := time.ParseDuration(v.GetString("SERVER_SHUTDOWN_TIMEOUT"))
	if err != nil {
		return fmt.Errorf("parsing SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return fmt.Errorf("parsing DB_CONN_MAX_LIFETIME: %w", err)
	}

	txTimeout, err := time.ParseDuration(v.GetString("LEDGER_TX_TIMEOUT"))
	if err != nil {
		return fmt.Errorf("parsing LEDGER_TX_TIMEOUT: %w", err)
	}

	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ShutdownTimeout = shutdownTimeout
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetInt("DB_PORT")
	cfg.Database.User = v.GetString("DB_USER")
	cfg.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Database.Name = v.GetString("DB_NAME")
	cfg.Database.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	cfg.Database.ConnMaxLifetime = connMaxLifetime
	cfg.Database.AutoMigrate = v.GetBool("DB_AUTO_MIGRATE")
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Log.Format = v.GetString("LOG_FORMAT")
	cfg.Ledger.TxTimeout = txTimeout
	cfg.Tracing.Enabled = v.GetBool("TRACING_ENABLED")
	cfg.Tracing.ServiceName = v.GetString("TRACING_SERVICE_NAME")
	cfg.Tracing.JaegerEndpoint = v.GetString("TRACING_JAEGER_ENDPOINT")
	cfg.CORS.AllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return fmt.Errorf("database host and name are required")
	}
	if c.Ledger.TxTimeout <= 0 {
		return fmt.Errorf("ledger transaction timeout must be positive")
	}
	if c.Tracing.Enabled && c.Tracing.JaegerEndpoint == "" {
		return fmt.Errorf("tracing enabled without a jaeger endpoint")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
