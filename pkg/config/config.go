package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config настройки приложения: переменные окружения через Viper,
// опционально .env и config/config.yaml
type Config struct {
	App     AppConfig
	DB      DBConfig
	HTTP    HTTPConfig
	Session SessionConfig
	SMTP    SMTPConfig
}

// AppConfig общие настройки
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	// TemplatesDir вместо встроенных шаблонов, если задан
	TemplatesDir string
}

func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// DBConfig настройки PostgreSQL. DatabaseURL, если задан, используется как есть
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString DATABASE_URL или DSN из частей
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN собирает postgres URL с экранированием логина и пароля
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig адрес сервера
type HTTPConfig struct {
	Host string
	Port int
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SessionConfig настройки подписанной куки сессии
type SessionConfig struct {
	Secret   string
	TTLHours int
}

func (c SessionConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SMTPConfig исходящая почта. Пустой Host отключает отправку
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// Load читает настройки из переменных окружения (APP_ENV, DB_HOST, SESSION_SECRET, ...).
// Переменные окружения важнее значений из файлов.
func Load() (*Config, error) {
	v := viper.New()
	if err := readFiles(v, "."); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

// readFiles читает необязательные dir/.env и dir/config/config.yaml,
// значения yaml накладываются поверх .env
func readFiles(v *viper.Viper, dir string) error {
	v.SetConfigFile(filepath.Join(dir, ".env"))
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: read .env: %w", err)
	}

	v.SetConfigFile(filepath.Join(dir, "config", "config.yaml"))
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: read config.yaml: %w", err)
	}
	return nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:          getString(v, "APP_ENV", "development"),
			Name:         getString(v, "APP_NAME", "conductor"),
			LogLevel:     getString(v, "LOG_LEVEL", "info"),
			TemplatesDir: getString(v, "TEMPLATES_DIR", ""),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "purchasing"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Session: SessionConfig{
			Secret:   getString(v, "SESSION_SECRET", ""),
			TTLHours: getInt(v, "SESSION_TTL_HOURS", 24*14),
		},
		SMTP: SMTPConfig{
			Host:     getString(v, "SMTP_HOST", ""),
			Port:     getInt(v, "SMTP_PORT", 587),
			User:     getString(v, "SMTP_USER", ""),
			Password: getString(v, "SMTP_PASSWORD", ""),
			From:     getString(v, "SMTP_FROM", "no-reply@procurement.local"),
		},
	}

	if cfg.Session.Secret == "" {
		if cfg.App.IsProduction() {
			return nil, errors.New("config: SESSION_SECRET is required in production")
		}
		cfg.Session.Secret = "development-session-secret"
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	switch v.Get(key).(type) {
	case string:
		n, err := strconv.Atoi(v.GetString(key))
		if err != nil {
			return def
		}
		return n
	default:
		return v.GetInt(key)
	}
}
