package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Драйверы хранилища ссылок
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Значения по умолчанию для учётной записи администратора
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "yourStrongPassword"
)

type Config struct {
	App       AppConfig
	Storage   StorageConfig
	DB        DBConfig
	Redis     RedisConfig
	Admin     AdminConfig
	Turnstile TurnstileConfig
}

type AppConfig struct {
	Port           string
	Env            string
	BaseURL        string        // если пусто, берётся origin запроса
	RequestTimeout time.Duration // таймаут на вызовы хранилища и Turnstile
	SlugRetries    int           // 0 - одна попытка генерации без повторов
	SweepInterval  time.Duration // 0 - фоновая очистка выключена
}

type StorageConfig struct {
	Driver string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN собирает строку подключения к PostgreSQL
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// AdminConfig учётные данные единственного администратора
type AdminConfig struct {
	Username    string
	Password    string
	TokenSecret string
}

// TurnstileConfig ключи Cloudflare Turnstile. Без секрета проверка не выполняется.
type TurnstileConfig struct {
	SiteKey string
	Secret  string
}

// Enabled сообщает, включена ли проверка человека
func (c TurnstileConfig) Enabled() bool {
	return c.Secret != ""
}

// IsDevelopment сообщает, запущено ли приложение в режиме разработки
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// UsesDefaultAdminPassword сообщает, что пароль администратора не был задан
func (c *Config) UsesDefaultAdminPassword() bool {
	return c.Admin.Password == DefaultAdminPassword
}

// Load читает конфигурацию из .env (если файл есть) и переменных окружения
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile читает конфигурацию из указанного файла и переменных окружения
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	setDefaults(v)

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.BaseURL = strings.TrimSuffix(v.GetString("BASE_URL"), "/")
	cfg.App.RequestTimeout = v.GetDuration("REQUEST_TIMEOUT")
	cfg.App.SlugRetries = v.GetInt("SLUG_RETRIES")
	cfg.App.SweepInterval = v.GetDuration("SWEEP_INTERVAL")

	cfg.Storage.Driver = strings.ToLower(v.GetString("STORAGE_DRIVER"))

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	cfg.Admin.Username = v.GetString("ADMIN_USERNAME")
	cfg.Admin.Password = v.GetString("ADMIN_PASSWORD")
	cfg.Admin.TokenSecret = v.GetString("ADMIN_TOKEN_SECRET")

	cfg.Turnstile.SiteKey = v.GetString("TURNSTILE_SITE_KEY")
	cfg.Turnstile.Secret = v.GetString("TURNSTILE_SECRET")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("SLUG_RETRIES", 0)
	v.SetDefault("SWEEP_INTERVAL", time.Duration(0))
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ADMIN_USERNAME", DefaultAdminUsername)
	v.SetDefault("ADMIN_PASSWORD", DefaultAdminPassword)
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageRedis, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.App.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.App.SlugRetries < 0 {
		return errors.New("SLUG_RETRIES must not be negative")
	}
	if c.App.SweepInterval < 0 {
		return errors.New("SWEEP_INTERVAL must not be negative")
	}
	if c.Admin.Username == "" {
		return errors.New("ADMIN_USERNAME must not be empty")
	}

	return nil
}
