package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/uma-arai/sbcntr-maitred/internal/common/database"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DB  database.Config
	SFN struct {
		TaskToken string
	}
	Booking       BookingConfig
	Event         EventConfig
	EnableTracing bool
}

// BookingConfig は予約処理の設定です
type BookingConfig struct {
	// PlaceholderPhone は名前のみで登録された仮顧客の電話番号です
	PlaceholderPhone string
	// UpcomingWindow は直近の予約として扱う期間です
	UpcomingWindow time.Duration
}

// EventConfig は予約イベントの発行先の設定です
// RedisAddr が空の場合はイベントを発行しません
type EventConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Channel       string
}

// FileConfig は設定ファイル（YAML）の形式です
// 値が指定された項目のみ既定値を上書きし、環境変数が最優先されます
type FileConfig struct {
	Database *struct {
		Driver   string `yaml:"driver,omitempty"`
		Host     string `yaml:"host,omitempty"`
		Port     int    `yaml:"port,omitempty"`
		UserName string `yaml:"username,omitempty"`
		Password string `yaml:"password,omitempty"`
		Name     string `yaml:"name,omitempty"`
		SSLMode  string `yaml:"ssl_mode,omitempty"`
		Path     string `yaml:"path,omitempty"`
	} `yaml:"database,omitempty"`
	Booking *struct {
		PlaceholderPhone string `yaml:"placeholder_phone,omitempty"`
		UpcomingWindow   string `yaml:"upcoming_window,omitempty"`
	} `yaml:"booking,omitempty"`
	Event *struct {
		RedisAddr     string `yaml:"redis_addr,omitempty"`
		RedisPassword string `yaml:"redis_password,omitempty"`
		RedisDB       int    `yaml:"redis_db,omitempty"`
		Channel       string `yaml:"channel,omitempty"`
	} `yaml:"event,omitempty"`
}

// LoadConfig は設定を読み込みます
func LoadConfig(taskToken string) (*Config, error) {
	return load(defaultConfig(), taskToken)
}

// LoadConfigFile は設定ファイルを既定値として読み込み、環境変数で上書きします
// path が空の場合は LoadConfig と同じです
func LoadConfigFile(path, taskToken string) (*Config, error) {
	base := defaultConfig()
	if path == "" {
		return load(base, taskToken)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file FileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := file.apply(base); err != nil {
		return nil, err
	}
	return load(base, taskToken)
}

func defaultConfig() *Config {
	return &Config{
		DB: database.Config{
			Driver:   database.DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			UserName: "sbcntrapp",
			Password: "password",
			DBName:   "sbcntrapp",
			Path:     "maitred.db",
		},
		Booking: BookingConfig{
			PlaceholderPhone: model.DefaultPlaceholderPhone,
			UpcomingWindow:   model.DefaultUpcomingWindow,
		},
		Event: EventConfig{
			Channel: "maitred:reservations",
		},
	}
}

func (f FileConfig) apply(cfg *Config) error {
	if d := f.Database; d != nil {
		cfg.DB.Driver = orDefault(d.Driver, cfg.DB.Driver)
		cfg.DB.Host = orDefault(d.Host, cfg.DB.Host)
		if d.Port != 0 {
			cfg.DB.Port = d.Port
		}
		cfg.DB.UserName = orDefault(d.UserName, cfg.DB.UserName)
		cfg.DB.Password = orDefault(d.Password, cfg.DB.Password)
		cfg.DB.DBName = orDefault(d.Name, cfg.DB.DBName)
		cfg.DB.SSLMode = orDefault(d.SSLMode, cfg.DB.SSLMode)
		cfg.DB.Path = orDefault(d.Path, cfg.DB.Path)
	}

	if b := f.Booking; b != nil {
		cfg.Booking.PlaceholderPhone = orDefault(b.PlaceholderPhone, cfg.Booking.PlaceholderPhone)
		if b.UpcomingWindow != "" {
			window, err := time.ParseDuration(b.UpcomingWindow)
			if err != nil || window <= 0 {
				return fmt.Errorf("invalid booking.upcoming_window %q", b.UpcomingWindow)
			}
			cfg.Booking.UpcomingWindow = window
		}
	}

	if e := f.Event; e != nil {
		cfg.Event.RedisAddr = orDefault(e.RedisAddr, cfg.Event.RedisAddr)
		cfg.Event.RedisPassword = orDefault(e.RedisPassword, cfg.Event.RedisPassword)
		if e.RedisDB != 0 {
			cfg.Event.RedisDB = e.RedisDB
		}
		cfg.Event.Channel = orDefault(e.Channel, cfg.Event.Channel)
	}
	return nil
}

func load(base *Config, taskToken string) (*Config, error) {
	cfg := &Config{
		DB: database.Config{
			Driver:   getEnvOrDefault("DB_DRIVER", base.DB.Driver),
			Host:     getEnvOrDefault("DB_HOST", base.DB.Host),
			Port:     getEnvAsIntOrDefault("DB_PORT", base.DB.Port),
			UserName: getEnvOrDefault("DB_USERNAME", base.DB.UserName),
			Password: getEnvOrDefault("DB_PASSWORD", base.DB.Password),
			DBName:   getEnvOrDefault("DB_NAME", base.DB.DBName),
			SSLMode:  os.Getenv("DB_SSL_MODE"),
			Path:     getEnvOrDefault("DB_PATH", base.DB.Path),
		},
		SFN: struct {
			TaskToken string
		}{
			TaskToken: taskToken,
		},
		Booking: BookingConfig{
			PlaceholderPhone: getEnvOrDefault("MAITRED_PLACEHOLDER_PHONE", base.Booking.PlaceholderPhone),
			UpcomingWindow:   base.Booking.UpcomingWindow,
		},
		Event: EventConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvAsIntOrDefault("REDIS_DB", base.Event.RedisDB),
			Channel:       getEnvOrDefault("REDIS_CHANNEL", base.Event.Channel),
		},
		EnableTracing: false,
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = base.DB.SSLMode
	}
	if cfg.Event.RedisAddr == "" {
		cfg.Event.RedisAddr = base.Event.RedisAddr
	}
	if cfg.Event.RedisPassword == "" {
		cfg.Event.RedisPassword = base.Event.RedisPassword
	}

	if value := os.Getenv("MAITRED_UPCOMING_WINDOW"); value != "" {
		window, err := time.ParseDuration(value)
		if err != nil || window <= 0 {
			return nil, fmt.Errorf("invalid MAITRED_UPCOMING_WINDOW %q", value)
		}
		cfg.Booking.UpcomingWindow = window
	}

	// 環境変数[SBCNTR_ENABLE_TRACING]を見てトレースを有効にする。対応しているTracingはAWS_XRAYのみ。
	// 環境変数[AWS_XRAY_SDK_DISABLED]がtrueの場合は必ずトレースを無効にする。
	enableKey := os.Getenv("SBCNTR_ENABLE_TRACING")
	if !sdkDisabled() && (strings.ToLower(enableKey) == "true" || enableKey == "1") {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "FALSE")
		cfg.EnableTracing = true
	} else {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "TRUE")
		cfg.EnableTracing = false
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Printf("Environment variable %s is not set, using default value", key)
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}

// Check if SDK is disabled
func sdkDisabled() bool {
	disableKey := os.Getenv("AWS_XRAY_SDK_DISABLED")
	return strings.ToLower(disableKey) == "true"
}
