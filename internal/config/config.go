package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Availability source kinds.
const (
	SourceStatic   = "static"
	SourceDatabase = "database"
	SourceRemote   = "remote"
)

type Config struct {
	Server struct {
		Port               int      `yaml:"port"`
		AllowedOrigins     []string `yaml:"allowed_origins"`
		AdminAPIKey        string   `yaml:"admin_api_key"`
		RateLimitPerSecond float64  `yaml:"rate_limit_per_second"`
		RateLimitBurst     int      `yaml:"rate_limit_burst"`
	} `yaml:"server"`

	Calendar struct {
		Timezone              string `yaml:"timezone"`
		HorizonDays           int    `yaml:"horizon_days"`
		FetchTimeoutSeconds   int    `yaml:"fetch_timeout_seconds"`
		SimulatedLatencyMs    int    `yaml:"simulated_latency_ms"`
		SessionTimeoutMinutes int    `yaml:"session_timeout_minutes"`
		CleanupSchedule       string `yaml:"cleanup_schedule"`
	} `yaml:"calendar"`

	Availability struct {
		Source          string `yaml:"source"`
		RemoteURL       string `yaml:"remote_url"`
		RemoteAPIKey    string `yaml:"remote_api_key"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"availability"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Telegram struct {
		BotToken    string `yaml:"bot_token"`
		StaffChatID int64  `yaml:"staff_chat_id"`
	} `yaml:"telegram"`

	Handoff struct {
		WhatsAppPhone string `yaml:"whatsapp_phone"`
	} `yaml:"handoff"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	RoomsPath string `yaml:"rooms_path"`
}

// BackupConfig controls periodic copies of the SQLite database.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	StoragePath   string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads the YAML config at path. A .env file in the working directory,
// if present, is loaded first so ${VAR} placeholders can refer to it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/petalz.db"
	}
	if cfg.RoomsPath == "" {
		cfg.RoomsPath = "configs/rooms.yaml"
	}
	if cfg.Availability.Source == "" {
		cfg.Availability.Source = SourceStatic
	}
	if cfg.Handoff.WhatsAppPhone == "" {
		cfg.Handoff.WhatsAppPhone = "2348144257874"
	}

	switch cfg.Availability.Source {
	case SourceStatic, SourceDatabase:
	case SourceRemote:
		if cfg.Availability.RemoteURL == "" {
			return nil, fmt.Errorf("availability.remote_url is required for source %q", SourceRemote)
		}
	default:
		return nil, fmt.Errorf("unknown availability.source %q", cfg.Availability.Source)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Location returns the guesthouse time zone that decides "today".
func (c *Config) Location() (*time.Location, error) {
	if c.Calendar.Timezone == "" {
		return time.FixedZone("WAT", 60*60), nil
	}
	loc, err := time.LoadLocation(c.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) HorizonDays() int {
	if c.Calendar.HorizonDays <= 0 {
		return 60
	}
	return c.Calendar.HorizonDays
}

func (c *Config) FetchTimeout() time.Duration {
	if c.Calendar.FetchTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Calendar.FetchTimeoutSeconds) * time.Second
}

func (c *Config) SimulatedLatency() time.Duration {
	if c.Calendar.SimulatedLatencyMs <= 0 {
		return 0
	}
	return time.Duration(c.Calendar.SimulatedLatencyMs) * time.Millisecond
}

func (c *Config) SessionTimeout() time.Duration {
	if c.Calendar.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Calendar.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) CleanupSchedule() string {
	if c.Calendar.CleanupSchedule == "" {
		return "@every 5m"
	}
	return c.Calendar.CleanupSchedule
}

func (c *Config) CacheTTL() time.Duration {
	if c.Availability.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Availability.CacheTTLSeconds) * time.Second
}

func (c *Config) ServerPort() int {
	if c.Server.Port == 0 {
		return 8080
	}
	return c.Server.Port
}
