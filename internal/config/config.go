package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/config"
)

type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Voice      VoiceConfig      `yaml:"voice"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Cache      CacheConfig      `yaml:"cache"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	RatePerMin   int           `yaml:"rate_per_min"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
	UseTLS    bool   `yaml:"use_tls"`
}

type AlertsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	CaregiverEmail string `yaml:"caregiver_email"`
}

// SchedulerConfig carries the state machine's policy constants. The three
// tolerances are independent policy knobs, not derived from one another.
type SchedulerConfig struct {
	Enabled              bool          `yaml:"enabled"`
	SweepInterval        time.Duration `yaml:"sweep_interval"`
	ConfirmWindowMinutes int           `yaml:"confirm_window_minutes"`
	MissGraceMinutes     int           `yaml:"miss_grace_minutes"`
	UpcomingSlackMinutes int           `yaml:"upcoming_slack_minutes"`
}

type VoiceConfig struct {
	TriggerBandMinutes int           `yaml:"trigger_band_minutes"`
	CheckInterval      time.Duration `yaml:"check_interval"`
	SnoozeDuration     time.Duration `yaml:"snooze_duration"`

	// EnforceWindow applies the confirmation window to voice confirmations
	// as well. The reference behavior leaves voice confirmations exempt.
	EnforceWindow bool `yaml:"enforce_window"`
}

type ExtractionConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from YAML file with environment variable overrides
func Load() (*Config, error) {
	configPath := getEnv("CONFIG_PATH", "./config/base.yaml")

	provider, err := config.NewYAML(
		config.File(configPath),
		config.Expand(os.LookupEnv),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	var cfg Config
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables if present
func (c *Config) overrideFromEnv() {
	if val := os.Getenv("SERVICE_NAME"); val != "" {
		c.Service.Name = val
	}
	if val := os.Getenv("SERVICE_ENVIRONMENT"); val != "" {
		c.Service.Environment = val
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.HTTP.Port)
	}
	if val := os.Getenv("DATABASE_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DATABASE_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DATABASE_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DATABASE_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DATABASE_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DATABASE_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.SMTP.Port)
	}
	if val := os.Getenv("SMTP_USERNAME"); val != "" {
		c.SMTP.Username = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}
	if val := os.Getenv("CAREGIVER_EMAIL"); val != "" {
		c.Alerts.CaregiverEmail = val
	}
	if val := os.Getenv("EXTRACTION_API_KEY"); val != "" {
		c.Extraction.APIKey = val
	}
}

// applyDefaults fills the policy constants the reference behavior uses when
// the file leaves them unset.
func (c *Config) applyDefaults() {
	if c.Scheduler.SweepInterval == 0 {
		c.Scheduler.SweepInterval = 30 * time.Second
	}
	if c.Scheduler.ConfirmWindowMinutes == 0 {
		c.Scheduler.ConfirmWindowMinutes = 30
	}
	if c.Scheduler.MissGraceMinutes == 0 {
		c.Scheduler.MissGraceMinutes = 5
	}
	if c.Scheduler.UpcomingSlackMinutes == 0 {
		c.Scheduler.UpcomingSlackMinutes = 2
	}
	if c.Voice.TriggerBandMinutes == 0 {
		c.Voice.TriggerBandMinutes = 2
	}
	if c.Voice.CheckInterval == 0 {
		c.Voice.CheckInterval = 30 * time.Second
	}
	if c.Voice.SnoozeDuration == 0 {
		c.Voice.SnoozeDuration = 5 * time.Minute
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.HTTP.RatePerMin == 0 {
		c.HTTP.RatePerMin = 60
	}
	if c.Extraction.Timeout == 0 {
		c.Extraction.Timeout = 2 * time.Minute
	}
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
