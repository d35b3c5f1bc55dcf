package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Taipei"

	configPathEnv  = "NEWSCOURIER_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	lineTokenEnv   = "LINE_CHANNEL_ACCESS_TOKEN"
	lineSecretEnv  = "LINE_CHANNEL_SECRET"
	owmAPIKeyEnv   = "OWM_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Source        SourceConfig       `yaml:"source"`
	ETL           ETLConfig          `yaml:"etl"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Weather       WeatherConfig      `yaml:"weather"`
	Server        ServerConfig       `yaml:"server"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SourceConfig describes the news site endpoints and crawl bounds.
type SourceConfig struct {
	BaseURL      string `yaml:"baseUrl"`
	ListEndpoint string `yaml:"listEndpoint"`
	MenuPath     string `yaml:"menuPath"`
	PageSize     int    `yaml:"pageSize"`
	WindowHours  int    `yaml:"windowHours"`
	UserAgent    string `yaml:"userAgent"`
}

// Window is the recency cutoff span applied while paginating.
func (s SourceConfig) Window() time.Duration {
	return time.Duration(s.WindowHours) * time.Hour
}

// ETLConfig bounds the load stage.
type ETLConfig struct {
	BatchSize  int      `yaml:"batchSize"`
	Categories []string `yaml:"categories"`
}

// SchedulerConfig defines when the crawl and notify jobs run.
type SchedulerConfig struct {
	CrawlCron  string         `yaml:"crawlCron"`
	NotifyCron string         `yaml:"notifyCron"`
	Timezone   string         `yaml:"timezone"`
	location   *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig wires the push-messaging channel.
type NotificationConfig struct {
	Line LineConfig `yaml:"line"`
}

// LineConfig carries LINE Messaging API credentials and endpoints.
type LineConfig struct {
	ChannelToken  string `yaml:"channelToken"`
	ChannelSecret string `yaml:"channelSecret"`
	PushURL       string `yaml:"pushUrl"`
	NewsLimit     int    `yaml:"newsLimit"`
}

// WeatherConfig describes the OpenWeatherMap integration.
type WeatherConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseUrl"`
}

// ServerConfig describes the webhook listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig selects log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads .env, YAML configuration (if present), and environment overrides.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// ValidateForETL reports the fatal misconfigurations of a crawl/load run.
func (c Config) ValidateForETL() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is not set (DATABASE_DSN)")
	}
	return nil
}

// ValidateForNotify reports the fatal misconfigurations of a notification run.
func (c Config) ValidateForNotify(weather bool) error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is not set (DATABASE_DSN)")
	}
	if c.Notifications.Line.ChannelToken == "" {
		return fmt.Errorf("LINE channel access token is not set (LINE_CHANNEL_ACCESS_TOKEN)")
	}
	if weather && c.Weather.APIKey == "" {
		return fmt.Errorf("weather API key is not set (OWM_API_KEY)")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(lineTokenEnv); v != "" {
		c.Notifications.Line.ChannelToken = v
	}

	if v := os.Getenv(lineSecretEnv); v != "" {
		c.Notifications.Line.ChannelSecret = v
	}

	if v := os.Getenv(owmAPIKeyEnv); v != "" {
		c.Weather.APIKey = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Source.BaseURL != "" {
		base.Source.BaseURL = override.Source.BaseURL
	}
	if override.Source.ListEndpoint != "" {
		base.Source.ListEndpoint = override.Source.ListEndpoint
	}
	if override.Source.MenuPath != "" {
		base.Source.MenuPath = override.Source.MenuPath
	}
	if override.Source.PageSize > 0 {
		base.Source.PageSize = override.Source.PageSize
	}
	if override.Source.WindowHours > 0 {
		base.Source.WindowHours = override.Source.WindowHours
	}
	if override.Source.UserAgent != "" {
		base.Source.UserAgent = override.Source.UserAgent
	}

	if override.ETL.BatchSize > 0 {
		base.ETL.BatchSize = override.ETL.BatchSize
	}
	if len(override.ETL.Categories) > 0 {
		base.ETL.Categories = override.ETL.Categories
	}

	if override.Scheduler.CrawlCron != "" {
		base.Scheduler.CrawlCron = override.Scheduler.CrawlCron
	}
	if override.Scheduler.NotifyCron != "" {
		base.Scheduler.NotifyCron = override.Scheduler.NotifyCron
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Line.ChannelToken != "" {
		base.Notifications.Line.ChannelToken = override.Notifications.Line.ChannelToken
	}
	if override.Notifications.Line.ChannelSecret != "" {
		base.Notifications.Line.ChannelSecret = override.Notifications.Line.ChannelSecret
	}
	if override.Notifications.Line.PushURL != "" {
		base.Notifications.Line.PushURL = override.Notifications.Line.PushURL
	}
	if override.Notifications.Line.NewsLimit > 0 {
		base.Notifications.Line.NewsLimit = override.Notifications.Line.NewsLimit
	}

	if override.Weather.APIKey != "" {
		base.Weather.APIKey = override.Weather.APIKey
	}
	if override.Weather.BaseURL != "" {
		base.Weather.BaseURL = override.Weather.BaseURL
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{DSN: ""},
		Source: SourceConfig{
			BaseURL:      "https://www.cna.com.tw",
			ListEndpoint: "https://www.cna.com.tw/cna2018api/api/WNewsList",
			MenuPath:     "/list/aall.aspx",
			PageSize:     40,
			WindowHours:  24,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		},
		ETL: ETLConfig{
			BatchSize:  10,
			Categories: []string{"acul", "aie", "ait"},
		},
		Scheduler: SchedulerConfig{
			CrawlCron:  "0 8 * * *",
			NotifyCron: "30 8 * * *",
			Timezone:   defaultTimezone,
			location:   tz,
		},
		Notifications: NotificationConfig{
			Line: LineConfig{
				PushURL:   "https://api.line.me/v2/bot/message/push",
				NewsLimit: 5,
			},
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5/weather",
		},
		Server:  ServerConfig{Addr: ":5000"},
		Logging: LoggingConfig{Level: "info"},
	}
}
