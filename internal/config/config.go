// Package config provides YAML-based configuration loading for the shop service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration, loaded from wd.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Shop       ShopConfig       `yaml:"shop"`
	Mail       MailConfig       `yaml:"mail"`
	VehicleAPI VehicleAPIConfig `yaml:"vehicle_api"`
	Telegraph  TelegraphConfig  `yaml:"telegraph"`
	Logger     LoggerConfig     `yaml:"logger"`
}

// ServerConfig holds HTTP listener and cookie settings.
type ServerConfig struct {
	Port          int           `yaml:"port"`
	SessionSecret string        `yaml:"session_secret"`
	CookieSecure  bool          `yaml:"cookie_secure"`
	CORSOrigins   []string      `yaml:"cors_origins"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig selects the SQL driver and its connection settings.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, mysql, postgres
	Path     string `yaml:"path"`   // sqlite only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"` // postgres only
	Debug    bool   `yaml:"debug"`
}

// ShopConfig describes the business as it appears in emails and reference numbers.
type ShopConfig struct {
	Name            string `yaml:"name"`
	Phone           string `yaml:"phone"`
	Email           string `yaml:"email"`
	Address         string `yaml:"address"`
	StaffEmail      string `yaml:"staff_email"`
	ReferencePrefix string `yaml:"reference_prefix"`
	TimeZone        string `yaml:"time_zone"`
	DashboardURL    string `yaml:"dashboard_url"`
}

// MailConfig selects the transactional email transport.
type MailConfig struct {
	Provider string       `yaml:"provider"` // resend, smtp, log
	From     string       `yaml:"from"`
	Resend   ResendConfig `yaml:"resend"`
	SMTP     SMTPConfig   `yaml:"smtp"`
}

// ResendConfig holds the HTTP email API settings.
type ResendConfig struct {
	APIKey   string        `yaml:"api_key"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// VehicleAPIConfig points at the public vehicle reference API.
type VehicleAPIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// TelegraphConfig controls staff chat alerts and the digest schedule.
type TelegraphConfig struct {
	Platform   string        `yaml:"platform"` // slack, discord, or empty to disable
	Channel    string        `yaml:"channel"`
	DigestCron string        `yaml:"digest_cron"`
	Slack      SlackConfig   `yaml:"slack"`
	Discord    DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot credentials.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// LoggerConfig controls zap output.
type LoggerConfig struct {
	Mode     string `yaml:"mode"` // development, production
	Level    string `yaml:"level"`
	Filename string `yaml:"filename"`
}

var referencePrefixRe = regexp.MustCompile(`^[A-Z]+$`)

// Load reads a YAML config file from path and returns a validated Config.
// A .env file next to the config, if present, is loaded into the process
// environment first so ${VAR} references in the YAML resolve.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Parse expands environment references and unmarshals YAML bytes into a
// validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			c.Database.Path = "wheelsdeals.db"
		}
	case "mysql":
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
	case "postgres":
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}
	if c.Database.Driver != "sqlite" && c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}

	if c.Shop.Name == "" {
		c.Shop.Name = "Wheels & Deals Auto & Services"
	}
	if c.Shop.Phone == "" {
		c.Shop.Phone = "(614) 879-9212"
	}
	if c.Shop.Email == "" {
		c.Shop.Email = "info@wheelsdealsauto.com"
	}
	if c.Shop.Address == "" {
		c.Shop.Address = "123 Main Street, Columbus, OH 43026"
	}
	if c.Shop.ReferencePrefix == "" {
		c.Shop.ReferencePrefix = "TS"
	}
	if c.Shop.TimeZone == "" {
		c.Shop.TimeZone = "America/New_York"
	}

	if c.Mail.Provider == "" {
		c.Mail.Provider = "log"
	}
	if c.Mail.From == "" {
		c.Mail.From = c.Shop.Name + " <onboarding@resend.dev>"
	}
	if c.Mail.Resend.Endpoint == "" {
		c.Mail.Resend.Endpoint = "https://api.resend.com/emails"
	}
	if c.Mail.Resend.Timeout == 0 {
		c.Mail.Resend.Timeout = 10 * time.Second
	}
	if c.Mail.SMTP.Port == 0 {
		c.Mail.SMTP.Port = 587
	}

	if c.VehicleAPI.BaseURL == "" {
		c.VehicleAPI.BaseURL = "https://vpic.nhtsa.dot.gov/api/vehicles"
	}
	if c.VehicleAPI.Timeout == 0 {
		c.VehicleAPI.Timeout = 10 * time.Second
	}

	if c.Telegraph.DigestCron == "" {
		c.Telegraph.DigestCron = "0 8 * * *"
	}

	if c.Logger.Mode == "" {
		c.Logger.Mode = "development"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string

	if len(c.Server.SessionSecret) < 32 {
		errs = append(errs, "server.session_secret must be at least 32 characters")
	}

	switch c.Database.Driver {
	case "sqlite":
	case "mysql", "postgres":
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required for "+c.Database.Driver)
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required for "+c.Database.Driver)
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql, postgres)", c.Database.Driver))
	}

	if c.Shop.StaffEmail == "" {
		errs = append(errs, "shop.staff_email is required")
	}
	if !referencePrefixRe.MatchString(c.Shop.ReferencePrefix) {
		errs = append(errs, "shop.reference_prefix must be uppercase letters only")
	}
	if _, err := time.LoadLocation(c.Shop.TimeZone); err != nil {
		errs = append(errs, fmt.Sprintf("shop.time_zone %q is invalid", c.Shop.TimeZone))
	}

	switch c.Mail.Provider {
	case "log":
	case "resend":
		if c.Mail.Resend.APIKey == "" {
			errs = append(errs, "mail.resend.api_key is required for the resend provider")
		}
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			errs = append(errs, "mail.smtp.host is required for the smtp provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("mail.provider %q is not supported (resend, smtp, log)", c.Mail.Provider))
	}

	switch c.Telegraph.Platform {
	case "":
	case "slack":
		if c.Telegraph.Slack.BotToken == "" {
			errs = append(errs, "telegraph.slack.bot_token is required")
		}
		if c.Telegraph.Channel == "" {
			errs = append(errs, "telegraph.channel is required")
		}
	case "discord":
		if c.Telegraph.Discord.BotToken == "" {
			errs = append(errs, "telegraph.discord.bot_token is required")
		}
		if c.Telegraph.Channel == "" {
			errs = append(errs, "telegraph.channel is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("telegraph.platform %q is not supported (slack, discord)", c.Telegraph.Platform))
	}

	switch c.Logger.Mode {
	case "development", "production":
	default:
		errs = append(errs, fmt.Sprintf("logger.mode %q is not supported (development, production)", c.Logger.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Location returns the shop's time zone. validate guarantees it loads.
func (s ShopConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
