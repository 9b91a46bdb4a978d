package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all mailsink configuration.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SiteConfig identifies the installation notifications are about.
type SiteConfig struct {
	Name             string `mapstructure:"name"`
	AdminURL         string `mapstructure:"admin_url"`
	DefaultRecipient string `mapstructure:"default_recipient"`
}

// NotifyConfig defines the aggregation threshold and transports.
type NotifyConfig struct {
	Threshold    string        `mapstructure:"threshold"`
	Recipients   []string      `mapstructure:"recipients"`
	TemplateFile string        `mapstructure:"template_file"`
	SMTP         SMTPConfig    `mapstructure:"smtp"`
	Webhook      WebhookConfig `mapstructure:"webhook"`
	Slack        SlackConfig   `mapstructure:"slack"`
}

// SMTPConfig defines SMTP delivery settings.
type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	From     string `mapstructure:"from"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// WebhookConfig defines generic webhook delivery settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// SlackConfig defines Slack webhook delivery settings.
type SlackConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
}

// ServerConfig defines the HTTP ingest server settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// StorageConfig defines the durable journal settings.
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".mailsink"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("site.name", "localhost")
	v.SetDefault("site.admin_url", "http://localhost/logs")
	v.SetDefault("site.default_recipient", "root@localhost")
	v.SetDefault("notify.threshold", "alert")
	v.SetDefault("notify.smtp.addr", "localhost:25")
	v.SetDefault("notify.slack.channel", "#alerts")
	v.SetDefault("server.listen", ":8424")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.path", filepath.Join(home, ".mailsink", "journal.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("MAILSINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
