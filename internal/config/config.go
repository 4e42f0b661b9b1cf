package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	// BaseURL is the public prefix under which stored clips are reachable.
	BaseURL string `yaml:"base_url"`

	Discord struct {
		// Token is never read from the file; it comes from DISCORD_BOT_TOKEN.
		Token   string `yaml:"-"`
		GuildID string `yaml:"guild_id"`
	} `yaml:"discord"`

	Storage struct {
		DownloadsDir string `yaml:"downloads_dir"`
		Database     string `yaml:"database"`
	} `yaml:"storage"`

	Download struct {
		TimeoutMinutes int    `yaml:"timeout_minutes"`
		YtDlpPath      string `yaml:"ytdlp_path"`
	} `yaml:"download"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Debug bool `yaml:"debug"`
}

// Load reads the YAML config file, applies defaults and environment
// overrides, and validates required fields.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if cfg.Discord.Token == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN environment variable is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://clips.ablomer.io"
	}
	if c.Storage.DownloadsDir == "" {
		c.Storage.DownloadsDir = "downloads"
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "clips.db"
	}
	if c.Download.TimeoutMinutes == 0 {
		c.Download.TimeoutMinutes = 15
	}
	if c.Cleanup.IntervalMinutes == 0 {
		c.Cleanup.IntervalMinutes = 30
	}
	if c.Cleanup.MaxAgeHours == 0 {
		c.Cleanup.MaxAgeHours = 6
	}
}

// applyEnv overlays environment variables on top of file values. The env
// names match the original deployment so existing .env files keep working.
func (c *Config) applyEnv() {
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("WEB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		} else {
			log.Warn().Str("value", v).Int("port", c.Server.Port).
				Msg("ignoring unparseable WEB_SERVER_PORT")
		}
	}
	if v := os.Getenv("DOWNLOADS_DIR"); v != "" {
		c.Storage.DownloadsDir = v
	}
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
