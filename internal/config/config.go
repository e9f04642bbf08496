package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Site     Site     `yaml:"site"`
	Content  Content  `yaml:"content"`
	Notes    Notes    `yaml:"notes"`
	Telegram Telegram `yaml:"telegram"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Site struct {
	Title   string `yaml:"title"`
	Author  string `yaml:"author"`
	Tagline string `yaml:"tagline"`
	Links   []Link `yaml:"links"`
}

type Link struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Content struct {
	Dir string `yaml:"dir"`
}

type Notes struct {
	Feeds        []Feed `yaml:"feeds"`
	Schedule     string `yaml:"schedule"`
	FetchTimeout string `yaml:"fetch_timeout"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Telegram struct {
	TokenEnv string `yaml:"token_env"`
	APIURL   string `yaml:"api_url"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for homepage.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "homepage")
}

// DataDir returns the XDG data directory for homepage.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "homepage")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/homepage/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'homepage init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Site: Site{
			Title:  "Harris Jose",
			Author: "Harris Jose",
		},
		Content: Content{Dir: "content"},
		Notes:   Notes{FetchTimeout: "15s"},
		Telegram: Telegram{
			TokenEnv: "TELEGRAM_TOKEN",
			APIURL:   "https://api.telegram.org",
		},
		Server:  Server{Host: "127.0.0.1", Port: 8000},
		Logging: Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if _, err := cfg.GetFetchTimeout(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetFetchTimeout returns the notes fetch timeout, 15s when unset.
func (c *Config) GetFetchTimeout() (time.Duration, error) {
	if c.Notes.FetchTimeout == "" {
		return 15 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Notes.FetchTimeout)
	if err != nil {
		return 0, fmt.Errorf("parsing notes.fetch_timeout: %w", err)
	}
	return d, nil
}

// TelegramToken returns the bot token from the configured environment variable.
func (c *Config) TelegramToken() string {
	return os.Getenv(c.Telegram.TokenEnv)
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
