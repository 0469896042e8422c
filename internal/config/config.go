package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL        string        `yaml:"serverURL"`
	SocketPath       string        `yaml:"socketPath"`
	ReconnectDelay   time.Duration `yaml:"reconnectDelay"`
	HTTPTimeout      time.Duration `yaml:"httpTimeout"`
	RefreshInterval  time.Duration `yaml:"refreshInterval"`
	AutoRefresh      bool          `yaml:"autoRefresh"`
	TableLimit       int           `yaml:"tableLimit"`
	ExportDir        string        `yaml:"exportDir"`
	DarkTheme        bool          `yaml:"darkTheme"`
	Headless         bool          `yaml:"headless"`
	LogFile          string        `yaml:"logFile"`
	LogLevel         string        `yaml:"logLevel"`
	DebugAddr        string        `yaml:"debugAddr"`
	TelegramBotToken string        `yaml:"telegramBotToken"`
	TelegramChatID   string        `yaml:"telegramChatID"`
}

func Defaults() Config {
	return Config{
		ServerURL:       "http://localhost:5000",
		SocketPath:      "/socket.io/",
		ReconnectDelay:  2 * time.Second,
		HTTPTimeout:     10 * time.Second,
		RefreshInterval: 2 * time.Second,
		AutoRefresh:     true,
		TableLimit:      50,
		ExportDir:       ".",
		DarkTheme:       true,
		LogFile:         "servodash.log",
		LogLevel:        "info",
	}
}

// Load builds the config from defaults, then the YAML file named by
// APP_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("APP_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerURL = getenv("APP_SERVER_URL", c.ServerURL)
	c.SocketPath = getenv("APP_SOCKET_PATH", c.SocketPath)
	c.ReconnectDelay = getenvDuration("APP_RECONNECT_DELAY", c.ReconnectDelay)
	c.HTTPTimeout = getenvDuration("APP_HTTP_TIMEOUT", c.HTTPTimeout)
	c.RefreshInterval = getenvDuration("APP_REFRESH_INTERVAL", c.RefreshInterval)
	c.AutoRefresh = getenvBool("APP_AUTO_REFRESH", c.AutoRefresh)
	c.TableLimit = getenvInt("APP_TABLE_LIMIT", c.TableLimit)
	c.ExportDir = getenv("APP_EXPORT_DIR", c.ExportDir)
	c.DarkTheme = getenvBool("APP_DARK_THEME", c.DarkTheme)
	c.Headless = getenvBool("APP_HEADLESS", c.Headless)
	c.LogFile = getenv("APP_LOG_FILE", c.LogFile)
	c.LogLevel = getenv("APP_LOG_LEVEL", c.LogLevel)
	c.DebugAddr = getenv("APP_DEBUG_ADDR", c.DebugAddr)
	c.TelegramBotToken = getenv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramChatID = getenv("TELEGRAM_CHAT_ID", c.TelegramChatID)

	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 2 * time.Second
	}
	if c.TableLimit <= 0 {
		c.TableLimit = 50
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 2 * time.Second
	}
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func getenvDuration(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return d
	}
	return dur
}

func getenvBool(k string, d bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(k)))
	if v == "" {
		return d
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	return d
}
