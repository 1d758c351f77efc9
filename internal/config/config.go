package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultAPIBaseURL = "http://localhost:8080"
)

// WebConfig is read once at process start and handed to constructors.
type WebConfig struct {
	Env        string `yaml:"env"`
	ListenAddr string `yaml:"listen_addr"`

	APIBaseURL string        `yaml:"api_base_url"`
	APITimeout time.Duration `yaml:"api_timeout"`

	AuthURL       string `yaml:"auth_url"`
	AuthPublicKey string `yaml:"auth_public_key"`

	DatabaseURL       string `yaml:"database_url"`
	SessionCookieName string `yaml:"session_cookie_name"`
	CookieSecure      bool   `yaml:"cookie_secure"`
	CSRFAuthKey       string `yaml:"csrf_auth_key"`

	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	ClientLogFile string `yaml:"client_log_file"`

	HolidaysFile string `yaml:"holidays_file"`
	RecordsLimit int    `yaml:"records_limit"`

	TelegramToken       string `yaml:"telegram_bot_token"`
	TelegramAlertChatID int64  `yaml:"telegram_alert_chat_id"`
}

func Default() *WebConfig {
	return &WebConfig{
		Env:               EnvDevelopment,
		ListenAddr:        ":3000",
		APIBaseURL:        defaultAPIBaseURL,
		AuthURL:           "http://localhost:54321",
		DatabaseURL:       "web.db",
		SessionCookieName: "tt_session",
		LogLevel:          "info",
		LogFormat:         "text",
		ClientLogFile:     "../log/frontend.log",
		RecordsLimit:      20,
	}
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and the process environment, in increasing precedence.
func Load() (*WebConfig, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading env variables: %w", err)
	}

	configPath := getEnv("CONFIG_FILE", "config.yaml")
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *WebConfig) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *WebConfig) applyEnv() {
	c.Env = getEnv("APP_ENV", c.Env)
	c.ListenAddr = getEnv("LISTEN_ADDR", c.ListenAddr)

	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	if c.IsDevelopment() {
		// the backend always runs next to us in development
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.APITimeout = getEnvAsDuration("API_TIMEOUT", c.APITimeout)

	c.AuthURL = getEnv("AUTH_URL", c.AuthURL)
	c.AuthPublicKey = getEnv("AUTH_PUBLIC_KEY", c.AuthPublicKey)

	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SessionCookieName = getEnv("SESSION_COOKIE_NAME", c.SessionCookieName)
	c.CookieSecure = getEnvAsBool("COOKIE_SECURE", c.CookieSecure)
	c.CSRFAuthKey = getEnv("CSRF_AUTH_KEY", c.CSRFAuthKey)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.ClientLogFile = getEnv("CLIENT_LOG_FILE", c.ClientLogFile)

	c.HolidaysFile = getEnv("HOLIDAYS_FILE", c.HolidaysFile)
	c.RecordsLimit = int(getEnvAsInt("RECORDS_LIMIT", int64(c.RecordsLimit)))

	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)
	c.TelegramAlertChatID = getEnvAsInt("TELEGRAM_ALERT_CHAT_ID", c.TelegramAlertChatID)
}

func (c *WebConfig) Validate() error {
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	c.AuthURL = strings.TrimRight(c.AuthURL, "/")

	if err := requireHTTPURL("API_BASE_URL", c.APIBaseURL); err != nil {
		return err
	}
	if err := requireHTTPURL("AUTH_URL", c.AuthURL); err != nil {
		return err
	}
	if c.SessionCookieName == "" {
		return errors.New("SESSION_COOKIE_NAME must not be empty")
	}
	if c.CSRFAuthKey != "" && len(c.CSRFAuthKey) != 32 {
		return fmt.Errorf("CSRF_AUTH_KEY must be 32 bytes, got %d", len(c.CSRFAuthKey))
	}
	if c.RecordsLimit < 1 || c.RecordsLimit > 100 {
		return fmt.Errorf("RECORDS_LIMIT must be between 1 and 100, got %d", c.RecordsLimit)
	}
	if c.TelegramToken != "" && c.TelegramAlertChatID == 0 {
		return errors.New("TELEGRAM_ALERT_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return nil
}

func (c *WebConfig) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// AlertsEnabled reports whether error-level diagnostic events go to Telegram.
func (c *WebConfig) AlertsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramAlertChatID != 0
}

func requireHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}

	return defaultVal
}
