package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Portal  Portal  `yaml:"portal"`
	API     API     `yaml:"api"`
	Session Session `yaml:"session"`
	Log     Log     `yaml:"log"`
}

type Portal struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type API struct {
	BaseURL string `yaml:"base_url"`
	// Zero means backend calls are never cut short.
	Timeout time.Duration `yaml:"timeout"`
}

type Session struct {
	// Store backs the durable (remember me) sessions: memory, file or redis.
	Store           string        `yaml:"store"`
	FilePath        string        `yaml:"file_path"`
	DurableLifetime time.Duration `yaml:"durable_lifetime"`
	Lifetime        time.Duration `yaml:"lifetime"`
	ProfileTTL      time.Duration `yaml:"profile_ttl"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	Redis           Redis         `yaml:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Log struct {
	Development bool `yaml:"development"`
}

func Default() *Config {
	return &Config{
		Portal: Portal{
			Host: "localhost",
			Port: 8123,
		},
		API: API{
			BaseURL: "http://localhost:8000/api",
		},
		Session: Session{
			Store:           "memory",
			FilePath:        "./data/sessions.json",
			DurableLifetime: 30 * 24 * time.Hour,
			Lifetime:        12 * time.Hour,
			ProfileTTL:      5 * time.Minute,
			Redis: Redis{
				Addr:   "localhost:6379",
				Prefix: "fyp:session:",
			},
		},
		Log: Log{
			Development: true,
		},
	}
}

// New layers the yaml file (if any), then .env, then FYP_* environment
// variables over the defaults.
func New() (*Config, error) {
	path := os.Getenv("FYP_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.readFile(path); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	filename, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

func (c *Config) applyEnv() {
	c.Portal.Host = getenv("FYP_HOST", c.Portal.Host)
	c.Portal.Port = getenvInt("FYP_PORT", c.Portal.Port)
	c.API.BaseURL = getenv("FYP_API_BASE_URL", c.API.BaseURL)
	c.API.Timeout = getenvDuration("FYP_API_TIMEOUT", c.API.Timeout)
	c.Session.Store = getenv("FYP_SESSION_STORE", c.Session.Store)
	c.Session.FilePath = getenv("FYP_SESSION_FILE", c.Session.FilePath)
	c.Session.DurableLifetime = getenvDuration("FYP_SESSION_DURABLE_LIFETIME", c.Session.DurableLifetime)
	c.Session.Lifetime = getenvDuration("FYP_SESSION_LIFETIME", c.Session.Lifetime)
	c.Session.ProfileTTL = getenvDuration("FYP_PROFILE_TTL", c.Session.ProfileTTL)
	c.Session.CookieSecure = getenvBool("FYP_COOKIE_SECURE", c.Session.CookieSecure)
	c.Session.Redis.Addr = getenv("FYP_REDIS_ADDR", c.Session.Redis.Addr)
	c.Session.Redis.Password = getenv("FYP_REDIS_PASSWORD", c.Session.Redis.Password)
	c.Session.Redis.DB = getenvInt("FYP_REDIS_DB", c.Session.Redis.DB)
	c.Log.Development = getenvBool("FYP_LOG_DEVELOPMENT", c.Log.Development)
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
