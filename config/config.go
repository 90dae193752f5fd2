package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type (
	// Config is the full application configuration.
	Config struct {
		Env     string        `yaml:"env"`
		Port    string        `yaml:"port"`
		BaseURL string        `yaml:"base_url"`
		AppURL  string        `yaml:"app_url"`
		CORS    []string      `yaml:"cors_origins"`
		DB      DBConfig      `yaml:"database"`
		JWT     JWTConfig     `yaml:"jwt"`
		Store   StoreConfig   `yaml:"store"`
		SMTP    SMTPConfig    `yaml:"smtp"`
		Upload  UploadConfig  `yaml:"upload"`
		Payment PaymentConfig `yaml:"payment"`
		Google  GoogleConfig  `yaml:"google"`
		Logger  LoggerConfig  `yaml:"logger"`
		Cleanup CleanupConfig `yaml:"cleanup"`
	}

	DBConfig struct {
		Driver   string `yaml:"driver"` // postgres, sqlite
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"ssl_mode"`
		Path     string `yaml:"path"` // sqlite file
	}

	JWTConfig struct {
		Secret        string        `yaml:"secret"`
		Expire        time.Duration `yaml:"expire"`
		RefreshSecret string        `yaml:"refresh_secret"`
		RefreshExpire time.Duration `yaml:"refresh_expire"`
		Issuer        string        `yaml:"issuer"`
		Audience      string        `yaml:"audience"`
	}

	// StoreConfig selects the backend holding revoked tokens and rate-limit counters.
	StoreConfig struct {
		Type  string      `yaml:"type"` // memory, redis
		Redis RedisConfig `yaml:"redis"`
	}

	RedisConfig struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	}

	SMTPConfig struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		User string `yaml:"user"`
		Pass string `yaml:"pass"`
		From string `yaml:"from"`
	}

	UploadConfig struct {
		Driver         string `yaml:"driver"` // local, supabase
		Dir            string `yaml:"dir"`
		SupabaseURL    string `yaml:"supabase_url"`
		SupabaseKey    string `yaml:"supabase_key"`
		SupabaseBucket string `yaml:"supabase_bucket"`
	}

	PaymentConfig struct {
		MidtransServerKey  string `yaml:"midtrans_server_key"`
		MidtransProduction bool   `yaml:"midtrans_production"`
	}

	GoogleConfig struct {
		ClientID string `yaml:"client_id"`
	}

	LoggerConfig struct {
		Level      string `yaml:"level"`     // debug, info, warn, error
		Format     string `yaml:"format"`    // json, console
		Output     string `yaml:"output"`    // stdout, file
		FilePath   string `yaml:"file_path"` // used when output is file
		MaxSize    int    `yaml:"max_size"`  // MB
		MaxBackups int    `yaml:"max_backups"`
		MaxAge     int    `yaml:"max_age"` // days
		Compress   bool   `yaml:"compress"`
	}

	CleanupConfig struct {
		Interval time.Duration `yaml:"interval"` // 0 disables the in-process sweep
		NotifyDays int         `yaml:"notify_days"`
	}
)

// defaultConfig is used when no config file exists. Placeholders are
// resolved against the environment the same way as a file on disk.
const defaultConfig = `
env: "${APP_ENV:development}"
port: "${PORT:8080}"
base_url: "${BASE_URL:}"
app_url: "${APP_URL:https://princemusicapp.com}"
cors_origins: ["${CORS_ORIGINS:*}"]
database:
  driver: "${DB_DRIVER:postgres}"
  host: "${DB_HOST:localhost}"
  port: "${DB_PORT:5432}"
  user: "${DB_USER:postgres}"
  password: "${DB_PASSWORD:}"
  name: "${DB_NAME:prince_music}"
  ssl_mode: "${DB_SSLMODE:disable}"
  path: "${DB_PATH:prince_music.db}"
jwt:
  secret: "${JWT_SECRET:}"
  expire: ${JWT_EXPIRE:15m}
  refresh_secret: "${JWT_REFRESH_SECRET:}"
  refresh_expire: ${JWT_REFRESH_EXPIRE:168h}
  issuer: "${JWT_ISSUER:prince-music-app}"
  audience: "${JWT_AUDIENCE:prince-music-users}"
store:
  type: "${STORE_TYPE:memory}"
  redis:
    addr: "${REDIS_ADDR:localhost:6379}"
    password: "${REDIS_PASSWORD:}"
    db: ${REDIS_DB:0}
smtp:
  host: "${SMTP_HOST:smtp.gmail.com}"
  port: ${SMTP_PORT:587}
  user: "${SMTP_USER:}"
  pass: "${SMTP_PASS:}"
  from: "${SMTP_FROM:}"
upload:
  driver: "${UPLOAD_DRIVER:local}"
  dir: "${UPLOAD_DIR:uploads}"
  supabase_url: "${SUPABASE_URL:}"
  supabase_key: "${SUPABASE_KEY:}"
  supabase_bucket: "${SUPABASE_BUCKET:uploads}"
payment:
  midtrans_server_key: "${MIDTRANS_SERVER_KEY:}"
  midtrans_production: ${MIDTRANS_PRODUCTION:false}
google:
  client_id: "${GOOGLE_CLIENT_ID:}"
logger:
  level: "${LOG_LEVEL:info}"
  format: "${LOG_FORMAT:json}"
  output: "${LOG_OUTPUT:stdout}"
  file_path: "${LOG_FILE:logs/app.log}"
  max_size: ${LOG_MAX_SIZE:100}
  max_backups: ${LOG_MAX_BACKUPS:3}
  max_age: ${LOG_MAX_AGE:7}
  compress: ${LOG_COMPRESS:false}
cleanup:
  interval: ${CLEANUP_INTERVAL:0s}
  notify_days: ${CLEANUP_NOTIFY_DAYS:7}
`

var envPattern = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads .env, then the YAML file named by CONFIG_FILE (default
// config.yaml, falling back to built-in defaults), resolving ${VAR:default}
// placeholders from the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		data = []byte(defaultConfig)
	}
	return Parse(data)
}

// Parse resolves placeholders in data and unmarshals it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(resolveEnv(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveEnv(content []byte) []byte {
	return envPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		m := envPattern.FindSubmatch(match)
		if v, ok := os.LookupEnv(string(m[1])); ok {
			return []byte(v)
		}
		return m[2]
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.JWT.Expire <= 0 {
		cfg.JWT.Expire = 15 * time.Minute
	}
	if cfg.JWT.RefreshExpire <= 0 {
		cfg.JWT.RefreshExpire = 7 * 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "prince-music-app"
	}
	if cfg.JWT.Audience == "" {
		cfg.JWT.Audience = "prince-music-users"
	}
	if cfg.Env != "production" {
		if cfg.JWT.Secret == "" {
			cfg.JWT.Secret = "development-access-secret-change-me"
		}
		if cfg.JWT.RefreshSecret == "" {
			cfg.JWT.RefreshSecret = "development-refresh-secret-change-me"
		}
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Upload.Driver == "" {
		cfg.Upload.Driver = "local"
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "uploads"
	}
	if cfg.Cleanup.NotifyDays <= 0 {
		cfg.Cleanup.NotifyDays = 7
	}
	var origins []string
	for _, o := range cfg.CORS {
		for _, part := range strings.Split(o, ",") {
			if part = strings.TrimSpace(part); part != "" {
				origins = append(origins, part)
			}
		}
	}
	cfg.CORS = origins
}

// Validate rejects configurations that cannot run safely.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.JWT.Secret == "" || c.JWT.RefreshSecret == "") {
		return fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET are required in production")
	}
	switch c.Store.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}
	switch c.Upload.Driver {
	case "local", "supabase":
	default:
		return fmt.Errorf("unsupported upload driver: %s", c.Upload.Driver)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
