package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location, relative to the working
// directory of the server process.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                    string   `yaml:"port"`
	LogLevel                string   `yaml:"logLevel"`
	DatabaseURL             string   `yaml:"databaseURL"`
	RedisAddr               string   `yaml:"redisAddr"`
	RedisPassword           string   `yaml:"redisPassword"`
	SessionTTLHours         int      `yaml:"sessionTtlHours"`
	MinioEndpoint           string   `yaml:"minioEndpoint"`
	MinioAccessKey          string   `yaml:"minioAccessKey"`
	MinioSecretKey          string   `yaml:"minioSecretKey"`
	MinioBucket             string   `yaml:"minioBucket"`
	MinioUseSSL             bool     `yaml:"minioUseSSL"`
	AIProvider              string   `yaml:"aiProvider"`
	GeminiAPIKey            string   `yaml:"geminiApiKey"`
	GeminiModel             string   `yaml:"geminiModel"`
	OllamaBaseURL           string   `yaml:"ollamaBaseURL"`
	OllamaModel             string   `yaml:"ollamaModel"`
	MaxAdmins               int      `yaml:"maxAdmins"`
	HomeYear                int      `yaml:"homeYear"`
	MaxUploadBytes          int64    `yaml:"maxUploadBytes"`
	LoginRateLimitPerMinute int      `yaml:"loginRateLimitPerMinute"`
	TrustedProxyCIDRs       []string `yaml:"trustedProxyCidrs"`
	AllowedOrigins          []string `yaml:"allowedOrigins"`
	CookieSecure            bool     `yaml:"cookieSecure"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("CAPSARC_AI_PROVIDER"); v != "" {
		cfg.AIProvider = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.GeminiModel = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.OllamaBaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.OllamaModel = v
	}
	if v := os.Getenv("CAPSARC_MAX_ADMINS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxAdmins = n
		}
	}
	if v := os.Getenv("CAPSARC_HOME_YEAR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HomeYear = n
		}
	}
	if v := os.Getenv("CAPSARC_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("CAPSARC_LOGIN_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("CAPSARC_SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SessionTTLHours = n
		}
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required (set in config.yaml or REDIS_ADDR)")
	}
	if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
		return errors.New("config: minioEndpoint and minioBucket are required (set in config.yaml)")
	}
	switch cfg.AIProvider {
	case "", "gemini", "ollama":
	default:
		return fmt.Errorf("config: unknown aiProvider %q (use gemini or ollama)", cfg.AIProvider)
	}
	if cfg.AIProvider == "gemini" && cfg.GeminiAPIKey == "" {
		return errors.New("config: geminiApiKey is required when aiProvider=gemini (set GEMINI_API_KEY)")
	}
	if cfg.SessionTTLHours < 0 {
		return errors.New("config: sessionTtlHours must be >= 0")
	}
	if cfg.MaxAdmins < 0 {
		return errors.New("config: maxAdmins must be >= 0")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be >= 0")
	}
	if cfg.LoginRateLimitPerMinute < 0 {
		return errors.New("config: loginRateLimitPerMinute must be >= 0")
	}
	return nil
}
