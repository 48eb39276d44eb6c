package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"capsarc/pkg/ai"
	"capsarc/pkg/storage"
	"capsarc/pkg/store"
)

const (
	defaultHomeYear   = 2023
	defaultMaxAdmins  = 2
	defaultPictureURL = "/images/default_profile_picture.jpg"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL    string
	Store          store.Store
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	Objects        storage.ObjectStore
	RedisAddr      string
	RedisPassword  string
	SessionTTL     time.Duration
	Sessions       store.SessionStore
	Generator      ai.TextGenerator
	AIProvider     string // "gemini", "ollama" or "" to disable summaries
	GeminiAPIKey   string
	GeminiModel    string
	OllamaBaseURL  string
	OllamaModel    string
	HomeYear       int
	MaxAdmins      int
	// DefaultPictureURL is served for accounts without an uploaded picture.
	DefaultPictureURL string
}

// App is the core application service wiring together storage, sessions,
// and project/library logic.
type App struct {
	store      store.Store
	objects    storage.ObjectStore
	sessions   store.SessionStore
	generator  ai.TextGenerator
	homeYear   int
	maxAdmins  int
	pictureURL string

	presignExpiry time.Duration
}

// New constructs the application with database-backed metadata storage and
// object-backed file storage.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.HomeYear == 0 {
		cfg.HomeYear = defaultHomeYear
	}
	if cfg.MaxAdmins == 0 {
		cfg.MaxAdmins = defaultMaxAdmins
	}
	if cfg.DefaultPictureURL == "" {
		cfg.DefaultPictureURL = defaultPictureURL
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	objects := cfg.Objects
	if objects == nil {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
	}

	sessions := cfg.Sessions
	if sessions == nil {
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redisAddr is required for redis session strategy")
		}
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
	}

	generator := cfg.Generator
	if generator == nil {
		var err error
		generator, err = buildGenerator(cfg)
		if err != nil {
			return nil, err
		}
	}

	return &App{
		store:         dataStore,
		objects:       objects,
		sessions:      sessions,
		generator:     generator,
		homeYear:      cfg.HomeYear,
		maxAdmins:     cfg.MaxAdmins,
		pictureURL:    cfg.DefaultPictureURL,
		presignExpiry: 15 * time.Minute,
	}, nil
}

func buildGenerator(cfg Config) (ai.TextGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "gemini":
		client, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return ai.NewGeminiGenerator(client, cfg.GeminiModel), nil
	case "ollama":
		return ai.NewOllamaGenerator(ai.NewOllamaClient(cfg.OllamaBaseURL), cfg.OllamaModel), nil
	case "":
		// Summaries disabled; uploads store projects without one.
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
	}
}

// Sessions exposes the session store to the HTTP layer.
func (a *App) Sessions() store.SessionStore {
	return a.sessions
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		if r <= 0x7f {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
				b.WriteRune(r)
				lastUnderscore = false
				continue
			}
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
