package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"capsarc/internal/app"
	"capsarc/internal/config"
	"capsarc/internal/server"
	"capsarc/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)
	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		MinioEndpoint:  cfg.MinioEndpoint,
		MinioAccessKey: cfg.MinioAccessKey,
		MinioSecretKey: cfg.MinioSecretKey,
		MinioBucket:    cfg.MinioBucket,
		MinioUseSSL:    cfg.MinioUseSSL,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
		SessionTTL:     sessionTTL,
		AIProvider:     cfg.AIProvider,
		GeminiAPIKey:   cfg.GeminiAPIKey,
		GeminiModel:    cfg.GeminiModel,
		OllamaBaseURL:  cfg.OllamaBaseURL,
		OllamaModel:    cfg.OllamaModel,
		HomeYear:       cfg.HomeYear,
		MaxAdmins:      cfg.MaxAdmins,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                     appCore,
		RedisAddr:               cfg.RedisAddr,
		RedisPassword:           cfg.RedisPassword,
		LoginRateLimitPerMinute: cfg.LoginRateLimitPerMinute,
		MaxUploadBytes:          cfg.MaxUploadBytes,
		TrustedProxyCIDRs:       cfg.TrustedProxyCIDRs,
		AllowedOrigins:          cfg.AllowedOrigins,
		CookieSecure:            cfg.CookieSecure,
		SessionTTL:              sessionTTL,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("capsarc server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
