package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"privacyweave/internal/app"
	"privacyweave/internal/chatbot"
	"privacyweave/internal/config"
	"privacyweave/internal/notify"
	"privacyweave/internal/server"
	"privacyweave/internal/storage"
	"privacyweave/internal/store"
	"privacyweave/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var st store.Store
	switch cfg.StorageBackend {
	case "memory":
		st = store.NewMemoryStore()
		slog.Warn("using in-memory storage, data will not survive restarts")
	default:
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		st = gormStore
	}
	if err := store.EnsureSeedListings(st); err != nil {
		log.Fatalf("failed to seed job listings: %v", err)
	}

	var sessions store.SessionStore
	if cfg.RedisAddr != "" {
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, time.Duration(cfg.SessionTTLHours)*time.Hour)
	} else {
		sessions = store.NewMemorySessionStore()
		slog.Warn("using in-memory sessions, logins will not survive restarts")
	}

	uploads, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("failed to init upload storage: %v", err)
	}

	email := notify.NewEmailSender(cfg.EmailService, cfg.EmailUser, cfg.EmailPassword, cfg.EmailRecipientList())
	whatsapp := notify.NewWhatsAppSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.WhatsAppRecipientNumber)
	if !email.Configured() {
		slog.Warn("email notifications disabled", "missing", email.Config().MissingVariables)
	}
	if !whatsapp.Configured() {
		slog.Warn("whatsapp notifications disabled", "missing", whatsapp.Config().MissingVariables)
	}

	appCore := app.New(st, sessions, email, whatsapp, chatbot.NewEngine(st))
	if err := appCore.EnsureAdminUser(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                      appCore,
		Email:                    email,
		WhatsApp:                 whatsapp,
		Uploads:                  uploads,
		RedisAddr:                cfg.RedisAddr,
		RedisPassword:            cfg.RedisPassword,
		SubmitRateLimitPerMinute: cfg.SubmitRateLimitPerMinute,
		LoginRateLimitPerMinute:  cfg.LoginRateLimitPerMinute,
		MaxUploadBytes:           cfg.MaxUploadBytes,
		AllowedExtensions:        cfg.AllowedExtensions,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr, "storage", cfg.StorageBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
