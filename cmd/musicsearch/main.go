package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/arnarpall/musicsearch/internal/api"
	"github.com/arnarpall/musicsearch/internal/catalog"
	"github.com/arnarpall/musicsearch/internal/catalog/discogs"
	"github.com/arnarpall/musicsearch/internal/catalog/spotify"
	"github.com/arnarpall/musicsearch/internal/config"
	"github.com/arnarpall/musicsearch/internal/database"
	"github.com/arnarpall/musicsearch/internal/encryption"
	"github.com/arnarpall/musicsearch/internal/logging"
	"github.com/arnarpall/musicsearch/internal/settings"
	"github.com/arnarpall/musicsearch/internal/version"
	"github.com/arnarpall/musicsearch/internal/watcher"
)

func main() {
	// Handle subcommands before starting the server
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "set-credentials":
			if err := setCredentials(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "reset-credentials":
			if err := resetCredentials(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func configPath() string {
	if p := os.Getenv("MS_CONFIG_PATH"); p != "" {
		return p
	}
	return "/data/config.yaml"
}

func run() error {
	cfgPath := configPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Set up structured logging via the logging Manager
	logManager, logger := logging.NewManager(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	// Open database
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	// Resolve encryption key: config/env > file > generate new
	encKey, err := resolveEncryptionKey(cfg, logger)
	if err != nil {
		return fmt.Errorf("resolving encryption key: %w", err)
	}
	encryptor, _, err := encryption.New(encKey)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}

	settingsService := settings.NewService(db, encryptor, settings.Fallback{
		SpotifyClientID:     cfg.Catalogs.Spotify.ClientID,
		SpotifyClientSecret: cfg.Catalogs.Spotify.ClientSecret,
		DiscogsToken:        cfg.Catalogs.Discogs.Token,
	})

	// Initialize catalog clients and resolvers
	rateLimiters := catalog.NewRateLimiterMap()
	spotifyClient := spotify.NewClient(rateLimiters, settingsService, logger)
	discogsClient := discogs.NewClient(rateLimiters, settingsService, logger)
	orchestrator := catalog.NewOrchestrator(
		spotify.NewResolver(spotifyClient, logger),
		discogs.NewResolver(discogsClient, logger),
		logger,
	)

	logger.Info("starting musicsearch",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	// Set up HTTP router
	router := api.NewRouter(api.RouterDeps{
		Searcher: orchestrator,
		Settings: settingsService,
		Testers: map[catalog.Source]api.ConnectionTester{
			catalog.SourceSpotify: spotifyClient,
			catalog.SourceDiscogs: discogsClient,
		},
		Logger:   logger,
		BasePath: cfg.Server.BasePath,
	})

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reapply logging settings when the config file changes
	go watcher.New(cfgPath, logManager, logger).Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr), slog.String("base_path", cfg.Server.BasePath))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// resolveEncryptionKey determines the key protecting stored credentials.
// Priority: MS_ENCRYPTION_KEY env var or config > /data/encryption.key file >
// generate new.
func resolveEncryptionKey(cfg *config.Config, logger *slog.Logger) (string, error) {
	if cfg.Encryption.Key != "" {
		return cfg.Encryption.Key, nil
	}

	dataDir := filepath.Dir(cfg.Database.Path)
	keyFile := filepath.Join(dataDir, "encryption.key")

	data, err := os.ReadFile(keyFile) //nolint:gosec // G304: path derived from trusted config
	if err == nil {
		key := strings.TrimSpace(string(data))
		if key != "" {
			logger.Debug("loaded encryption key from file", slog.String("path", keyFile))
			return key, nil
		}
	}

	_, key, err := encryption.New("")
	if err != nil {
		return "", fmt.Errorf("generating encryption key: %w", err)
	}

	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		logger.Warn("could not create data directory for encryption key",
			slog.String("path", dataDir), slog.Any("error", err))
		return key, nil
	}

	if err := os.WriteFile(keyFile, []byte(key+"\n"), 0o600); err != nil {
		logger.Warn("could not save encryption key to file",
			slog.String("path", keyFile), slog.Any("error", err))
	} else {
		logger.Warn("generated new encryption key -- back up this file",
			slog.String("path", keyFile))
	}

	return key, nil
}

// openSettings loads config, opens the database, and builds a settings
// service for offline subcommands. The caller must close the returned DB.
func openSettings() (*settings.Service, func(), error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	closeDB := func() { db.Close() } //nolint:errcheck

	if err := database.Migrate(db); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	encKey, err := resolveEncryptionKey(cfg, slog.Default())
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("resolving encryption key: %w", err)
	}
	encryptor, _, err := encryption.New(encKey)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("creating encryptor: %w", err)
	}

	return settings.NewService(db, encryptor, settings.Fallback{}), closeDB, nil
}

// setCredentials stores catalog credentials from the command line, for
// headless setups where the HTTP API is not yet reachable.
//
//	musicsearch set-credentials spotify <client_id> <client_secret>
//	musicsearch set-credentials discogs <token>
func setCredentials(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: set-credentials spotify <client_id> <client_secret> | set-credentials discogs <token>")
	}

	source, ok := catalog.ParseSource(args[0])
	if !ok {
		return fmt.Errorf("unknown source %q", args[0])
	}

	svc, closeDB, err := openSettings()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	switch source {
	case catalog.SourceSpotify:
		if len(args) != 3 {
			return fmt.Errorf("usage: set-credentials spotify <client_id> <client_secret>")
		}
		if err := svc.SetSpotifyCredentials(ctx, args[1], args[2]); err != nil {
			return fmt.Errorf("saving spotify credentials: %w", err)
		}
	case catalog.SourceDiscogs:
		if len(args) != 2 {
			return fmt.Errorf("usage: set-credentials discogs <token>")
		}
		if err := svc.SetDiscogsToken(ctx, args[1]); err != nil {
			return fmt.Errorf("saving discogs token: %w", err)
		}
	}

	fmt.Printf("Credentials for %s saved.\n", source.DisplayName())
	return nil
}

// resetCredentials wipes all stored catalog credentials from the database.
// Intended for recovery when the encryption key is lost.
func resetCredentials() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if _, err := db.ExecContext(context.Background(), "DELETE FROM settings WHERE key LIKE 'catalog.%'"); err != nil {
		return fmt.Errorf("clearing catalog credentials: %w", err)
	}

	fmt.Println("Credentials reset successfully.")
	fmt.Println("All catalog credentials and key statuses have been cleared.")
	return nil
}
