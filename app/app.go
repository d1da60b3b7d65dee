package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nasermirzaei89/env"
	"github.com/nasermirzaei89/postapi/contents"
	"github.com/nasermirzaei89/postapi/database/jsonfile"
	"github.com/nasermirzaei89/postapi/database/memory"
	"github.com/nasermirzaei89/postapi/database/sqlite3"
	"github.com/nasermirzaei89/postapi/server"
	"github.com/nasermirzaei89/postapi/web"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverFile   = "file"
	StorageDriverSQLite = "sqlite"
)

type UnknownStorageDriverError struct {
	Driver string
}

func (err UnknownStorageDriverError) Error() string {
	return fmt.Sprintf("unknown storage driver: %q", err.Driver)
}

type App struct {
	server  *server.Server
	handler *web.Handler
	db      *sql.DB
}

func NewApp(ctx context.Context) (*App, error) {
	postRepo, db, err := NewPostRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create post repository: %w", err)
	}

	contentsSvc := contents.NewService(postRepo)

	corsAllowedOrigins := env.GetStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"})

	app := &App{
		server:  newServer(),
		handler: web.NewHandler(contentsSvc, corsAllowedOrigins),
		db:      db,
	}

	return app, nil
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	defer app.Close(ctx)

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func (app *App) Close(ctx context.Context) {
	if app.db == nil {
		return
	}

	err := app.db.Close()
	if err != nil {
		slog.ErrorContext(ctx, "failed to close database", "error", err)
	}

	app.db = nil
}

// StorageDriverFromEnv returns the STORAGE_DRIVER setting, memory when unset.
func StorageDriverFromEnv() string {
	driver := env.GetString("STORAGE_DRIVER", StorageDriverMemory)
	if driver == "" {
		return StorageDriverMemory
	}

	return driver
}

// NewPostRepository builds the repository selected by STORAGE_DRIVER. The
// returned db is non-nil only for the sqlite driver and must be closed by the
// caller.
func NewPostRepository(ctx context.Context) (contents.PostRepository, *sql.DB, error) {
	driver := StorageDriverFromEnv()

	switch driver {
	case StorageDriverMemory:
		return memory.NewPostRepository(contents.SeedPosts()...), nil, nil
	case StorageDriverFile:
		path := env.GetString("POSTS_FILE", "posts.json")

		slog.DebugContext(ctx, "using file storage", "path", path)

		return jsonfile.NewPostRepository(path), nil, nil
	case StorageDriverSQLite:
		db, err := sqlite3.NewDB(ctx, env.GetString("DB_DSN", "file:posts.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create database connection: %w", err)
		}

		err = sqlite3.MigrateUp(ctx, db)
		if err != nil {
			_ = db.Close()

			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}

		return sqlite3.NewPostRepository(db), db, nil
	default:
		return nil, nil, UnknownStorageDriverError{Driver: driver}
	}
}

func newServer() *server.Server {
	server := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return server
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: GetLogLevelFromEnv()}

	if env.GetString("LOG_FORMAT", "text") == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
