package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"scorekit/adapters/jsonfile"
	mem "scorekit/adapters/memory"
	redisAdapter "scorekit/adapters/redis"
	sqlxAdapter "scorekit/adapters/sqlx"
	"scorekit/api/httpapi"
	"scorekit/auth"
	"scorekit/board"
	"scorekit/config"
	"scorekit/engine"
	"scorekit/integrations/webhook"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Board   *board.Board
	Auth    auth.Authenticator
	Handler http.Handler
	Server  *http.Server
}

func provideConfig(_ context.Context) (*config.Config, error) {
	if path := os.Getenv("SCOREKIT_CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideStorage(cfg *config.Config, logger *slog.Logger) (engine.Store, error) {
	return setupStorage(cfg, logger)
}

func provideBoard(cfg *config.Config, logger *slog.Logger, store engine.Store) *board.Board {
	opts := []board.Option{
		board.WithStore(store),
		board.WithLogger(logger),
		board.WithDispatchMode(engine.DispatchAsync),
		board.WithConfig(engine.Config{
			HighScoreThreshold: cfg.Leaderboard.HighScoreThreshold,
			MaxScore:           cfg.Leaderboard.MaxScore,
			DefaultLimit:       cfg.Leaderboard.DefaultLimit,
			MaxLimit:           cfg.Leaderboard.MaxLimit,
		}),
	}
	if len(cfg.Webhook.Endpoints) > 0 {
		sink := webhook.New(cfg.Webhook.Endpoints,
			webhook.WithTimeout(cfg.Webhook.Timeout),
			webhook.WithLogger(logger))
		opts = append(opts, board.WithEventHandler(sink.OnEvent))
	}
	return board.New(opts...)
}

func provideAuthenticator(cfg *config.Config) (auth.Authenticator, error) {
	return setupAuth(cfg)
}

func provideHandler(b *board.Board, authn auth.Authenticator, logger *slog.Logger, cfg *config.Config) http.Handler {
	return httpapi.NewRouter(b.Service, b.Registry, authn, logger, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(cfg *config.Config, logger *slog.Logger) (engine.Store, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis, logger)
	case "sql":
		return sqlxAdapter.New(cfg.Storage.SQL, logger)
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}

// setupAuth builds the request authenticator from configuration.
func setupAuth(cfg *config.Config) (auth.Authenticator, error) {
	switch cfg.Auth.Mode {
	case "jwt":
		return auth.NewJWT(cfg.Auth.JWTSecret), nil
	case "static":
		tokens := make(map[string]auth.Identity, len(cfg.Auth.StaticTokens))
		for token, identity := range cfg.Auth.StaticTokens {
			userID, name, ok := strings.Cut(identity, ":")
			if !ok {
				return nil, fmt.Errorf("static token identity %q must be user_id:name", identity)
			}
			tokens[token] = auth.Identity{UserID: userID, Name: name}
		}
		return auth.NewStatic(tokens), nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.Auth.Mode)
	}
}
