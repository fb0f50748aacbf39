// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/formgate/formgate/adapters/auth"
	"github.com/formgate/formgate/adapters/clock"
	fghttp "github.com/formgate/formgate/adapters/http"
	"github.com/formgate/formgate/adapters/idgen"
	"github.com/formgate/formgate/adapters/metrics"
	"github.com/formgate/formgate/adapters/sqlite"
	"github.com/formgate/formgate/app"
	"github.com/formgate/formgate/config"
	"github.com/formgate/formgate/domain/endpoint"
	"github.com/formgate/formgate/ports"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Deps exposes the wired collaborators to handler constructors, so
// handlers can issue tokens or read the access log without reaching into
// the app struct.
type Deps struct {
	Config    *config.Config
	Tokens    ports.Tokens
	AccessLog ports.AccessLog
	Logger    zerolog.Logger
}

// HandlerFactory builds the named handler registry from the wired
// dependencies. Endpoint configs bind to these names.
type HandlerFactory func(Deps) map[string]app.Handler

// App represents the running application.
type App struct {
	Logger zerolog.Logger

	holder    *config.Holder
	db        *sql.DB
	accessLog *sqlite.AccessLogStore
	tokens    *auth.TokenService
	collector *metrics.Collector
	table     *endpoint.Table
	server    *http.Server

	hotReload bool
}

// New creates and initializes the application from the config file at
// path. The handler factory runs once, after dependencies are wired.
func New(path string, hotReload bool, handlers HandlerFactory) (*App, error) {
	logger := setupLoggerFromEnv()

	holder, err := config.NewHolder(path, logger)
	if err != nil {
		return nil, err
	}
	cfg := holder.Get()

	logger = setupLogger(cfg.Logging)

	a := &App{
		Logger:    logger,
		holder:    holder,
		hotReload: hotReload,
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db

	// Clock and ID generator (always local)
	a.accessLog, err = sqlite.NewAccessLogStore(db, sqlite.AccessLogConfig{
		Clock: clock.Real{},
		IDs:   idgen.UUID{},
	})
	if err != nil {
		return nil, fmt.Errorf("init access log: %w", err)
	}

	a.tokens = auth.NewTokenService(cfg.Auth.Secret)

	a.table, err = cfg.Table()
	if err != nil {
		return nil, fmt.Errorf("build endpoint table: %w", err)
	}

	registry := handlers(Deps{
		Config:    cfg,
		Tokens:    a.tokens,
		AccessLog: a.accessLog,
		Logger:    logger,
	})

	pipeline := app.NewPipeline(registry, a.tokens, app.PipelineConfig{
		AuthEnabled:  cfg.Auth.Enabled,
		TokenKey:     cfg.Auth.TokenKey,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}, logger)

	routerCfg := fghttp.RouterConfig{
		AccessLog: a.accessLog,
		Version:   Version,
	}
	if cfg.Metrics.Enabled {
		a.collector = metrics.New()
		pipeline.SetMetrics(a.collector)
		routerCfg.Metrics = a.collector
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	if cfg.CORS.Enabled {
		routerCfg.CORS = fghttp.NewHeaderStore(cfg.CORS.MaxHeaders)
	}

	router := fghttp.NewRouter(pipeline, a.table, logger, routerCfg)

	a.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if hotReload {
		holder.OnChange(func(newCfg *config.Config) {
			if a.collector != nil {
				a.collector.ConfigReloads.Inc()
				a.collector.ConfigLastReload.SetToCurrentTime()
			}
			// Endpoint and server changes need a restart; the reload
			// path only picks up logging level changes.
			if lvl, err := zerolog.ParseLevel(newCfg.Logging.Level); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
		})
		if err := holder.WatchFile(); err != nil {
			return nil, fmt.Errorf("watch config: %w", err)
		}
		holder.WatchSignals()
	}

	return a, nil
}

// Config returns the current configuration.
func (a *App) Config() *config.Config { return a.holder.Get() }

// Table returns the frozen endpoint table.
func (a *App) Table() *endpoint.Table { return a.table }

// Tokens returns the token service.
func (a *App) Tokens() *auth.TokenService { return a.tokens }

// Run starts the HTTP server and blocks until it stops.
func (a *App) Run() error {
	a.Logger.Info().
		Str("addr", a.server.Addr).
		Int("endpoints", len(a.table.All())).
		Msg("server starting")

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	a.Logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("server shutdown")
	}

	a.holder.Stop()

	if err := a.accessLog.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("access log close")
	}
	if err := a.db.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("database close")
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func setupLoggerFromEnv() zerolog.Logger {
	levelStr := os.Getenv("FORMGATE_LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
