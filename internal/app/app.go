package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/maze-server/internal/config"
	"github.com/vancomm/maze-server/internal/database"
	"github.com/vancomm/maze-server/internal/handlers"
	"github.com/vancomm/maze-server/internal/maze"
	"github.com/vancomm/maze-server/internal/middleware"
	"github.com/vancomm/maze-server/internal/registry"
	"github.com/vancomm/maze-server/internal/repository"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	log    *logrus.Logger
	config *config.Config
	router *http.ServeMux
	db     *pgxpool.Pool
	rounds *registry.Registry
}

func New(log *logrus.Logger, cfg *config.Config) *App {
	factory := maze.NewFactory(createRand(), maze.WithMaxAttempts(cfg.MaxAttempts))
	return &App{
		log:    log,
		config: cfg,
		router: http.NewServeMux(),
		rounds: registry.New(factory),
	}
}

func (a *App) Handler() http.Handler {
	return middleware.Wrap(
		a.router,
		middleware.Auth(a.log, a.config.Jwt.Secret, a.config.Jwt.Issuer),
		middleware.Cors(a.config.AllowedOrigins...),
		middleware.Logging(a.log),
	)
}

// Start serves until ctx is done. The records database is optional: without
// one rounds are played but never stored.
func (a *App) Start(ctx context.Context) error {
	var records handlers.RecordStore
	if url := a.config.DatabaseURL(); url != "" {
		db, version, err := database.ConnectAndMigrate(ctx, url)
		if err != nil {
			return fmt.Errorf("unable to connect to db: %w", err)
		}
		defer db.Close()
		a.log.WithField("version", version).Info("database migrated")
		a.db = db
		records = repository.New(db)
	} else {
		a.log.Warn("no database configured, records are disabled")
	}

	a.loadRoutes(records)

	server := &http.Server{
		Addr:    a.config.Addr,
		Handler: a.Handler(),
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	a.log.Infof("ready to serve @ %s", a.config.Addr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		ttl := a.config.RoundTTL.Duration
		return a.rounds.RunReaper(gCtx, ttl, max(ttl/10, time.Second))
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
