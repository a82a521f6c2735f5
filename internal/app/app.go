package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/keepsake/keepsake/internal/config"
	"github.com/keepsake/keepsake/internal/database"
	"github.com/keepsake/keepsake/pkg/reminder"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

// Application wires configuration, database, router, background jobs and
// server lifecycle.
type Application struct {
	cfg    config.Application
	db     *pgxpool.Pool
	deps   *Dependencies
	router *mux.Router
	srv    *http.Server
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication(ctx context.Context, configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cfg.Database); err != nil {
		db.Close()
		return nil, err
	}

	deps, err := BuildDependencies(db, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	r := mux.NewRouter()
	SetupMiddleware(r, deps.UserService)
	RegisterRoutes(r, deps)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Listen,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, db: db, deps: deps, router: r, srv: srv}, nil
}

// Run starts the background jobs and the HTTP server and blocks until ctx is
// done or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer a.db.Close()

	if a.cfg.Reminder.Enabled {
		a.deps.Scheduler.Start()
	} else {
		log.Info("Reminder schedule disabled")
	}
	if a.deps.LinkBot != nil {
		a.deps.LinkBot.Start()
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.shutdown(shutdownCtx)
	return runErr
}

func (a *Application) shutdown(ctx context.Context) {
	if err := a.srv.Shutdown(ctx); err != nil {
		log.Errorf("http server shutdown: %v", err)
	}
	if a.deps.LinkBot != nil {
		a.deps.LinkBot.Stop()
	}
	if a.cfg.Reminder.Enabled {
		select {
		case <-a.deps.Scheduler.Stop().Done():
		case <-ctx.Done():
			log.Warn("Reminder dispatch still running at shutdown")
		}
	}
}

// DispatchNow runs today's dispatch once without starting the server.
func (a *Application) DispatchNow(ctx context.Context) (reminder.Result, error) {
	defer a.db.Close()
	return a.deps.Scheduler.RunNow(ctx)
}
