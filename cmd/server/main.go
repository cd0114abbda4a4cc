package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "tank_supervisor/docs"
	"tank_supervisor/internal/config"
	"tank_supervisor/internal/console"
	"tank_supervisor/internal/handlers"
	"tank_supervisor/internal/logger"
	"tank_supervisor/internal/plant"
	"tank_supervisor/internal/registry"
	"tank_supervisor/internal/repository"
	"tank_supervisor/internal/repository/db"
	"tank_supervisor/internal/server"
	"tank_supervisor/internal/service"

	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	restoreTimeout  = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	if cfg.Admin.SigningKey == "" {
		log.Fatalw("admin.signing_key is required (set SUP_ADMIN_SIGNING_KEY)")
	}

	// open DB
	sqlDB, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)

	users := registry.New(registry.WithStore(repos.Auth), registry.WithLogger(log.Named("registry")))
	if err := users.Load(); err != nil {
		log.Fatalw("failed to load users", "err", err)
	}
	seedUsers(users, cfg.Users, log)

	tanks := plant.NewSimulator(plant.WithEvents(repos.EventRepo), plant.WithLogger(log.Named("plant")))
	restorePlant(tanks, repos.StateRepo, log)

	sessions := server.New(users, tanks,
		server.WithTimeout(cfg.Server.Timeout),
		server.WithBacklog(cfg.Server.Backlog),
		server.WithStateRepo(repos.StateRepo),
		server.WithEventRepo(repos.EventRepo),
		server.WithLogger(log.Named("session")),
	)

	services := service.NewService(service.Deps{
		Repos:      repos,
		Registry:   users,
		Plant:      tanks,
		Server:     sessions,
		Port:       cfg.Server.Port,
		SigningKey: cfg.Admin.SigningKey,
		TokenTTL:   cfg.Admin.TokenTTL,
	})
	apiHandler := handlers.NewHandler(services, log.Named("http"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := services.Sessions.Start(ctx); err != nil {
		log.Fatalw("failed to start session server", "err", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// plant simulator
	g.Go(func() error {
		services.Simulator.Run(gctx, cfg.Plant.Tick)
		return nil
	})

	// admin HTTP API
	httpSrv := &server.HTTPServer{}
	g.Go(func() error {
		log.Infow("admin_api_listening", "port", cfg.Admin.Port)
		if err := httpSrv.Run(cfg.Admin.Port, apiHandler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// operator console; quit ends the process like a signal does
	g.Go(func() error {
		err := console.New(services, os.Stdout, log.Named("console")).Run(gctx, os.Stdin)
		if errors.Is(err, console.ErrQuit) {
			return err
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server...")

		sessions.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, console.ErrQuit) {
		log.Errorw("server exited with error", "err", err)
	}
	log.Infow("server stopped")
}

// openDB initializes the SQLite database using configuration.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", config.DefaultDBPath)
		path = config.DefaultDBPath
	}
	return db.InitDB(path)
}

// seedUsers adds configured users that the store does not know yet.
func seedUsers(users *registry.Registry, seeds []config.UserSeed, log *logger.Logger) {
	for _, s := range seeds {
		if _, ok := users.Find(s.Login); ok {
			continue
		}
		if !users.Add(s.Login, s.Password, s.Admin) {
			log.Warnw("seed_user_rejected", "login", s.Login)
			continue
		}
		log.Infow("seed_user_added", "login", s.Login, "admin", s.Admin)
	}
}

// restorePlant seeds the simulator from the last idle snapshot, if any.
func restorePlant(p *plant.Simulator, states repository.StateRepo, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
	defer cancel()

	snap, err := states.Load(ctx)
	if err != nil {
		log.Warnw("plant_restore_failed", "err", err)
		return
	}
	if snap.ID == 0 {
		return
	}
	p.Restore(snap)
	log.Infow("plant_restored", "state", snap.State.String(), "saved_at", snap.UpdatedAt)
}
