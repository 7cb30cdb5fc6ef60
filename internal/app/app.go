package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gn-registry/internal/config"
	"gn-registry/internal/database"
	"gn-registry/internal/handler"
	"gn-registry/internal/metrics"
	"gn-registry/internal/middleware"
	"gn-registry/internal/repository"
	"gn-registry/internal/router"
	"gn-registry/internal/service"
	"gn-registry/internal/stats"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	jurisdictionRepo := repository.NewJurisdictionRepository(pool)
	familyRepo := repository.NewFamilyRepository(pool)
	citizenRepo := repository.NewCitizenRepository(pool)
	transferRepo := repository.NewTransferRepository(pool)
	slog.Info("database ready")

	m := metrics.New()
	auditService := service.NewAuditService(auditRepo, m)

	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, userRepo, tokenRepo, auditService)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	jurisdictionService := service.NewJurisdictionService(jurisdictionRepo, auditService)
	familyService := service.NewFamilyService(familyRepo, jurisdictionService, auditService)
	citizenService := service.NewCitizenService(citizenRepo, familyRepo, jurisdictionService, auditService)
	transferService := service.NewTransferService(transferRepo, familyRepo, jurisdictionService, auditService)
	statsService := service.NewStatsService(jurisdictionService, stats.NewEngine(pool), m)
	userService := service.NewUserService(userRepo, tokenRepo, jurisdictionRepo, auditService)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		User:         handler.NewUserHandler(userService),
		Jurisdiction: handler.NewJurisdictionHandler(jurisdictionService),
		Family:       handler.NewFamilyHandler(familyService),
		Citizen:      handler.NewCitizenHandler(citizenService),
		Transfer:     handler.NewTransferHandler(transferService),
		Stats:        handler.NewStatsHandler(statsService),
		Audit:        handler.NewAuditHandler(auditService),
		Health: func(w http.ResponseWriter, r *http.Request) {
			if err := db.Health(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("database unavailable"))
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		},
	}

	appRouter := router.New(cfg, m, authMiddleware, handlers)

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if removed, err := tokenRepo.CleanExpired(cleanupCtx); err != nil {
					slog.Warn("refresh token cleanup failed", "error", err)
				} else if removed > 0 {
					slog.Info("expired refresh tokens removed", "count", removed)
				}
			}
		}
	}()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			stopCleanup,
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
