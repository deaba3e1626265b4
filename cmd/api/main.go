package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/config"
	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	appHTTP "github.com/cmlabs-hris/schedule-checker/internal/handler/http"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/database"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/jwt"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/sse"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/storage"
	"github.com/cmlabs-hris/schedule-checker/internal/repository/excel"
	"github.com/cmlabs-hris/schedule-checker/internal/repository/postgresql"
	validationService "github.com/cmlabs-hris/schedule-checker/internal/service/validation"
	"golang.org/x/sync/errgroup"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.App.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	validator, err := validationService.NewValidator(cfg.Grid.Layout())
	if err != nil {
		log.Fatal("Invalid grid layout: ", err)
	}

	var runRepo validation.RunRepository
	if cfg.DatabaseEnabled() {
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), cfg.PoolConfig())
		if err != nil {
			log.Fatal("Error connecting to database: ", err)
		}
		defer db.Close()

		if err := postgresql.EnsureSchema(ctx, db); err != nil {
			log.Fatal("Error preparing database: ", err)
		}
		runRepo = postgresql.NewValidationRunRepository(db)
		slog.Info("Run history enabled")
	}

	var jwtService jwt.Service
	if cfg.JWT.Secret != "" {
		jwtService = jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	} else {
		slog.Warn("JWT_SECRET_KEY not set, API is unauthenticated")
	}

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL)
	if err != nil {
		log.Fatal("Failed to initialize local storage: ", err)
	}

	hub := sse.NewHub()
	service := validationService.NewValidationService(validator, runRepo, hub)

	workbookOpts := excel.Options{
		LogSheet: cfg.Grid.LogSheet,
		Schema:   validation.LogSchema(cfg.Grid.LogSchema),
	}
	handler := appHTTP.NewValidationHandler(service, fileStorage, jwtService, workbookOpts, cfg.App.MaxUploadBytes)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		Env:            cfg.App.Env,
		Version:        version,
		AllowedOrigins: cfg.App.CORSOrigins,
		LogLevel:       cfg.App.SlogLevel(),
	}, jwtService, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Server shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
