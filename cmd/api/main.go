package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "workflow/api/swagger" // swagger docs
	"workflow/internal/config"
	"workflow/internal/database"
	"workflow/internal/logger"
	"workflow/internal/middleware"
	"workflow/internal/server"
	"workflow/internal/session"
	"workflow/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// @title           WorkFlow API
// @version         1.0
// @description     Materials catalog, material requests and Excel export for field crews.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	if err := run(cfg, zapLog); err != nil {
		zapLog.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, zapLog)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	zapLog.Info("Database ready", zap.String("driver", cfg.Database.Driver))

	var logo []byte
	if cfg.Export.LogoPath != "" {
		logo, err = os.ReadFile(cfg.Export.LogoPath)
		if err != nil {
			return fmt.Errorf("failed to read export logo: %w", err)
		}
	}

	sessions := session.NewManager(cfg.Auth.Secret, cfg.Auth.SessionTTL)

	hub := websocket.NewHub(zapLog, cfg.CORS.AllowedOrigins)
	go hub.Run(ctx)

	svc := server.NewServices(db, sessions, hub, logo, zapLog)

	if cfg.Auth.AdminPassword != "" {
		created, err := svc.Users.EnsureAdmin(ctx, "Admin", cfg.Auth.AdminEmail, cfg.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
		if created {
			zapLog.Info("Bootstrap admin created", zap.String("email", cfg.Auth.AdminEmail))
		}
	}

	store, closeStore, err := middleware.NewLimiterStore(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	loginLimit, err := middleware.RateLimit(store, cfg.Auth.LoginRateLimit, zapLog)
	if err != nil {
		return err
	}

	if cfg.Server.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.Options{
		Config:     cfg,
		Log:        zapLog,
		Sessions:   sessions,
		Hub:        hub,
		LoginLimit: loginLimit,
	}, svc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	zapLog.Info("Server exited")
	return nil
}
