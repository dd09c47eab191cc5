package server

import (
	"net/http"

	"workflow/internal/config"
	"workflow/internal/handler"
	"workflow/internal/middleware"
	"workflow/internal/repository"
	"workflow/internal/service"
	"workflow/internal/session"
	"workflow/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services is the application layer behind the HTTP handlers.
type Services struct {
	Auth      service.AuthService
	Users     service.UserService
	Materials service.MaterialService
	Requests  service.RequestService
	Export    service.ExportService
	Audit     service.AuditService
	Home      service.HomeService
}

// NewServices wires repositories and services over db. events may be nil; a nil
// logo uses the built-in one.
func NewServices(db *gorm.DB, sessions *session.Manager, events service.EventPublisher, logo []byte, log *zap.Logger) Services {
	userRepo := repository.NewUserRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	auth := service.NewAuthService(userRepo, sessions)
	audit := service.NewAuditService(auditRepo, log)

	return Services{
		Auth:      auth,
		Users:     service.NewUserService(userRepo, txManager, auth, audit),
		Materials: service.NewMaterialService(materialRepo, txManager, auth, audit),
		Requests:  service.NewRequestService(requestRepo, materialRepo, teamRepo, txManager, auth, audit, events),
		Export:    service.NewExportService(requestRepo, txManager, audit, events, logo),
		Audit:     audit,
		Home:      service.NewHomeService(requestRepo, materialRepo),
	}
}

// Options configures NewRouter.
type Options struct {
	Config     *config.Config
	Log        *zap.Logger
	Sessions   *session.Manager
	Hub        *websocket.Hub
	LoginLimit gin.HandlerFunc
}

// NewRouter builds the gin engine: ambient middleware, the route guard, then every handler.
func NewRouter(opts Options, svc Services) *gin.Engine {
	cfg := opts.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(opts.Log))
	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			ExposeHeaders:    []string{"Content-Disposition", middleware.RequestIDHeader},
		}))
	}
	router.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedExtensions([]string{".xlsx"}),
		gzip.WithExcludedPaths([]string{"/ws"}),
		gzip.WithExcludedPathsRegexs([]string{`/export/excel$`}),
	))
	router.Use(middleware.Guard(opts.Sessions, cfg.Auth.CookieName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if opts.Hub != nil {
		router.GET("/ws", opts.Hub.ServeWs)
	}

	cookie := middleware.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure,
		TTL:    cfg.Auth.SessionTTL,
	}

	root := router.Group("")
	handler.NewAuthHandler(svc.Auth, cookie, opts.LoginLimit, opts.Log).RegisterRoutes(root)
	handler.NewHomeHandler(svc.Home, opts.Log).RegisterRoutes(root)
	handler.NewMaterialHandler(svc.Materials, opts.Log).RegisterRoutes(root)
	handler.NewRequestHandler(svc.Requests, svc.Export, opts.Log).RegisterRoutes(root)
	handler.NewUserHandler(svc.Users, opts.Log).RegisterRoutes(root)
	handler.NewAuditHandler(svc.Audit, opts.Log).RegisterRoutes(root)

	return router
}
