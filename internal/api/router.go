package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/atelier-market/identity-api/internal/api/handler"
	"github.com/atelier-market/identity-api/internal/api/middleware"
	"github.com/atelier-market/identity-api/internal/core/ports"
	"github.com/atelier-market/identity-api/internal/core/service"
	"github.com/atelier-market/identity-api/internal/infrastructure/config"
	mongodb "github.com/atelier-market/identity-api/internal/infrastructure/db/mongo"
	redisdb "github.com/atelier-market/identity-api/internal/infrastructure/db/redis"
)

// NewRouter builds the Echo instance with all routes registered. The token
// codec must have been constructed already (its absence of a secret is a
// startup failure); the audit recorder is the running dispatcher.
func NewRouter(
	db *mongo.Database,
	rdb *redis.Client,
	cfg *config.Config,
	codec ports.TokenCodec,
	auditSvc ports.AuditService,
	audit handler.AuditRecorder,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("identity"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	hasher := service.NewBcryptHasher(0)
	userService := service.NewUserService(userRepo, hasher, log)
	throttle := redisdb.NewLoginThrottle(rdb)

	userHandler := handler.NewUserHandler(userService, codec, throttle, audit, log)
	auditHandler := handler.NewAuditHandler(auditSvc)
	auth := middleware.Auth(codec, userRepo, log)

	// --- Public routes ---
	e.POST("/login", userHandler.Login)
	e.POST("/users", userHandler.Register)

	// --- Protected routes ---
	e.GET("/users", userHandler.List, auth)
	e.GET("/users/:id", userHandler.Get, auth)
	e.PUT("/users/:id", userHandler.Update, auth)
	e.PUT("/users/:id/role", userHandler.ChangeRole, auth)
	e.DELETE("/users/:id", userHandler.Delete, auth)
	e.GET("/users/:id/audit", auditHandler.ListBySubject, auth)

	// --- Observability & docs ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
