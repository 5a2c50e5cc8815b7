package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/meldings/meldings-api/api/swagger"
	"github.com/meldings/meldings-api/internal/handler"
	"github.com/meldings/meldings-api/internal/middleware"
	"github.com/meldings/meldings-api/internal/models"
	"github.com/meldings/meldings-api/internal/repository"
	"github.com/meldings/meldings-api/internal/service"
	"github.com/meldings/meldings-api/pkg/cache"
	"github.com/meldings/meldings-api/pkg/config"
	"github.com/meldings/meldings-api/pkg/database"
	"github.com/meldings/meldings-api/pkg/logger"
	corsmiddleware "github.com/meldings/meldings-api/pkg/middleware/cors"
	reqidmiddleware "github.com/meldings/meldings-api/pkg/middleware/requestid"
)

// @title Meldings API
// @version 1.0.0
// @description Student/instructor messaging backend
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("cache unavailable, continuing without it", "error", err)
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	messageSvc := service.NewMessageService(messageRepo, validate, logr, redisClient, cfg.Cache.RepliesTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Meldingssystem API kjører")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)

	authed := r.Group("/", middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/messages",
		middleware.Audit(userRepo, models.AuditActionMessageCreate, "messages"),
		messageHandler.Create)
	authed.GET("/messages", messageHandler.List)
	authed.GET("/messages/:id/replies", messageHandler.ListReplies)
	authed.POST("/replies",
		middleware.RequireRoles(models.RoleInstructor),
		middleware.Audit(userRepo, models.AuditActionReplyCreate, "replies"),
		messageHandler.CreateReply)

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
