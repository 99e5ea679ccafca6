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

	_ "github.com/trackmate-dev/trackmate-api/api/swagger"
	"github.com/trackmate-dev/trackmate-api/internal/handler"
	"github.com/trackmate-dev/trackmate-api/internal/middleware"
	"github.com/trackmate-dev/trackmate-api/internal/models"
	"github.com/trackmate-dev/trackmate-api/internal/repository"
	"github.com/trackmate-dev/trackmate-api/internal/service"
	"github.com/trackmate-dev/trackmate-api/pkg/cache"
	"github.com/trackmate-dev/trackmate-api/pkg/config"
	"github.com/trackmate-dev/trackmate-api/pkg/database"
	"github.com/trackmate-dev/trackmate-api/pkg/logger"
	corsmiddleware "github.com/trackmate-dev/trackmate-api/pkg/middleware/cors"
	reqidmiddleware "github.com/trackmate-dev/trackmate-api/pkg/middleware/requestid"
	"github.com/trackmate-dev/trackmate-api/pkg/storage"
)

// @title TrackMate API
// @version 1.0.0
// @description Campus lost-and-found tracking service
// @BasePath /api/v1
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	registryRepo := repository.NewRegistryRepository(db)
	itemRepo := repository.NewItemRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	imageRepo := repository.NewImageRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, registryRepo, validate, logr, service.AuthConfig{
		Secret:            cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		AccessExpiration:  cfg.JWT.AccessExpiration,
		RefreshExpiration: cfg.JWT.RefreshExpiration,
	})
	itemSvc := service.NewItemService(itemRepo, cacheRepo, metricsSvc, validate, logr, cfg.Cache.AvailableItemsTTL)
	claimSvc := service.NewClaimService(claimRepo, itemSvc, validate, logr)
	imageSvc := service.NewImageService(imageRepo, itemSvc, store, logr, service.ImageConfig{
		MaxFileSizeBytes:  cfg.Uploads.MaxFileSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
	})

	authHandler := handler.NewAuthHandler(authSvc)
	lostHandler := handler.NewItemHandler(itemSvc, models.KindLost)
	foundHandler := handler.NewItemHandler(itemSvc, models.KindFound)
	claimHandler := handler.NewClaimHandler(claimSvc)
	imageHandler := handler.NewImageHandler(imageSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	api := r.Group(cfg.APIPrefix)

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	api.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		api.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		auth.PUT("/profile", middleware.JWT(authSvc), authHandler.UpdateProfile)
	}

	lost := api.Group("/lost-items", middleware.JWT(authSvc))
	{
		lost.GET("", lostHandler.List)
		lost.POST("", lostHandler.Create)
		lost.GET("/my-items", lostHandler.ListMine)
		lost.GET("/:id", lostHandler.Get)
		lost.PUT("/:id", lostHandler.Update)
		lost.PATCH("/:id/status", lostHandler.UpdateStatus)
	}

	found := api.Group("/found-items", middleware.JWT(authSvc))
	{
		found.GET("", foundHandler.List)
		found.POST("", foundHandler.Create)
		found.GET("/available", foundHandler.ListAvailable)
		found.GET("/my-items", foundHandler.ListMine)
		found.GET("/:id", foundHandler.Get)
		found.PUT("/:id", foundHandler.Update)
		found.PATCH("/:id/status", foundHandler.UpdateStatus)
	}

	claims := api.Group("/claims", middleware.JWT(authSvc))
	{
		claims.POST("", claimHandler.Create)
		claims.GET("/mine", claimHandler.ListMine)
		claims.GET("/pending", middleware.RequireAdmin(), claimHandler.ListPending)
		claims.GET("/export", middleware.RequireAdmin(), claimHandler.Export)
		claims.PUT("/:id/approve", middleware.RequireAdmin(), claimHandler.Approve)
		claims.PUT("/:id/reject", middleware.RequireAdmin(), claimHandler.Reject)
	}

	images := api.Group("/images", middleware.JWT(authSvc))
	{
		images.POST("/upload", imageHandler.Upload)
		images.GET("/:item_type/:item_id", imageHandler.ListForItem)
	}

	api.GET("/uploads/:file_name", middleware.JWT(authSvc), imageHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
