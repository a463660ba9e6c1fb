package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"socialnet/activity"
	apirest "socialnet/api/rest"
	"socialnet/audit"
	"socialnet/cache"
	"socialnet/config"
	dbadapter "socialnet/db"
	"socialnet/friends"
	mw "socialnet/middleware"
	"socialnet/model"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		log.Fatal("security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Services ----
	recorder := activity.NewRecorder(db)
	friendsSvc := friends.New(db, c, recorder, friends.Config{
		RateLimitMax:      cfg.Friends.RequestRateLimit,
		RateLimitWindow:   cfg.Friends.RequestRateWindow,
		RejectionCooldown: cfg.Friends.RejectionCooldown,
		ListTTL:           cfg.Friends.FriendListTTL,
	}, logger)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Recovery(logger), mw.Logger(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))
	r.Use(auditSvc.Middleware())

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	friendsH := apirest.NewFriendsHandler(friendsSvc)
	usersH := apirest.NewUsersHandler(db, friendsSvc)
	activityH := apirest.NewActivityHandler(recorder)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/signup", authH.Signup)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		usersG := api.Group("/users")
		usersG.Use(mw.Auth(cfg.Security, c))
		usersG.GET("/search", usersH.Search)
		usersG.POST("/:id/block", mw.RequireWrite(), usersH.Block)
		usersG.DELETE("/:id/block", mw.RequireWrite(), usersH.Unblock)

		friendsG := api.Group("/friends")
		friendsG.Use(mw.Auth(cfg.Security, c))
		friendsG.POST("/request", mw.RequireWrite(), friendsH.Send)
		friendsG.PUT("/request/:id", mw.RequireWrite(), friendsH.Respond)
		friendsG.GET("/list", friendsH.List)
		friendsG.GET("/pending", friendsH.Pending)

		userG := api.Group("/user")
		userG.Use(mw.Auth(cfg.Security, c))
		userG.GET("/activity", activityH.List)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
