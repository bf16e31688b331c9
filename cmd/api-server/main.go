package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vaultdrop-backend/internal/config"
	"vaultdrop-backend/internal/crypto"
	"vaultdrop-backend/internal/database"
	"vaultdrop-backend/internal/domain"
	authhandler "vaultdrop-backend/internal/handler/http/auth"
	fileshandler "vaultdrop-backend/internal/handler/http/files"
	usershandler "vaultdrop-backend/internal/handler/http/users"
	"vaultdrop-backend/internal/middleware"
	pgrepo "vaultdrop-backend/internal/repository/postgres"
	redisrepo "vaultdrop-backend/internal/repository/redis"
	authsvc "vaultdrop-backend/internal/service/auth"
	filesvc "vaultdrop-backend/internal/service/files"
	sharesvc "vaultdrop-backend/internal/service/share"
	"vaultdrop-backend/internal/service/storage"
	usersvc "vaultdrop-backend/internal/service/user"
	"vaultdrop-backend/pkg/constants"
	"vaultdrop-backend/pkg/jwt"
	"vaultdrop-backend/pkg/lockout"
	"vaultdrop-backend/pkg/logger"
	"vaultdrop-backend/pkg/metrics"
)

const serviceName = "vaultdrop-api"

func main() {
	logger.InitDefault()
	defer logger.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(ctx, cfg.DBConnString()); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DBConnString(), nil)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	objectStore, err := storage.NewMinioStore(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		logger.Fatal("failed to connect to object storage", zap.Error(err))
	}

	engine, err := crypto.NewEngine(cfg.FileEncryptionSecret)
	if err != nil {
		logger.Fatal("invalid file encryption secret", zap.Error(err))
	}

	blobStore, err := storage.NewService(objectStore, cfg.MinIOBucket, engine)
	if err != nil {
		logger.Fatal("failed to prepare storage bucket", zap.Error(err))
	}

	userRepo := pgrepo.NewUserRepository(pool)
	fileRepo := pgrepo.NewFileRepository(pool)
	shareRepo := pgrepo.NewShareRepository(pool)
	linkRepo := pgrepo.NewLinkRepository(pool)
	tokenRepo := redisrepo.NewTokenRepository(redisClient)

	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.ProvisionalTokenTTL)
	lockoutManager := lockout.NewManager(redisClient, constants.MaxFailedAttempts, constants.LockoutDuration)

	authService := authsvc.NewService(userRepo, tokenRepo, lockoutManager, jwtManager, "VaultDrop")
	fileService := filesvc.NewService(fileRepo, shareRepo, linkRepo, userRepo, blobStore)
	shareService := sharesvc.NewService(fileRepo, shareRepo, linkRepo, userRepo, cfg.MaxLinkHours)
	userService := usersvc.NewService(userRepo)

	m := metrics.New(serviceName)

	router := buildRouter(cfg, m, jwtManager, authService, fileService, shareService, userService)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func buildRouter(
	cfg *config.Config,
	m *metrics.Metrics,
	jwtManager *jwt.Manager,
	authService *authsvc.Service,
	fileService *filesvc.Service,
	shareService *sharesvc.Service,
	userService *usersvc.Service,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(),
		middleware.RequestLogger(),
		middleware.CORS(cfg.CORSOrigins),
		middleware.Prometheus(m),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	cookies := authhandler.CookieConfig{
		Domain:         cfg.CookieDomain,
		Secure:         cfg.CookieSecure,
		SameSite:       parseSameSite(cfg.CookieSameSite),
		AccessTTL:      cfg.AccessTokenTTL,
		RefreshTTL:     cfg.RefreshTokenTTL,
		ProvisionalTTL: cfg.ProvisionalTokenTTL,
	}

	authH := authhandler.NewHandler(authService, jwtManager, m, cookies)
	filesH := fileshandler.NewHandler(fileService, shareService, m)
	usersH := usershandler.NewHandler(userService)

	requireAuth := middleware.RequireAuth(jwtManager)
	requireProvisional := middleware.RequireProvisional(jwtManager)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authH.Register)
			auth.POST("/login", authH.Login)
			auth.POST("/logout", requireAuth, authH.Logout)
			auth.POST("/token/refresh", authH.Refresh)
			auth.GET("/check-auth", authH.CheckAuth)
			auth.GET("/mfa/setup", requireProvisional, authH.SetupMFA)
			auth.POST("/mfa/setup", requireProvisional, authH.VerifyMFA)
		}

		files := api.Group("/files")
		{
			// Link downloads carry their credential in the URL
			files.GET("/download-link/:id", filesH.DownloadByLink)

			authed := files.Group("", requireAuth)
			{
				authed.POST("/upload", filesH.Upload)
				authed.GET("/", filesH.List)
				authed.GET("/shared", filesH.ListShared)
				authed.GET("/:id/download", filesH.Download)
				authed.DELETE("/:id", filesH.Delete)
				authed.POST("/:id/share", filesH.Share)
				authed.POST("/share-link/:id", filesH.CreateShareLink)
			}
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("/", usersH.List)
			users.PATCH("/:id/role", middleware.RequireRole(domain.RoleAdmin), usersH.UpdateRole)
		}
	}

	return router
}

func parseSameSite(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
