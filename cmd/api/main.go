package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yourusername/selftest-api/internal/config"
	"github.com/yourusername/selftest-api/internal/handler"
	"github.com/yourusername/selftest-api/internal/middleware"
	pgRepo "github.com/yourusername/selftest-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/selftest-api/internal/repository/redis"
	"github.com/yourusername/selftest-api/internal/service"
	ws "github.com/yourusername/selftest-api/internal/websocket"
	"github.com/yourusername/selftest-api/pkg/auth"
	"github.com/yourusername/selftest-api/pkg/database"
)

func main() {
	// .env необязателен: в проде переменные задает окружение
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to read .env: %v", err)
	}

	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), !isProduction)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Server.MigrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	recordRepo := pgRepo.NewTestRecordRepo(db)
	userIPRepo := pgRepo.NewUserIPRepo(db)
	imageRepo := pgRepo.NewReportImageRepo(db)
	messageRepo := pgRepo.NewMessageRepo(db)
	reactionRepo := pgRepo.NewReactionRepo(db)
	adminRepo := pgRepo.NewAdminRepo(db)
	statsRepo := pgRepo.NewStatsRepo(db)
	invalidTokenRepo := pgRepo.NewInvalidTokenRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, invalidTokenRepo)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Уведомления администратору включаются только при полной настройке Resend
	var notifier service.Notifier = &service.NoopNotifier{}
	if cfg.Email.Enabled() {
		resendNotifier, err := service.NewResendNotifier(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.NotifyTo)
		if err != nil {
			log.Printf("Warning: email notifications disabled: %v", err)
		} else {
			notifier = resendNotifier
		}
	}

	// WebSocket Hub для ленты админ-панели
	wsHub := ws.NewHub()
	go wsHub.Run(ctx)

	// Инициализируем сервисы
	identityService := service.NewIdentityService(userRepo)
	recordService := service.NewTestRecordService(recordRepo, userRepo, cacheRepo, wsHub, notifier,
		time.Duration(cfg.Cache.LatestRecordTTLSeconds)*time.Second)
	imageService := service.NewReportImageService(imageRepo, recordRepo)
	messageService := service.NewMessageService(messageRepo, reactionRepo, userRepo, wsHub, notifier)
	sessionTracker := service.NewSessionTracker(userIPRepo, cacheRepo,
		time.Duration(cfg.Tracking.ThrottleSeconds)*time.Second)
	adminAuthService := service.NewAdminAuthService(adminRepo, jwtService)
	adminAuthService.SetFeed(wsHub)
	dashboardService := service.NewDashboardService(recordRepo, userRepo, userIPRepo, cacheRepo, wsHub)
	diagnosticsService := service.NewDiagnosticsService(statsRepo, cacheRepo, recordRepo)

	if err := adminAuthService.EnsureBootstrapAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Printf("Failed to create bootstrap admin: %v", err)
		os.Exit(1)
	}

	// Периодическая очистка устаревших записей инвалидации токенов
	go func() {
		interval := cfg.JWT.CleanupInterval
		if interval <= 0 {
			interval = time.Hour
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := jwtService.CleanupInvalidatedAdmins(ctx); err != nil {
					log.Printf("Ошибка при очистке инвалидированных токенов: %v", err)
				}
			case <-ctx.Done():
				log.Println("Завершение работы горутины очистки токенов")
				return
			}
		}
	}()

	// Инициализируем обработчики
	identityHandler := handler.NewIdentityHandler(identityService)
	catalogHandler := handler.NewCatalogHandler()
	recordHandler := handler.NewRecordHandler(recordService, imageService)
	messageHandler := handler.NewMessageHandler(messageService)
	adminHandler := handler.NewAdminHandler(adminAuthService, dashboardService, diagnosticsService, cfg.JWT.CookieSecure)
	wsHandler := handler.NewWSHandler(wsHub, cfg.CORS.AllowedOrigins)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Без списка доверенных прокси c.ClientIP() берет адрес соединения
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.UserIDHeader, middleware.NicknameHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.SecureHeaders())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	writeLimit := rateLimiter.LimitByIP(middleware.PublicWriteRateLimitConfig())

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(middleware.NoStore())
	{
		api.POST("/identity", writeLimit, identityHandler.Issue)

		api.GET("/catalogs", catalogHandler.List)
		api.GET("/catalogs/:type", catalogHandler.Get)

		api.POST("/report/preview", recordHandler.Preview)
		api.GET("/messages", messageHandler.List)

		// Маршруты с анонимной идентичностью клиента
		identified := api.Group("")
		identified.Use(middleware.RequireIdentity())
		if cfg.Tracking.Enabled {
			identified.Use(middleware.TrackSession(sessionTracker, cfg.Tracking.TrustGeoHeaders))
		}
		{
			identified.GET("/identity", identityHandler.Get)
			identified.PUT("/identity", identityHandler.Rename)

			records := identified.Group("/records")
			{
				records.POST("", writeLimit, recordHandler.Save)
				records.GET("", recordHandler.History)
				records.GET("/latest", recordHandler.Latest)

				recordWithID := records.Group("/:id")
				recordWithID.Use(middleware.ExtractUintParam("id", handler.RecordIDKey))
				{
					recordWithID.GET("", recordHandler.Get)
					recordWithID.DELETE("", recordHandler.Delete)
					recordWithID.GET("/chart", recordHandler.Chart)
					recordWithID.GET("/export", recordHandler.Export)
					recordWithID.POST("/image", writeLimit, recordHandler.UploadImage)
					recordWithID.GET("/image", recordHandler.GetImage)
				}
			}

			messages := identified.Group("/messages")
			{
				messages.POST("", writeLimit, messageHandler.Post)

				messageWithID := messages.Group("/:id")
				messageWithID.Use(middleware.ExtractUintParam("id", handler.MessageIDKey))
				{
					messageWithID.DELETE("", messageHandler.Delete)
					messageWithID.POST("/reactions", writeLimit, messageHandler.ToggleReaction)
				}
			}
		}

		// Админ-панель
		admin := api.Group("/admin")
		{
			admin.POST("/login", rateLimiter.Limit(middleware.AdminLoginRateLimitConfig()), adminHandler.Login)

			protected := admin.Group("")
			protected.Use(authMiddleware.RequireAdmin())
			{
				protected.POST("/logout", adminHandler.Logout)
				protected.GET("/me", adminHandler.Me)
				protected.GET("/submissions", adminHandler.ListSubmissions)
				protected.GET("/submissions/export", adminHandler.ExportSubmissions)
				protected.DELETE("/records/:id", middleware.ExtractUintParam("id", handler.RecordIDKey), adminHandler.DeleteRecord)
				protected.DELETE("/messages/:id", middleware.ExtractUintParam("id", handler.MessageIDKey), messageHandler.AdminDelete)
				protected.GET("/stats", adminHandler.Stats)
				protected.GET("/stats/ratings-by-country", adminHandler.RatingsByCountry)
				protected.GET("/diagnostics", adminHandler.Diagnostics)
				protected.GET("/ws", wsHandler.HandleConnection)
				protected.GET("/ws/metrics", wsHandler.Metrics)
			}
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// После получения SIGINT или SIGTERM вызываем cancel() для завершения горутин
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
