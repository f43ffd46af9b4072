package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/institute-portal-api/api/swagger"
	"github.com/noah-isme/institute-portal-api/internal/handler"
	"github.com/noah-isme/institute-portal-api/internal/middleware"
	"github.com/noah-isme/institute-portal-api/internal/repository"
	"github.com/noah-isme/institute-portal-api/internal/service"
	"github.com/noah-isme/institute-portal-api/pkg/cache"
	"github.com/noah-isme/institute-portal-api/pkg/config"
	"github.com/noah-isme/institute-portal-api/pkg/database"
	"github.com/noah-isme/institute-portal-api/pkg/jobs"
	"github.com/noah-isme/institute-portal-api/pkg/logger"
	"github.com/noah-isme/institute-portal-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/institute-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/institute-portal-api/pkg/middleware/requestid"
	"github.com/noah-isme/institute-portal-api/pkg/storage"
	"github.com/noah-isme/institute-portal-api/pkg/validation"
)

const shutdownTimeout = 15 * time.Second

// @title Institute Portal API
// @version 1.0.0
// @description Admissions, student register, course catalogue and LMS backend for the institute portal.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis, cfg.Cache)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	media, err := storage.NewLocalStorage(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
	if err != nil {
		return fmt.Errorf("init media storage: %w", err)
	}
	exports, err := storage.NewLocalStorage(cfg.Exports.Dir, "")
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	mail, err := mailer.New(cfg.Mail, cfg.AppName, logr)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}

	validate := validation.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	admissionRepo := repository.NewAdmissionRepository(db)
	registerRepo := repository.NewRegisterRepository(db)
	productRepo := repository.NewProductRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	resultRepo := repository.NewResultRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	discussionRepo := repository.NewDiscussionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "portal", logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CatalogTTL, logr, cfg.Cache.Enabled && redisClient != nil)

	notifications := service.NewNotificationService(mail, metrics, cfg.AppName, logr)
	notifyQueue := jobs.NewQueue("applicant-notifications", notifications.Handle, jobs.Options{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notifications.Bind(notifyQueue)
	notifyQueue.Start(ctx)
	defer notifyQueue.Stop()

	uploadSvc := service.NewUploadService(media, service.UploadConfig{
		MaxBytes:     cfg.Storage.MaxPhotoBytes,
		AllowedMIMEs: cfg.Storage.AllowedMIMEs,
	}, logr)

	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, cfg.Cache.CatalogTTL, validate, logr)
	catalogSvc := service.NewCatalogService(productRepo, alertRepo, cacheSvc, service.CatalogTTLs{
		Products: cfg.Cache.CatalogTTL,
		Alerts:   cfg.Cache.AlertsTTL,
	}, validate, logr)
	admissionSvc := service.NewAdmissionService(admissionRepo, courseRepo, uploadSvc, notifications, auditRepo, cacheSvc, metrics, validate,
		service.AdmissionConfig{DefaultCourseCode: cfg.Admissions.DefaultCourseCode}, logr)
	registerSvc := service.NewRegisterService(registerRepo, userRepo, courseRepo, exports, signer, auditRepo, cacheSvc, metrics, validate,
		service.RegisterConfig{DownloadURL: cfg.APIPrefix + "/register/exports/download"}, logr)
	resultSvc := service.NewResultService(resultRepo, registerRepo, auditRepo, validate, logr)
	lmsSvc := service.NewLMSService(scheduleRepo, attendanceRepo, discussionRepo, courseRepo, registerRepo, validate, logr)

	go cleanupExports(ctx, exports, cfg.Exports, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	ops := handler.NewMetricsHandler(metrics, readinessChecks(db.PingContext, redisClient))
	uploads := handler.NewUploadHandler(uploadSvc, media)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)
	r.GET("/media/*path", uploads.Media)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Admission: handler.NewAdmissionHandler(admissionSvc),
		Register:  handler.NewRegisterHandler(registerSvc),
		Course:    handler.NewCourseHandler(courseSvc),
		Catalog:   handler.NewCatalogHandler(catalogSvc),
		Result:    handler.NewResultHandler(resultSvc),
		LMS:       handler.NewLMSHandler(lmsSvc),
		Upload:    uploads,
		User:      handler.NewUserHandler(userSvc),
	}, handler.RouteDeps{Tokens: authSvc, Audit: auditRepo, Logger: logr})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
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

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readinessChecks(pingDB handler.Pinger, client *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"database": pingDB}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	return checks
}

// cleanupExports removes register exports whose download links can no longer be valid.
func cleanupExports(ctx context.Context, store *storage.LocalStorage, cfg config.ExportsConfig, logr *zap.Logger) {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan("register", cfg.SignedURLTTL)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
