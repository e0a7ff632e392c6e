package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	_ "github.com/now-lms/lms-api/api/swagger"
	"github.com/now-lms/lms-api/internal/handler"
	"github.com/now-lms/lms-api/internal/repository"
	"github.com/now-lms/lms-api/internal/service"
	"github.com/now-lms/lms-api/pkg/cache"
	"github.com/now-lms/lms-api/pkg/config"
	"github.com/now-lms/lms-api/pkg/database"
	"github.com/now-lms/lms-api/pkg/logger"
	"github.com/now-lms/lms-api/pkg/session"
	"github.com/now-lms/lms-api/pkg/sizing"
	"github.com/now-lms/lms-api/pkg/storage"
)

// @title NOW LMS API
// @version 1.0.0
// @description Learning management backend: catalog, enrollment, progress and certificates
// @BasePath /api/v1
// @schemes http https

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	workers := cfg.Sizing.Workers
	if workers <= 0 {
		workers = sizing.Calculate(sizing.Options{
			WorkerMemoryMB: cfg.Sizing.WorkerMemoryMB,
			Threads:        cfg.Sizing.Threads,
		})
	}
	logr.Sugar().Infow("deployment sizing", "workers", workers, "threads", cfg.Sizing.Threads)

	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = workers * 2
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	cacheCfg := cache.Resolve(nil, logr)
	cacheStore := cache.Open(cacheCfg, logr)
	defer cacheStore.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheStore, metricsSvc, cacheCfg.DefaultTTL, logr, cacheCfg.Type != cache.TypeNull)
	logr.Sugar().Infow("cache backend resolved", "type", cacheCfg.Type)

	sessCfg := session.Resolve(cfg.Env, nil)
	session.Warnings(sessCfg, cfg.SecretKey, workers, logr)
	sessStore, err := session.Open(ctx, sessCfg, db, logr)
	if err != nil {
		logr.Sugar().Fatalw("session store init failed", "error", err)
	}
	if sessStore != nil {
		defer sessStore.Close() //nolint:errcheck
	}
	sessSigner := session.NewSigner(cfg.SecretKey)
	logr.Sugar().Infow("session backend resolved", "type", sessCfg.Type)

	if cfg.Site.PaymentWebhookSecret == "" {
		cfg.Site.PaymentWebhookSecret = cfg.SecretKey
	}

	certDir := cfg.Certificates.StorageDir
	if certDir == "" {
		certDir = filepath.Join(os.TempDir(), "lms-certificates")
	}
	certStore, err := storage.NewCertificateArchive(certDir)
	if err != nil {
		logr.Sugar().Fatalw("certificate storage init failed", "error", err)
	}
	signSecret := cfg.Certificates.SignedURLSecret
	if signSecret == "" {
		signSecret = cfg.SecretKey
	}
	signer := storage.NewDownloadSigner(signSecret, cfg.Certificates.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	enrollRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	certRepo := repository.NewCertificateRepository(db)
	programRepo := repository.NewProgramRepository(db)
	masterRepo := repository.NewMasterClassRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "now-lms",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, cfg.Catalog.CacheTTL, validate, logr)
	couponSvc := service.NewCouponService(couponRepo, courseRepo, validate, logr)
	enrollSvc := service.NewEnrollmentService(enrollRepo, courseRepo, couponRepo, paymentRepo, userRepo, cfg.Site, validate, logr)
	certSvc := service.NewCertificateService(certRepo, certStore, signer, workers, cfg.Certificates.WorkerRetries, logr)
	certSvc.Start(ctx)
	defer certSvc.Stop()
	progressSvc := service.NewProgressService(progressRepo, courseRepo, evaluationRepo, certRepo, certSvc, validate, logr)
	programSvc := service.NewProgramService(programRepo, validate, logr)
	masterSvc := service.NewMasterClassService(masterRepo, paymentRepo, cfg.Site, validate, logr)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:           authSvc,
		Users:          userSvc,
		Courses:        courseSvc,
		Coupons:        couponSvc,
		Enrollments:    enrollSvc,
		Progress:       progressSvc,
		Certificates:   certSvc,
		Programs:       programSvc,
		MasterClass:    masterSvc,
		Cache:          cacheSvc,
		Metrics:        metricsSvc,
		SessionStore:   sessStore,
		SessionSigner:  sessSigner,
		SessionTTL:     sessCfg.Lifetime,
		PageCacheTTL:   cfg.Catalog.CacheTTL,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
