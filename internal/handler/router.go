package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/now-lms/lms-api/internal/middleware"
	"github.com/now-lms/lms-api/internal/models"
	"github.com/now-lms/lms-api/internal/service"
	"github.com/now-lms/lms-api/pkg/logger"
	corsmiddleware "github.com/now-lms/lms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/now-lms/lms-api/pkg/middleware/requestid"
	"github.com/now-lms/lms-api/pkg/session"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Courses      *service.CourseService
	Coupons      *service.CouponService
	Enrollments  *service.EnrollmentService
	Progress     *service.ProgressService
	Certificates *service.CertificateService
	Programs     *service.ProgramService
	MasterClass  *service.MasterClassService
	Cache        *service.CacheService
	Metrics      *service.MetricsService

	SessionStore  session.Store
	SessionSigner *session.Signer
	SessionTTL    time.Duration

	PageCacheTTL   time.Duration
	AllowedOrigins []string
	EnableDocs     bool
	Logger         *zap.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(cfg.Metrics))

	authH := NewAuthHandler(cfg.Auth, cfg.SessionStore, cfg.SessionSigner, cfg.SessionTTL)
	userH := NewUserHandler(cfg.Users)
	courseH := NewCourseHandler(cfg.Courses)
	couponH := NewCouponHandler(cfg.Coupons)
	enrollH := NewEnrollmentHandler(cfg.Enrollments)
	progressH := NewProgressHandler(cfg.Progress)
	certH := NewCertificateHandler(cfg.Certificates)
	programH := NewProgramHandler(cfg.Programs)
	masterH := NewMasterClassHandler(cfg.MasterClass)
	metricsH := NewMetricsHandler(cfg.Metrics)

	r.GET("/health", metricsH.Health)
	r.GET("/ready", metricsH.Health)
	r.GET("/metrics", metricsH.Prometheus)

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	sessions := middleware.NewSessions(cfg.SessionStore, cfg.SessionSigner, cfg.Auth)
	requireAuth := middleware.JWT(cfg.Auth, sessions)
	optionalAuth := middleware.OptionalJWT(cfg.Auth, sessions)
	pageCache := middleware.PageCache(cfg.Cache, cfg.PageCacheTTL, cfg.Logger)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	adminOrModerator := middleware.RequireRoles(models.RoleAdmin, models.RoleModerator)

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.GET("/verify-email", authH.VerifyEmail)
		auth.POST("/login", authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/logout", requireAuth, authH.Logout)
		auth.POST("/change-password", requireAuth, authH.ChangePassword)
		auth.GET("/me", requireAuth, authH.Me)
	}

	users := v1.Group("/users", requireAuth)
	{
		users.GET("", adminOnly, userH.List)
		users.POST("", adminOnly, userH.Create)
		users.GET("/:id", middleware.RBAC("ADMIN", "MODERATOR", "SELF"), userH.Get)
		users.PUT("/:id", adminOnly, userH.Update)
		users.DELETE("/:id", adminOnly, userH.Delete)
	}

	catalog := v1.Group("/catalog", optionalAuth)
	{
		catalog.GET("/courses", pageCache, courseH.Catalog)
	}

	courses := v1.Group("/courses")
	{
		courses.GET("", requireAuth, staff, courseH.List)
		courses.POST("", requireAuth, staff, courseH.Create)
		courses.GET("/:id", optionalAuth, pageCache, courseH.Get)
		courses.PUT("/:id", requireAuth, staff, courseH.Update)
		courses.GET("/:id/sections", optionalAuth, courseH.Sections)
		courses.POST("/:id/sections", requireAuth, staff, courseH.AddSection)
		courses.GET("/:id/resources", requireAuth, courseH.Resources)
		courses.POST("/:id/resources", requireAuth, staff, courseH.AddResource)

		courses.GET("/:id/coupons", requireAuth, staff, couponH.List)
		courses.POST("/:id/coupons", requireAuth, staff, couponH.Create)
		courses.DELETE("/:id/coupons/:couponId", requireAuth, staff, couponH.Delete)

		courses.GET("/:id/enrollment/preview", requireAuth, enrollH.Preview)
		courses.POST("/:id/resources/:resourceId/complete", requireAuth, progressH.CompleteResource)
		courses.GET("/:id/progress", requireAuth, progressH.Summary)
	}

	enrollments := v1.Group("/enrollments")
	{
		enrollments.POST("", requireAuth, enrollH.Enroll)
		enrollments.GET("", requireAuth, adminOrModerator, enrollH.List)
		enrollments.GET("/export", requireAuth, adminOrModerator, enrollH.Export)
		enrollments.GET("/me", requireAuth, enrollH.Mine)
		enrollments.POST("/:id/confirm", optionalAuth, enrollH.Confirm)
		enrollments.POST("/:id/cancel", requireAuth, enrollH.Cancel)
		enrollments.DELETE("/:id", requireAuth, adminOrModerator, enrollH.Unenroll)
	}

	v1.POST("/evaluations/attempts", requireAuth, progressH.SubmitAttempt)

	certificates := v1.Group("/certificates")
	{
		certificates.GET("/:serial/validate", certH.Validate)
		certificates.GET("/download", certH.Download)
		certificates.GET("/me", requireAuth, certH.Mine)
		certificates.GET("/:serial/download-token", requireAuth, certH.DownloadToken)
	}

	programs := v1.Group("/programs")
	{
		programs.GET("", optionalAuth, pageCache, programH.List)
		programs.GET("/:id", optionalAuth, programH.Get)
		programs.POST("", requireAuth, staff, programH.Create)
		programs.POST("/:id/courses", requireAuth, staff, programH.AddCourse)
		programs.POST("/:id/enroll", requireAuth, programH.Enroll)
	}

	masterclasses := v1.Group("/masterclasses")
	{
		masterclasses.GET("", optionalAuth, pageCache, masterH.List)
		masterclasses.GET("/:slug", optionalAuth, masterH.Get)
		masterclasses.POST("", requireAuth, staff, masterH.Create)
		masterclasses.POST("/:slug/enroll", requireAuth, masterH.Enroll)
	}

	v1.POST("/masterclass-enrollments/:id/confirm", optionalAuth, masterH.Confirm)

	v1.GET("/metrics/summary", requireAuth, adminOnly, metricsH.Snapshot)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r
}
