package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/prince-music-backend/controllers"
	"github.com/vnkhanh/prince-music-backend/middleware"
	"github.com/vnkhanh/prince-music-backend/models"
	"github.com/vnkhanh/prince-music-backend/pkg/metrics"
	"github.com/vnkhanh/prince-music-backend/services"
	"github.com/vnkhanh/prince-music-backend/ws"
)

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		// credentials cannot be combined with a literal wildcard
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// SetupRouter installs the global middleware chain and every route.
// m may be nil, in which case /metrics is not served.
func SetupRouter(r *gin.Engine, svc *services.Container, m *metrics.Metrics) *gin.Engine {
	production := svc.Config.IsProduction()

	r.Use(middleware.Recovery(svc.Logger, production))
	r.Use(middleware.RequestLogger(svc.Logger))
	r.Use(middleware.ErrorHandler(svc.Logger, production))
	if m != nil {
		r.Use(m.Middleware())
	}
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(svc.Config.CORS)))
	r.Use(middleware.DBMiddleware(svc.DB), middleware.ServicesMiddleware(svc))
	r.Use(middleware.SanitizeInput())

	r.GET("/", controllers.Root)
	r.GET("/health", controllers.HealthCheck)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	if svc.Hub != nil {
		r.GET("/ws/notifications", ws.HandleUserWebSocket(svc.Hub, svc.AuthenticateSocket, svc.Logger))
	}
	if local, ok := svc.Uploader.(*services.LocalUploader); ok {
		r.Static("/uploads", local.Dir())
	}

	api := r.Group("/api/v1")

	auth := middleware.AuthMiddleware()
	optional := middleware.OptionalAuthMiddleware()
	admin := middleware.RequireAdmin()
	musician := middleware.RequireMusician()
	loginLimit := middleware.RateLimiter(middleware.LoginLimit)
	passwordLimit := middleware.RateLimiter(middleware.PasswordLimit)
	emailLimit := middleware.RateLimiter(middleware.EmailLimit)

	users := api.Group("/users", middleware.RateLimiter(middleware.APILimit))
	{
		users.POST("/signup", controllers.Signup)
		users.POST("/login", loginLimit, controllers.Login)
		users.POST("/social-login", controllers.SocialLogin)
		users.POST("/request-otp", loginLimit, controllers.RequestOTP)
		users.POST("/verify-otp", loginLimit, controllers.VerifyOTP)
		users.POST("/verify-account", loginLimit, controllers.VerifyAccount)
		users.POST("/forgot-password", passwordLimit, controllers.ForgotPassword)
		users.POST("/request-password-reset", passwordLimit, controllers.ForgotPassword)
		users.POST("/verify-password-reset", loginLimit, controllers.VerifyPasswordReset)
		users.POST("/reset-password", loginLimit, controllers.ResetPassword)
		users.POST("/verify-email-update", emailLimit, controllers.VerifyEmailUpdate)
		users.POST("/verify-phone-update", emailLimit, controllers.VerifyPhoneUpdate)
		users.POST("/refresh-token", controllers.RefreshToken)

		users.GET("/profile", auth, controllers.GetProfile)
		users.PUT("/profile", auth, controllers.UpdateProfile)
		users.POST("/logout", auth, controllers.Logout)
		users.POST("/logout-all", auth, controllers.LogoutAll)
		users.DELETE("/account", auth, controllers.DeleteAccount)
	}

	musicians := api.Group("/musicians")
	{
		musicians.POST("/login", loginLimit, controllers.MusicianLogin)
		musicians.GET("/profile", musician, controllers.GetMusicianProfile)
		musicians.PUT("/profile", musician, controllers.UpdateMusicianProfile)
		musicians.POST("/create", admin, controllers.CreateMusician)
		musicians.GET("/all", admin, controllers.GetAllMusicians)
		musicians.DELETE("/:musicianId", admin, controllers.DeleteMusician)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", optional, controllers.GetCourses)
		courses.GET("/categories", controllers.GetCourseCategories)
		courses.GET("/:courseId", optional, controllers.GetCourse)

		manage := middleware.RequireRoles(models.RoleMusician, models.RoleAdmin)
		courses.POST("", manage, controllers.CreateCourse)
		courses.PUT("/:courseId", manage, controllers.UpdateCourse)
		courses.DELETE("/:courseId", manage, controllers.DeleteCourse)
	}

	enrollments := api.Group("/enrollments", auth)
	{
		enrollments.POST("/enroll/:courseId", controllers.Enroll)
		enrollments.GET("/my-courses", controllers.GetMyCourses)
		enrollments.GET("/course/:courseId", controllers.GetEnrollment)
		enrollments.PUT("/course/:courseId/progress", controllers.UpdateProgress)
		enrollments.DELETE("/unenroll/:courseId", controllers.Unenroll)
		enrollments.GET("/stats", controllers.GetEnrollmentStats)
		enrollments.POST("/admin/cleanup-expired", admin, controllers.CleanupExpiredEnrollments)
	}

	api.POST("/payments/midtrans/notification", controllers.MidtransNotification)

	tutor := api.Group("/tutor", auth)
	{
		tutor.POST("/request", controllers.CreateTutorRequest)
		tutor.GET("/check-status", controllers.CheckTutorRequestStatus)
		tutor.GET("/my-requests", controllers.GetMyTutorRequests)
		tutor.GET("/received", musician, controllers.GetReceivedTutorRequests)
		tutor.PATCH("/:id/status", musician, controllers.UpdateTutorRequestStatus)
	}

	portfolio := api.Group("/portfolio")
	{
		portfolio.GET("/portfolio/email/:email", controllers.GetPortfolioByEmail)
		portfolio.POST("/add-update-portfolio", auth, controllers.AddUpdatePortfolio)
		portfolio.POST("/section/content", musician, controllers.AddSectionContent)
		portfolio.GET("/:musicianId", controllers.GetPortfolio)
		portfolio.GET("/:musicianId/sections", controllers.GetPortfolioSections)

		owner := middleware.RequireMusicianAccess("musicianId")
		portfolio.PUT("/:musicianId/section/:sectionTitle/content", owner, controllers.ReplaceSectionContent)
		portfolio.DELETE("/:musicianId/section/:sectionTitle", owner, controllers.DeleteSection)
	}

	prince := api.Group("/prince")
	{
		prince.GET("", controllers.GetPrince)
		prince.PUT("", admin, controllers.UpsertPrince)
		prince.POST("/section/content", admin, controllers.AddPrinceSectionContent)
	}

	notations := api.Group("/notations", auth)
	{
		notations.POST("", controllers.CreateNotation)
		notations.GET("", controllers.GetNotations)
		notations.PATCH("/:id/status", controllers.UpdateNotationStatus)
	}

	feedback := api.Group("/feedback")
	{
		feedback.POST("", controllers.CreateFeedback)
		feedback.GET("", controllers.GetFeedback)
	}

	faqs := api.Group("/faqs")
	{
		faqs.POST("", admin, controllers.CreateFAQ)
		faqs.POST("/bulk", admin, controllers.BulkCreateFAQs)
		faqs.GET("", controllers.GetFAQs)
	}

	ads := api.Group("/advertisements")
	{
		ads.POST("", admin, controllers.CreateAdvertisement)
		ads.GET("", controllers.GetAdvertisements)
	}

	bookings := api.Group("/book-programs", auth)
	{
		bookings.POST("", controllers.CreateBookProgram)
		bookings.GET("", controllers.GetBookPrograms)
		bookings.GET("/:id", controllers.GetBookProgram)
		bookings.PATCH("/:id", controllers.UpdateBookProgram)
		bookings.DELETE("/:id", controllers.DeleteBookProgram)
	}

	upload := api.Group("/upload")
	{
		upload.POST("", auth, controllers.UploadFile)
		upload.GET("/test/:filename", controllers.TestUpload)
	}

	notifications := api.Group("/notifications", auth)
	{
		notifications.GET("", controllers.GetNotifications)
		notifications.GET("/unread-count", controllers.GetUnreadCount)
		notifications.PATCH("/read-all", controllers.MarkAllAsRead)
		notifications.PATCH("/:id/read", controllers.MarkNotificationAsRead)
		notifications.DELETE("/:id", controllers.DeleteNotification)
	}

	r.NoRoute(middleware.NotFound())
	return r
}
