package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/config"
	"github.com/ikkim/budongsan-crm/internal/app/controller"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/middleware"
)

// Controllers 라우터가 연결하는 핸들러 묶음
type Controllers struct {
	Auth         *controller.AuthController
	Member       *controller.MemberController
	Customer     *controller.CustomerController
	Property     *controller.PropertyController
	Contract     *controller.ContractController
	Upload       *controller.UploadController
	Schedule     *controller.ScheduleController
	Sales        *controller.SalesController
	Notification *controller.NotificationController
	Activity     *controller.ActivityController
	Subscription *controller.SubscriptionController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	limiter        middleware.Limiter
	config         *config.Config
}

// NewRouter limiter 가 nil 이면 요청 제한을 적용하지 않는다.
func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	limiter middleware.Limiter,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		limiter:        limiter,
		config:         cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "BUDONGSAN CRM API is running",
		})
	})

	var limiter middleware.Limiter
	if r.config.RateLimit.Enabled {
		limiter = r.limiter
	}
	authenticate := r.authMiddleware.Authenticate()
	staffOnly := r.authMiddleware.RequireLevel(model.LevelStaff)
	managerOnly := r.authMiddleware.RequireLevel(model.LevelManager)

	ctrl := r.controllers
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/email/send-code", middleware.RateLimit(limiter, "email-code"), ctrl.Auth.SendEmailCode)
			auth.POST("/email/verify", middleware.RateLimit(limiter, "email-verify"), ctrl.Auth.VerifyEmailCode)
			auth.GET("/check-nickname", ctrl.Auth.CheckNickname)
			auth.GET("/check-email", ctrl.Auth.CheckEmail)
			auth.GET("/check-business-number", ctrl.Auth.CheckBusinessNumber)
			auth.POST("/register", middleware.RateLimit(limiter, "register"), ctrl.Auth.Register)
			auth.POST("/login", middleware.RateLimit(limiter, "login"), ctrl.Auth.Login)
			auth.POST("/refresh", ctrl.Auth.RefreshToken)
			auth.POST("/restore", middleware.RateLimit(limiter, "restore"), ctrl.Auth.Restore)

			auth.POST("/logout", authenticate, ctrl.Auth.Logout)
			auth.GET("/me", authenticate, ctrl.Auth.GetMe)
			auth.PUT("/me", authenticate, ctrl.Auth.UpdateMe)
			auth.DELETE("/me", authenticate, ctrl.Auth.Withdraw)
		}

		members := v1.Group("/members")
		members.Use(authenticate)
		{
			members.GET("", staffOnly, ctrl.Member.ListMembers)
			members.PUT("/:id/level", managerOnly, ctrl.Member.ChangeLevel)
		}

		customers := v1.Group("/customers")
		customers.Use(authenticate)
		{
			customers.GET("", ctrl.Customer.ListCustomers)
			customers.GET("/selectable", ctrl.Customer.ListSelectable)
			customers.POST("", ctrl.Customer.CreateCustomer)
			customers.GET("/:id", ctrl.Customer.GetCustomer)
			customers.PUT("/:id", ctrl.Customer.UpdateCustomer)
			customers.PATCH("/:id/status", ctrl.Customer.SetCustomerStatus)
			customers.DELETE("/:id", managerOnly, ctrl.Customer.DeleteCustomer)
		}

		properties := v1.Group("/properties")
		properties.Use(authenticate)
		{
			properties.GET("", ctrl.Property.ListProperties)
			properties.POST("", ctrl.Property.CreateProperty)
			properties.POST("/images/presigned-url", ctrl.Property.PresignImageUpload)
			properties.GET("/:id", ctrl.Property.GetProperty)
			properties.PUT("/:id", ctrl.Property.UpdateProperty)
			properties.DELETE("/:id", managerOnly, ctrl.Property.DeleteProperty)
			properties.GET("/:id/transfers", ctrl.Property.ListPropertyTransfers)
		}

		contracts := v1.Group("/contracts")
		contracts.Use(authenticate)
		{
			contracts.GET("", ctrl.Contract.ListContracts)
			contracts.POST("", staffOnly, ctrl.Contract.CreateContract)
			contracts.GET("/:id", ctrl.Contract.GetContract)
			contracts.PUT("/:id", ctrl.Contract.UpdateContract)
			contracts.DELETE("/:id", ctrl.Contract.DeleteContract)
			contracts.GET("/:id/transfers", ctrl.Contract.ListContractTransfers)
			contracts.POST("/:id/attachments/presigned-url", ctrl.Upload.PresignContractAttachment)
		}

		schedules := v1.Group("/schedules")
		schedules.Use(authenticate)
		{
			schedules.GET("", ctrl.Schedule.ListSchedules)
			schedules.POST("", ctrl.Schedule.CreateSchedule)
			schedules.DELETE("/:id", ctrl.Schedule.DeleteSchedule)
		}

		sales := v1.Group("/sales")
		sales.Use(authenticate)
		{
			sales.GET("/monthly", ctrl.Sales.GetMonthlySales)
			sales.GET("/monthly/export", ctrl.Sales.ExportMonthlySales)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(authenticate)
		{
			notifications.GET("", ctrl.Notification.GetNotifications)
			notifications.GET("/unread-count", ctrl.Notification.GetUnreadCount)
			notifications.PATCH("/read-all", ctrl.Notification.MarkAllAsRead)
			notifications.PATCH("/:id/read", ctrl.Notification.MarkAsRead)
			notifications.DELETE("/:id", ctrl.Notification.DeleteNotification)
			notifications.GET("/ws", ctrl.Notification.Connect)
		}

		activities := v1.Group("/activities")
		activities.Use(authenticate, managerOnly)
		{
			activities.GET("", ctrl.Activity.ListActivities)
		}

		subscriptions := v1.Group("/subscriptions")
		subscriptions.Use(authenticate)
		{
			subscriptions.GET("/me", ctrl.Subscription.GetSubscription)
			subscriptions.POST("/ready", ctrl.Subscription.ReadySubscription)
			subscriptions.POST("/approve", ctrl.Subscription.ApproveSubscription)
			subscriptions.POST("/cancel", ctrl.Subscription.CancelSubscription)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
