package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"glasspro-backend/config"
	"glasspro-backend/controllers"
	"glasspro-backend/utils"
)

func SetupRouter(h *controllers.Handler, allowedOrigins []string, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(config.PerformanceLogger())
	r.Use(config.MetricsMiddleware())

	r.GET("/healthz", controllers.Health)
	r.GET("/metrics", config.MetricsHandler())

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", utils.AuthMiddleware(jwtSecret), h.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(jwtSecret))
	{
		customers := api.Group("/customers")
		{
			customers.POST("", h.CreateCustomer)
			customers.GET("", h.GetCustomers)
			customers.GET("/:id", h.GetCustomer)
			customers.PUT("/:id", h.UpdateCustomer)
			customers.DELETE("/:id", h.DeleteCustomer)
		}

		jobs := api.Group("/jobs")
		{
			jobs.POST("", h.CreateJob)
			jobs.GET("", h.GetJobs)
			jobs.POST("/preview", h.PreviewJob)
			jobs.GET("/:id", h.GetJob)
			jobs.PUT("/:id", h.UpdateJob)
			jobs.DELETE("/:id", h.DeleteJob)
			jobs.POST("/:id/preview", h.PreviewJobUpdate)
			jobs.GET("/:id/workorder", h.GetWorkOrder)
			jobs.POST("/:id/workorder/sms", h.SendWorkOrderSMS)
		}

		profile := api.Group("/profile")
		{
			profile.GET("", h.GetProfile)
			profile.PUT("/company", h.UpdateCompanyProfile)
			profile.POST("/options/:list", h.AddWorkflowOption)
			profile.PUT("/options/:list/:optionId", h.UpdateWorkflowOption)
			profile.DELETE("/options/:list/:optionId", h.DeleteWorkflowOption)
		}

		api.GET("/stream/:collection", h.StreamCollection)
		api.GET("/dashboard", h.GetDashboardOverview)
	}

	return r
}
