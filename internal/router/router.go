package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/internal/handlers"
	"github.com/readyresponse/dispatch/internal/middleware"
	"gorm.io/gorm"
)

var defaultOrigins = []string{"http://localhost:8080", "http://localhost:5173"}

func NewRouter(h *handlers.Handler, conn *gorm.DB, origins []string) *gin.Engine {
	r := gin.Default()

	if len(origins) == 0 {
		origins = defaultOrigins
	}

	r.Use(middleware.RequestID())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authenticated := middleware.AuthMiddleware(conn)

	r.GET("/health", h.HealthCheck)
	r.GET("/ws", authenticated, h.WebSocket)

	incidents := r.Group("/incidents", authenticated)
	{
		incidents.POST("/incidents-report", h.ReportIncident)
		incidents.GET("/incident-detail", h.ListIncidents)
		incidents.POST("/:id/assign-resource", h.AssignResource)
		incidents.POST("/:id/resolve", h.ResolveIncident)
	}

	resources := r.Group("/resources", authenticated)
	{
		resources.POST("/create-resource", h.CreateResource)
		resources.PATCH("/:id/status", h.UpdateResourceStatus)
		resources.GET("", h.ListResources)
		resources.GET("/resource-dashboard", h.ResourceDashboard)
	}

	maps := r.Group("/map", authenticated)
	{
		maps.GET("/nearby", h.Nearby)
	}

	messages := r.Group("/messages", authenticated)
	{
		messages.POST("", h.SendMessage)
		messages.GET("", h.GetMessages)
		messages.PATCH("/read", h.MarkMessagesRead)
		messages.DELETE("/:id", h.DeleteMessage)
	}

	users := r.Group("/users", authenticated)
	{
		users.GET("/search", h.SearchUsers)
	}

	notifications := r.Group("/notifications", authenticated)
	{
		notifications.GET("", h.GetNotifications)
		notifications.PUT("/read-all", h.MarkAllNotificationsRead)
		notifications.PUT("/:id/read", h.MarkNotificationRead)
	}

	return r
}
