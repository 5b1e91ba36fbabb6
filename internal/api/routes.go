package api

import (
	"net/http"

	"alcyxob/wellness-app/internal/domain"
	"alcyxob/wellness-app/internal/metrics"
	"alcyxob/wellness-app/internal/service"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer depends on.
type Services struct {
	Auth       service.AuthService
	Protocols  service.ProtocolService
	Assignment service.AssignmentService
	CheckIns   service.CheckInService
}

// SetupRoutes registers middleware and every route. metricsHandler may be nil
// to disable the /metrics endpoint.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	services Services,
	metricsManager *metrics.Manager,
	metricsHandler http.Handler,
) {
	authHandler := NewAuthHandler(services.Auth)
	protocolHandler := NewProtocolHandler(services.Protocols)
	assignmentHandler := NewAssignmentHandler(services.Assignment)
	checkInHandler := NewCheckInHandler(services.CheckIns)

	router.Use(RequestLogger())
	if metricsManager != nil {
		router.Use(MetricsMiddleware(metricsManager))
	}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", authHandler.Me)

		// --- Protocol library (read-only) ---
		protocolGroup := protected.Group("/protocols")
		{
			protocolGroup.GET("", protocolHandler.ListProtocols)
			protocolGroup.GET("/:protocolId", protocolHandler.GetProtocol)
		}

		// --- Assignments ---
		assignmentGroup := protected.Group("/assignments")
		{
			assignmentGroup.GET("", assignmentHandler.ListAssignments)
			assignmentGroup.POST("", assignmentHandler.Enroll)
			assignmentGroup.GET("/:assignmentId", assignmentHandler.GetAssignment)
			assignmentGroup.PATCH("/:assignmentId", assignmentHandler.UpdateAssignment)
			assignmentGroup.DELETE("/:assignmentId", assignmentHandler.ArchiveAssignment)
			assignmentGroup.GET("/:assignmentId/export", assignmentHandler.ExportAssignment)
		}

		// --- Readiness check-ins ---
		checkInGroup := protected.Group("/checkins")
		{
			checkInGroup.GET("", checkInHandler.ListCheckIns)
			checkInGroup.POST("", checkInHandler.CreateCheckIn)
		}

		// --- Maintenance ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.POST("/assignments/:assignmentId/reconcile", assignmentHandler.ReconcileHistory)
		}
	}
}
