package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pipeline/internal/handlers"
	"pipeline/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	stageHandler *handlers.StageHandler,
	dealHandler *handlers.DealHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", healthHandler.Handle)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ---- protected
	api := r.Group("/", middleware.AuthMiddleware(jwtSecret), middleware.ReadOnlyGuard())

	stages := api.Group("/stages")
	{
		stages.GET("", stageHandler.List)
		stages.POST("", stageHandler.Create)
		stages.POST("/bootstrap", stageHandler.Bootstrap)
		stages.PUT("/:id", stageHandler.Update)
		stages.DELETE("/:id", stageHandler.Delete)
	}

	deals := api.Group("/deals")
	{
		deals.GET("", dealHandler.List)
		deals.POST("", dealHandler.Create)
		deals.GET("/:id", dealHandler.GetByID)
		deals.PUT("/:id", dealHandler.Update)
		deals.POST("/:id/move", dealHandler.Move)
		deals.POST("/:id/status", dealHandler.UpdateStatus)
		deals.GET("/:id/history", dealHandler.History)
	}
	api.GET("/clients/:id/deals", dealHandler.ListByClient)

	analytics := api.Group("/analytics")
	{
		analytics.GET("/deals", analyticsHandler.DealStats)
		analytics.GET("/revenue", analyticsHandler.Revenue)
		analytics.GET("/stages", analyticsHandler.Stages)
		analytics.GET("/activity", analyticsHandler.Activity)
		analytics.GET("/report.pdf", analyticsHandler.Report)
	}

	return r
}
