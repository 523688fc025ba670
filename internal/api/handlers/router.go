package handlers

import (
	"net/http"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/api/middleware"
	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter wires the HTTP routes. maxUpload caps request bodies; zero
// disables the cap.
func NewRouter(h *ReconcileHandler, metrics *observability.Metrics, logger *zap.Logger, maxUpload int64) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS())

	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.MaxBodyBytes(maxUpload))
	{
		apiV1.POST("/reconcile", h.HandleReconcile)
		apiV1.POST("/reconcile/pdf", h.HandlePDF)
		apiV1.POST("/reconcile/csv", h.HandleCSV)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	return router
}
