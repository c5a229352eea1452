// Package router provides answer service routing.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-rag/internal/answer/handler"
)

// Register registers the answer service routes. A nil metrics handler
// leaves /metrics unregistered.
func Register(engine *gin.Engine, answerHandler *handler.AnswerHandler, metricsHandler http.Handler) {
	logger.Info("Registering answer routes...")

	engine.GET("/healthz", handler.Healthz)
	engine.GET("/version", handler.Version)
	if metricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(metricsHandler))
	}

	v1 := engine.Group("/v1")
	{
		rag := v1.Group("/rag")
		{
			rag.POST("/answer", answerHandler.Answer)
			rag.POST("/answer/batch", answerHandler.AnswerBatch)
			rag.GET("/stats", answerHandler.Stats)
			rag.DELETE("/cache", answerHandler.ClearCache)
		}
	}

	logger.Info("HTTP routes registered")
}
