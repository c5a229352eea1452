package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kart-io/version"

	"github.com/kart-io/sentinel-rag/pkg/utils/response"
)

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok"})
}

// Version reports the build information.
func Version(c *gin.Context) {
	response.OK(c, version.Get())
}
