package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Healthz reports liveness. It deliberately checks nothing downstream:
// readiness of the backend is the caller's concern (ingest/match already
// surface backend errors per-request).
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
