// internal/api/handlers/ping_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "LogiLedger API is running!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}
