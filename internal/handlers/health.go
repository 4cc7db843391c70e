package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/readyresponse/dispatch/db"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":      "ok",
		"message":     "Dispatch is running",
		"database":    "ok",
		"connections": h.hub.ClientCount(),
		"timestamp":   time.Now().Format(time.RFC3339),
	}

	if err := db.Ping(pingCtx, h.db); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = err.Error()
	}

	c.JSON(status, body)
}
