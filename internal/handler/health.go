package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
)

const serviceVersion = "1.0.0"

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "Telegram Channel Metrics API",
		"status":    "running",
		"version":   serviceVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Health probes database connectivity; orchestration platforms poll this.
func (h *HealthHandler) Health(c *gin.Context) {
	var channels int64
	if err := h.db.WithContext(c.Request.Context()).
		Model(&model.Channel{}).Count(&channels).Error; err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"channels":  channels,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
