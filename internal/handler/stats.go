package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tgmetrics/channel-metrics-service/internal/service"
)

type StatsHandler struct {
	Stats *service.StatsService
}

func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{Stats: stats}
}

func (h *StatsHandler) Global(c *gin.Context) {
	stats, err := h.Stats.Global(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *StatsHandler) PerChannel(c *gin.Context) {
	stats, err := h.Stats.PerChannel(c.Request.Context(), boolQuery(c, "is_active"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
