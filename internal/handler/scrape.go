package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
	"github.com/tgmetrics/channel-metrics-service/internal/scraper"
	"github.com/tgmetrics/channel-metrics-service/internal/telegram"
)

type ScrapeHandler struct {
	Orchestrator *scraper.Orchestrator
}

func NewScrapeHandler(orchestrator *scraper.Orchestrator) *ScrapeHandler {
	return &ScrapeHandler{Orchestrator: orchestrator}
}

// Trigger runs the orchestrator synchronously and returns the run summary.
// Per-channel failures land in the summary with a 200; only a refused run
// (bad request, unauthenticated session) maps to an error status.
func (h *ScrapeHandler) Trigger(c *gin.Context) {
	var req model.ScrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.Orchestrator.Run(c.Request.Context(), req.ChannelIDs, req.Limit)
	if err != nil {
		if errors.Is(err, telegram.ErrNotAuthorized) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.ScrapeResponse{
		RunID:                summary.RunID,
		Success:              summary.Success,
		ChannelsProcessed:    summary.ChannelsProcessed,
		TotalMessagesScraped: summary.TotalMessagesScraped,
		TotalMessagesUpdated: summary.TotalMessagesUpdated,
		Errors:               summary.Errors,
		StartedAt:            summary.StartedAt,
		CompletedAt:          summary.CompletedAt,
	})
}
