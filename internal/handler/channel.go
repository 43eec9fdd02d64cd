package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tgmetrics/channel-metrics-service/internal/model"
	"github.com/tgmetrics/channel-metrics-service/internal/service"
)

type ChannelHandler struct {
	Channels *service.ChannelService
}

func NewChannelHandler(channels *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{Channels: channels}
}

func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.Channels.List(c.Request.Context(),
		boolQuery(c, "is_active"), intQuery(c, "skip", 0), intQuery(c, "limit", 100))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (h *ChannelHandler) ListWithStats(c *gin.Context) {
	channels, err := h.Channels.ListWithStats(c.Request.Context(),
		boolQuery(c, "is_active"), intQuery(c, "skip", 0), intQuery(c, "limit", 100))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, channels)
}

func (h *ChannelHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ch, err := h.Channels.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *ChannelHandler) Create(c *gin.Context) {
	var req model.ChannelCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ch, err := h.Channels.Create(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ch)
}

func (h *ChannelHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.ChannelUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ch, err := h.Channels.Update(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (h *ChannelHandler) UpdateColorFlag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.ColorFlagUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ch, err := h.Channels.UpdateColorFlag(c.Request.Context(), id, req.ColorFlag)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// SoftDelete deactivates the channel and returns it; messages stay.
func (h *ChannelHandler) SoftDelete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ch, err := h.Channels.SoftDelete(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// HardDelete permanently removes the channel and its messages.
func (h *ChannelHandler) HardDelete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Channels.HardDelete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
