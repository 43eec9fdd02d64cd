package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tgmetrics/channel-metrics-service/internal/service"
)

type MessageHandler struct {
	Channels *service.ChannelService
	Messages *service.MessageService
}

func NewMessageHandler(channels *service.ChannelService, messages *service.MessageService) *MessageHandler {
	return &MessageHandler{Channels: channels, Messages: messages}
}

// ListForChannel returns a page of the channel's messages, sorted by
// order_by (date, engagement_rate, engagement_count, views) and order
// (asc/desc, default desc).
func (h *MessageHandler) ListForChannel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if _, err := h.Channels.Get(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	messages, err := h.Messages.ListForChannel(c.Request.Context(), id,
		intQuery(c, "skip", 0), intQuery(c, "limit", 50),
		c.DefaultQuery("order_by", "date"), c.DefaultQuery("order", "desc"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
