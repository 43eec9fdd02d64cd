package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tgmetrics/channel-metrics-service/api"
	"github.com/tgmetrics/channel-metrics-service/internal/handler"
	"github.com/tgmetrics/channel-metrics-service/pkg/constants"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health   *handler.HealthHandler
	Channels *handler.ChannelHandler
	Messages *handler.MessageHandler
	Stats    *handler.StatsHandler
	Scrape   *handler.ScrapeHandler
	Auth     *handler.AuthHandler
}

func New(h Handlers) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET(constants.PathRoot, h.Health.Root)
	r.GET(constants.PathHealth, h.Health.Health)
	r.GET(constants.PathReady, handler.Ready)

	r.GET(constants.PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, constants.PathSwagger+"/") })
	r.GET(constants.PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = constants.PathSwagger + "/index.html"
			c.Request.RequestURI = constants.PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	r.GET(constants.PathChannels, h.Channels.List)
	r.GET(constants.PathChannelsWithStats, h.Channels.ListWithStats)
	r.GET(constants.PathChannel, h.Channels.Get)
	r.POST(constants.PathChannels, h.Channels.Create)
	r.PATCH(constants.PathChannel, h.Channels.Update)
	r.PATCH(constants.PathChannelColor, h.Channels.UpdateColorFlag)
	r.DELETE(constants.PathChannel, h.Channels.SoftDelete)
	r.DELETE(constants.PathChannelHardDelete, h.Channels.HardDelete)
	r.GET(constants.PathChannelMessages, h.Messages.ListForChannel)

	r.GET(constants.PathStatsGlobal, h.Stats.Global)
	r.GET(constants.PathStatsChannels, h.Stats.PerChannel)

	r.POST(constants.PathScrape, h.Scrape.Trigger)

	r.POST(constants.PathAuthStart, h.Auth.Start)
	r.POST(constants.PathAuthVerify, h.Auth.Verify)
	r.POST(constants.PathAuthReset, h.Auth.Reset)
	r.GET(constants.PathAuthStatus, h.Auth.Status)

	return r
}
