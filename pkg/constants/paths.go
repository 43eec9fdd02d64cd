package constants

// Route paths exposed by the HTTP API.
const (
	PathRoot    = "/"
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathSwagger = "/swagger"

	PathChannels          = "/channels"
	PathChannelsWithStats = "/channels/with-stats"
	PathChannel           = "/channels/:id"
	PathChannelColor      = "/channels/:id/color"
	PathChannelHardDelete = "/channels/:id/hard"
	PathChannelMessages   = "/channels/:id/messages"

	PathStatsGlobal   = "/stats/global"
	PathStatsChannels = "/stats/channels"

	PathScrape = "/scrape"

	PathAuthStart  = "/auth/start"
	PathAuthVerify = "/auth/verify"
	PathAuthReset  = "/auth/reset"
	PathAuthStatus = "/auth/status"
)
