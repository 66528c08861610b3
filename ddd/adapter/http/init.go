package http

import "video-ingest-service/pkg/manager"

func init() {
	manager.RegisterControllerPlugin(&VideoControllerPlugin{})
	manager.RegisterControllerPlugin(&FeedControllerPlugin{})
	manager.RegisterControllerPlugin(&CallbackControllerPlugin{})
}
