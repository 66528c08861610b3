package component

import "video-ingest-service/pkg/manager"

func init() {
	manager.RegisterComponentPlugin(&JobStatusConsumerPlugin{})
	manager.RegisterComponentPlugin(&InteractionConsumerPlugin{})
}
