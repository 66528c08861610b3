package resource

import "video-ingest-service/pkg/manager"

func init() {
	// 注册资源插件，顺序即打开顺序
	manager.RegisterResourcePlugin(&MySqlResourcePlugin{})
	manager.RegisterResourcePlugin(&RedisResourcePlugin{})
	manager.RegisterResourcePlugin(&StorageResourcePlugin{})
	manager.RegisterResourcePlugin(&AWSResourcePlugin{})
	manager.RegisterResourcePlugin(&KafkaResourcePlugin{})
}
