package main

import (
	"video-ingest-service/app"
	"video-ingest-service/pkg/observability"
)

// reconciler 独立部署状态回调轮询，与 API 实例共享数据库与缓存
func main() {
	observability.StartProfiling("video-ingest-reconciler")
	app.RunReconciler()
}
