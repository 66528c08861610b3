package main

import (
	"video-ingest-service/app"
	"video-ingest-service/pkg/observability"
)

func main() {
	observability.StartProfiling("video-ingest-service")
	app.Run()
}
