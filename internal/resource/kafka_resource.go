package resource

import (
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/kafka"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
)

// KafkaResource 打开共享 Kafka 客户端；未启用时通知器只写日志，计数事件消费者不启动
type KafkaResource struct{}

type KafkaResourcePlugin struct{}

func (p *KafkaResourcePlugin) Name() string { return "kafkaResource" }

func (p *KafkaResourcePlugin) MustCreateResource() manager.Resource { return &KafkaResource{} }

func (r *KafkaResource) MustOpen() {
	kafka.DefaultClient().MustOpen()
	cfg := config.GetGlobalConfig()
	if cfg == nil || !cfg.Kafka.Enabled {
		return
	}
	if cfg.Kafka.Topics.VideoEvents == "" {
		logger.Warnf("Kafka video events topic not set, lifecycle events fall back to default topic")
	}
	if cfg.Kafka.Topics.Interactions == "" {
		logger.Warnf("Kafka interactions topic not set, interaction consumer disabled")
	}
}

func (r *KafkaResource) Close() { kafka.DefaultClient().Close() }
