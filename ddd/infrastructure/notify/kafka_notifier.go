package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/kafka"
	"video-ingest-service/pkg/logger"
)

const defaultTopic = "video.events"

// producer kafka.Client 中用到的方法
type producer interface {
	Enabled() bool
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// KafkaNotifier 以 video_id 为 key 写入 video.events，Kafka 未启用时只记日志
type KafkaNotifier struct {
	producer producer
	topic    string
}

var (
	notifierOnce    sync.Once
	defaultNotifier gateway.Notifier
)

func DefaultNotifier() gateway.Notifier {
	assert.NotCircular()
	notifierOnce.Do(func() {
		topic := ""
		if cfg := config.GetGlobalConfig(); cfg != nil {
			topic = cfg.Kafka.Topics.VideoEvents
		}
		defaultNotifier = NewKafkaNotifier(kafka.DefaultClient(), topic)
	})
	assert.NotNil(defaultNotifier)
	return defaultNotifier
}

func NewKafkaNotifier(p producer, topic string) *KafkaNotifier {
	if topic == "" {
		topic = defaultTopic
	}
	return &KafkaNotifier{producer: p, topic: topic}
}

func (n *KafkaNotifier) Publish(ctx context.Context, event vo.VideoEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if n.producer == nil || !n.producer.Enabled() {
		logger.Info("Video event", map[string]interface{}{
			"type":     string(event.Type),
			"video_id": event.VideoID,
			"status":   event.Status,
			"reason":   event.Reason,
		})
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode video event: %w", err)
	}
	if err := n.producer.Produce(ctx, n.topic, []byte(event.VideoID), payload); err != nil {
		return fmt.Errorf("publish video event to %s: %w", n.topic, err)
	}
	return nil
}
