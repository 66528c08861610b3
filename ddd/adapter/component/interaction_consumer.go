package component

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	appsvc "video-ingest-service/ddd/application/app"
	"video-ingest-service/ddd/application/cqe"
	"video-ingest-service/pkg/config"
	pkgkafka "video-ingest-service/pkg/kafka"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
)

const defaultInteractionGroup = "video-ingest-service-group"

type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

type InteractionConsumerPlugin struct{}

func (p *InteractionConsumerPlugin) Name() string { return "interactionConsumer" }

func (p *InteractionConsumerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	if cfg == nil || !cfg.Kafka.Enabled || cfg.Kafka.Topics.Interactions == "" {
		logger.Infof("Interaction consumer disabled")
		return nil
	}
	var app appsvc.VideoApp
	if v, ok := deps.VideoApp.(appsvc.VideoApp); ok {
		app = v
	}
	if app == nil {
		app = appsvc.DefaultVideoApp()
	}
	group := cfg.Kafka.GroupID
	if group == "" {
		group = defaultInteractionGroup
	}
	topic := cfg.Kafka.Topics.Interactions
	return &interactionConsumer{
		app:   app,
		topic: topic,
		newReader: func() messageReader {
			return pkgkafka.DefaultClient().Reader(topic, group)
		},
	}
}

// interactionConsumer 消费协作方的观看/分享/评论计数事件
type interactionConsumer struct {
	app       appsvc.VideoApp
	topic     string
	newReader func() messageReader
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func (c *interactionConsumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	reader := c.newReader()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer reader.Close()
		logger.Infof("Kafka consumer started topic=%s", c.topic)
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, io.EOF) {
					logger.Debug("Kafka reader EOF")
				} else {
					logger.Warnf("Kafka read error error=%s", err.Error())
				}
				continue
			}
			c.handle(ctx, msg.Value)
		}
	}()
	return nil
}

func (c *interactionConsumer) handle(ctx context.Context, value []byte) {
	var event cqe.InteractionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		logger.Warnf("Kafka message unmarshal error error=%s", err.Error())
		return
	}
	if err := c.app.ApplyInteraction(ctx, &event); err != nil {
		logger.Warnf("ApplyInteraction failed type=%s video_uuid=%s error=%v", event.Type, event.VideoID, err)
	}
}

func (c *interactionConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

func (c *interactionConsumer) GetName() string { return "interactionConsumer" }
