package component

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	appsvc "video-ingest-service/ddd/application/app"
	"video-ingest-service/internal/resource"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
	"video-ingest-service/pkg/metrics"
)

// sqsAPI sqs.Client 中用到的方法
type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type JobStatusConsumerPlugin struct{}

func (p *JobStatusConsumerPlugin) Name() string { return "jobStatusConsumer" }

func (p *JobStatusConsumerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	if cfg == nil || !cfg.AWS.SQS.Enabled || cfg.AWS.SQS.QueueURL == "" {
		logger.Infof("SQS job status consumer disabled")
		return nil
	}
	var app appsvc.ReconcileApp
	if v, ok := deps.ReconcileApp.(appsvc.ReconcileApp); ok {
		app = v
	}
	if app == nil {
		app = appsvc.DefaultReconcileApp()
	}
	return NewJobStatusConsumer(resource.DefaultAWSResource().SQS(), app, cfg.AWS.SQS)
}

// jobStatusConsumer 长轮询 MediaConvert 状态事件。处理成功和丢弃的消息都会删除，
// 毒消息直接删除，存储错误保留消息等待可见性超时后重投
type jobStatusConsumer struct {
	client sqsAPI
	app    appsvc.ReconcileApp
	cfg    config.SQSConfig
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewJobStatusConsumer(client sqsAPI, app appsvc.ReconcileApp, cfg config.SQSConfig) *jobStatusConsumer {
	if cfg.WaitTimeSeconds <= 0 {
		cfg.WaitTimeSeconds = 20
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 10
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}
	return &jobStatusConsumer{client: client, app: app, cfg: cfg}
}

func (c *jobStatusConsumer) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Infof("SQS consumer started queue=%s", c.cfg.QueueURL)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := c.pollOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warnf("SQS receive failed queue=%s error=%v", c.cfg.QueueURL, err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.cfg.ErrorBackoff):
				}
			}
		}
	}()
	return nil
}

func (c *jobStatusConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

func (c *jobStatusConsumer) GetName() string { return "jobStatusConsumer" }

// pollOnce 拉取一批消息并逐条处理
func (c *jobStatusConsumer) pollOnce(ctx context.Context) error {
	in := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.cfg.QueueURL),
		MaxNumberOfMessages: c.cfg.MaxMessages,
		WaitTimeSeconds:     c.cfg.WaitTimeSeconds,
	}
	if c.cfg.VisibilityTimeout > 0 {
		in.VisibilityTimeout = c.cfg.VisibilityTimeout
	}
	out, err := c.client.ReceiveMessage(ctx, in)
	if err != nil {
		return err
	}
	for _, msg := range out.Messages {
		c.handle(ctx, msg)
	}
	return nil
}

func (c *jobStatusConsumer) handle(ctx context.Context, msg types.Message) {
	err := c.app.HandleJobEvent(ctx, unwrapSNS([]byte(aws.ToString(msg.Body))))
	switch {
	case err == nil:
		metrics.JobUpdatesTotal.WithLabelValues("handled").Inc()
	case errors.Is(err, errno.ErrMalformedJobEvent):
		metrics.JobUpdatesTotal.WithLabelValues("poison").Inc()
		logger.Warnf("SQS poison message deleted message_id=%s error=%v", aws.ToString(msg.MessageId), err)
	default:
		metrics.JobUpdatesTotal.WithLabelValues("retry").Inc()
		logger.Errorf("SQS message kept for redelivery message_id=%s error=%v", aws.ToString(msg.MessageId), err)
		return
	}

	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := c.client.DeleteMessage(delCtx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.cfg.QueueURL),
		ReceiptHandle: msg.ReceiptHandle,
	}); err != nil {
		logger.Warnf("SQS delete failed message_id=%s error=%v", aws.ToString(msg.MessageId), err)
	}
}

// unwrapSNS 经 SNS 转发的消息体包在 Message 字段中
func unwrapSNS(body []byte) []byte {
	var envelope struct {
		Type    string `json:"Type"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Type == "Notification" && envelope.Message != "" {
		return []byte(envelope.Message)
	}
	return body
}
