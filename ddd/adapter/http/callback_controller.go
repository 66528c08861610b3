package http

import (
	"errors"
	"io"
	"sync"

	"github.com/gin-gonic/gin"

	"video-ingest-service/ddd/application/app"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
	"video-ingest-service/pkg/middleware"
	"video-ingest-service/pkg/restapi"
)

const (
	defaultWebhookHeader = "X-Webhook-Secret"
	maxCallbackBody      = 1 << 20
)

var (
	callbackControllerOnce      sync.Once
	singletonCallbackController CallbackController
)

// CallbackControllerPlugin 转码状态 webhook
type CallbackControllerPlugin struct{}

func (p *CallbackControllerPlugin) Name() string {
	return "transcodeCallbackControllerPlugin"
}

func (p *CallbackControllerPlugin) MustCreateController() manager.Controller {
	assert.NotCircular()
	callbackControllerOnce.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			panic("global config not initialized before callback controller")
		}
		singletonCallbackController = NewCallbackController(app.DefaultReconcileApp(), cfg.Webhook)
	})
	assert.NotNil(singletonCallbackController)
	return singletonCallbackController
}

type CallbackController interface {
	manager.Controller
}

type callbackControllerImpl struct {
	reconcileApp app.ReconcileApp
	header       string
	secret       string
}

func NewCallbackController(reconcileApp app.ReconcileApp, cfg config.WebhookConfig) CallbackController {
	header := cfg.Header
	if header == "" {
		header = defaultWebhookHeader
	}
	return &callbackControllerImpl{reconcileApp: reconcileApp, header: header, secret: cfg.Secret}
}

func (c *callbackControllerImpl) RegisterRoutes(engine *gin.Engine) {
	internal := engine.Group("/internal/v1", middleware.SharedSecretMiddleware(c.header, c.secret))
	{
		internal.POST("/transcode/callback", c.Callback)
	}
}

// Callback 可解码的事件一律 200，丢弃不是错误；存储错误返回 503 让发送方重试
func (c *callbackControllerImpl) Callback(ctx *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxCallbackBody))
	if err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrMalformedJobEvent, err))
		return
	}
	if err := c.reconcileApp.HandleJobEvent(ctx.Request.Context(), payload); err != nil {
		if errors.Is(err, errno.ErrMalformedJobEvent) {
			logger.Warnf("Transcode callback rejected error=%v", err)
		}
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, gin.H{"accepted": true})
}
