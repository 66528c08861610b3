package http

import (
	"sync"

	"github.com/gin-gonic/gin"

	"video-ingest-service/ddd/application/app"
	"video-ingest-service/ddd/application/cqe"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/manager"
	"video-ingest-service/pkg/middleware"
	"video-ingest-service/pkg/restapi"
)

var (
	feedControllerOnce      sync.Once
	singletonFeedController FeedController
)

type FeedControllerPlugin struct{}

func (p *FeedControllerPlugin) Name() string {
	return "feedControllerPlugin"
}

func (p *FeedControllerPlugin) MustCreateController() manager.Controller {
	assert.NotCircular()
	feedControllerOnce.Do(func() {
		singletonFeedController = NewFeedController(app.DefaultVideoApp())
	})
	assert.NotNil(singletonFeedController)
	return singletonFeedController
}

type FeedController interface {
	manager.Controller
}

type feedControllerImpl struct {
	videoApp app.VideoApp
}

func NewFeedController(videoApp app.VideoApp) FeedController {
	return &feedControllerImpl{videoApp: videoApp}
}

func (c *feedControllerImpl) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	{
		v1.GET("/videos", c.feed(vo.FeedLatest))
		v1.GET("/videos/trending", c.feed(vo.FeedTrending))
		v1.GET("/hashtags/:tag/videos", c.feed(vo.FeedHashtag))
		v1.GET("/users/:user_uuid/videos", c.feed(vo.FeedOwner))
	}
}

func (c *feedControllerImpl) feed(kind vo.FeedKind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req cqe.FeedReq
		if err := ctx.ShouldBindQuery(&req); err != nil {
			restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
			return
		}
		req.Hashtag = ctx.Param("tag")
		req.OwnerID = ctx.Param("user_uuid")
		req.UserUUID = middleware.UserUUID(ctx)

		page, err := c.videoApp.Feed(ctx.Request.Context(), kind, &req)
		if err != nil {
			restapi.Failed(ctx, err)
			return
		}
		restapi.Success(ctx, page)
	}
}
