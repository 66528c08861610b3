package http

import (
	"sync"

	"github.com/gin-gonic/gin"

	"video-ingest-service/ddd/application/app"
	"video-ingest-service/ddd/application/cqe"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/manager"
	"video-ingest-service/pkg/middleware"
	"video-ingest-service/pkg/restapi"
)

var (
	videoControllerOnce      sync.Once
	singletonVideoController VideoController
)

type VideoControllerPlugin struct {
}

func (p *VideoControllerPlugin) Name() string {
	return "videoControllerPlugin"
}

func (p *VideoControllerPlugin) MustCreateController() manager.Controller {
	assert.NotCircular()
	videoControllerOnce.Do(func() {
		var limiter *middleware.KeyedLimiter
		if cfg := config.GetGlobalConfig(); cfg != nil && cfg.RateLimit.Enabled {
			limiter = middleware.NewKeyedLimiter(cfg.RateLimit.PerMinute)
		}
		singletonVideoController = NewVideoController(app.DefaultVideoApp(), limiter)
	})
	assert.NotNil(singletonVideoController)
	return singletonVideoController
}

type VideoController interface {
	manager.Controller
}

type videoControllerImpl struct {
	videoApp app.VideoApp
	limiter  *middleware.KeyedLimiter
}

// NewVideoController limiter 为空时写接口不限流
func NewVideoController(videoApp app.VideoApp, limiter *middleware.KeyedLimiter) VideoController {
	return &videoControllerImpl{videoApp: videoApp, limiter: limiter}
}

func (c *videoControllerImpl) RegisterRoutes(engine *gin.Engine) {
	write := []gin.HandlerFunc{middleware.RequireAuth()}
	// 播放/分享允许匿名，按 IP 限流
	open := []gin.HandlerFunc{}
	if c.limiter != nil {
		write = append(write, middleware.RateLimitMiddleware(c.limiter))
		open = append(open, middleware.RateLimitMiddleware(c.limiter))
	}
	with := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc(nil), write...), h)
	}
	anon := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc(nil), open...), h)
	}

	videos := engine.Group("/api/v1/videos")
	{
		videos.POST("", with(c.Upload)...)
		videos.GET("/:video_uuid", c.GetVideo)
		videos.PATCH("/:video_uuid", with(c.UpdateVideo)...)
		videos.DELETE("/:video_uuid", with(c.DeleteVideo)...)
		videos.GET("/:video_uuid/audit", middleware.RequireAuth(), c.GetVideoForAudit)
		videos.GET("/:video_uuid/jobs", middleware.RequireAuth(), c.ListJobs)
		videos.POST("/:video_uuid/resubmit", with(c.Resubmit)...)
		videos.POST("/:video_uuid/like", with(c.Like)...)
		videos.DELETE("/:video_uuid/like", with(c.Unlike)...)
		videos.POST("/:video_uuid/views", anon(c.RecordView)...)
		videos.POST("/:video_uuid/shares", anon(c.RecordShare)...)
	}
}

// Upload 上传视频。转码提交失败时返回 202 与 pending 视频
func (c *videoControllerImpl) Upload(ctx *gin.Context) {
	var req cqe.UploadVideoReq
	if err := ctx.ShouldBind(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	req.UserUUID = middleware.UserUUID(ctx)

	video, err := c.videoApp.Upload(ctx.Request.Context(), &req)
	if err != nil {
		if video != nil {
			restapi.Accepted(ctx, video, err)
			return
		}
		restapi.Failed(ctx, err)
		return
	}
	restapi.Created(ctx, video)
}

func (c *videoControllerImpl) GetVideo(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	video, err := c.videoApp.GetVideo(ctx.Request.Context(), req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, video)
}

func (c *videoControllerImpl) GetVideoForAudit(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	video, err := c.videoApp.GetVideoForAudit(ctx.Request.Context(), req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, video)
}

func (c *videoControllerImpl) ListJobs(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	jobs, err := c.videoApp.ListJobs(ctx.Request.Context(), req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, jobs)
}

func (c *videoControllerImpl) UpdateVideo(ctx *gin.Context) {
	uri, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	var req cqe.UpdateVideoReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	req.VideoUUID = uri.VideoUUID
	req.UserUUID = uri.UserUUID

	video, err := c.videoApp.UpdateVideo(ctx.Request.Context(), &req)
	if err != nil {
		if video != nil {
			restapi.Accepted(ctx, video, err)
			return
		}
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, video)
}

func (c *videoControllerImpl) DeleteVideo(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	if err := c.videoApp.DeleteVideo(ctx.Request.Context(), req); err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, gin.H{"video_uuid": req.VideoUUID, "deleted": true})
}

// Resubmit 失败视频重新提交转码
func (c *videoControllerImpl) Resubmit(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	video, err := c.videoApp.Resubmit(ctx.Request.Context(), req)
	if err != nil {
		if video != nil {
			restapi.Accepted(ctx, video, err)
			return
		}
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, video)
}

func (c *videoControllerImpl) Like(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	res, err := c.videoApp.Like(ctx.Request.Context(), req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, res)
}

func (c *videoControllerImpl) Unlike(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	res, err := c.videoApp.Unlike(ctx.Request.Context(), req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, res)
}

func (c *videoControllerImpl) RecordView(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	if err := c.videoApp.RecordView(ctx.Request.Context(), req); err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, nil)
}

func (c *videoControllerImpl) RecordShare(ctx *gin.Context) {
	req, ok := bindVideoURI(ctx)
	if !ok {
		return
	}
	if err := c.videoApp.RecordShare(ctx.Request.Context(), req); err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, nil)
}

func bindVideoURI(ctx *gin.Context) (*cqe.VideoURIReq, bool) {
	var req cqe.VideoURIReq
	if err := ctx.ShouldBindUri(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrVideoUUIDRequired, err))
		return nil, false
	}
	req.UserUUID = middleware.UserUUID(ctx)
	return &req, true
}
