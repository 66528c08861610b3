package component

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"video-ingest-service/ddd/application/cqe"
	"video-ingest-service/ddd/application/dto"
	"video-ingest-service/ddd/domain/vo"
)

// recordingVideoApp 只记录 ApplyInteraction
type recordingVideoApp struct {
	events []cqe.InteractionEvent
}

func (r *recordingVideoApp) Upload(context.Context, *cqe.UploadVideoReq) (*dto.VideoDto, error) { return nil, nil }
func (r *recordingVideoApp) Resubmit(context.Context, *cqe.VideoURIReq) (*dto.VideoDto, error)  { return nil, nil }
func (r *recordingVideoApp) GetVideo(context.Context, *cqe.VideoURIReq) (*dto.VideoDto, error)  { return nil, nil }
func (r *recordingVideoApp) GetVideoForAudit(context.Context, *cqe.VideoURIReq) (*dto.VideoDto, error) {
	return nil, nil
}
func (r *recordingVideoApp) ListJobs(context.Context, *cqe.VideoURIReq) ([]*dto.TranscodeJobDto, error) {
	return nil, nil
}
func (r *recordingVideoApp) UpdateVideo(context.Context, *cqe.UpdateVideoReq) (*dto.VideoDto, error) {
	return nil, nil
}
func (r *recordingVideoApp) DeleteVideo(context.Context, *cqe.VideoURIReq) error             { return nil }
func (r *recordingVideoApp) Like(context.Context, *cqe.VideoURIReq) (*dto.LikeDto, error)   { return nil, nil }
func (r *recordingVideoApp) Unlike(context.Context, *cqe.VideoURIReq) (*dto.LikeDto, error) { return nil, nil }
func (r *recordingVideoApp) RecordView(context.Context, *cqe.VideoURIReq) error             { return nil }
func (r *recordingVideoApp) RecordShare(context.Context, *cqe.VideoURIReq) error            { return nil }
func (r *recordingVideoApp) ApplyInteraction(_ context.Context, e *cqe.InteractionEvent) error {
	r.events = append(r.events, *e)
	return nil
}
func (r *recordingVideoApp) Feed(context.Context, vo.FeedKind, *cqe.FeedReq) (*vo.VideoPage, error) {
	return nil, nil
}

func TestInteractionConsumer_Handle(t *testing.T) {
	app := &recordingVideoApp{}
	c := &interactionConsumer{app: app, topic: "video.interactions"}

	c.handle(context.Background(), []byte(`{"type":"comment","video_id":"v1","delta":-1}`))
	c.handle(context.Background(), []byte(`not-json`))

	assert.Equal(t, []cqe.InteractionEvent{{Type: "comment", VideoID: "v1", Delta: -1}}, app.events)
}
