package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-ingest-service/ddd/application/cqe"
	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/service"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/errno"
)

type stubBlobs struct{}

func (stubBlobs) Put(context.Context, string, io.Reader, int64, string) (string, error) { return "", nil }
func (stubBlobs) Delete(context.Context, string) error                                   { return nil }
func (stubBlobs) PublicURL(locator string) string                                        { return "https://cdn/" + locator }

type stubIngest struct {
	video *entity.VideoEntity
	err   error
	cmd   *service.SubmitCommand
}

func (s *stubIngest) Submit(_ context.Context, cmd *service.SubmitCommand) (*entity.VideoEntity, error) {
	s.cmd = cmd
	return s.video, s.err
}

func (s *stubIngest) Resubmit(context.Context, string, string) (*entity.VideoEntity, error) {
	return s.video, s.err
}

// stubVideos 记录计数类调用
type stubVideos struct {
	getErr   error
	views    []string
	shares   []string
	comments map[string]int64
}

func (s *stubVideos) Get(_ context.Context, _, videoID string) (*entity.VideoEntity, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return entity.NewVideoEntity(videoID, "owner", "", "in.mp4", "", false, nil), nil
}
func (s *stubVideos) GetForAudit(ctx context.Context, callerID, videoID string) (*entity.VideoEntity, error) {
	return s.Get(ctx, callerID, videoID)
}
func (s *stubVideos) ListJobs(context.Context, string, string) ([]*entity.TranscodeJobEntity, error) {
	return nil, nil
}
func (s *stubVideos) Update(context.Context, string, string, *string, *bool) (*entity.VideoEntity, error) {
	return nil, nil
}
func (s *stubVideos) Delete(context.Context, string, string) error        { return nil }
func (s *stubVideos) Like(context.Context, string, string) (bool, error)   { return true, nil }
func (s *stubVideos) Unlike(context.Context, string, string) (bool, error) { return false, nil }
func (s *stubVideos) RecordView(_ context.Context, id string) error {
	s.views = append(s.views, id)
	return nil
}
func (s *stubVideos) RecordShare(_ context.Context, id string) error {
	s.shares = append(s.shares, id)
	return nil
}
func (s *stubVideos) AdjustCommentCount(_ context.Context, id string, delta int64) error {
	if s.comments == nil {
		s.comments = map[string]int64{}
	}
	s.comments[id] += delta
	return nil
}

type stubFeed struct {
	filter vo.FeedFilter
	page   int
}

func (s *stubFeed) Invalidate(context.Context, string) error { return nil }
func (s *stubFeed) GetPage(_ context.Context, filter vo.FeedFilter, page int) (*vo.VideoPage, error) {
	s.filter, s.page = filter, page
	return &vo.VideoPage{Items: []vo.VideoSummary{}, Meta: vo.NewPageMeta(page, 15, 0)}, nil
}

func TestVideoApp_FeedKindSelectsFilter(t *testing.T) {
	feed := &stubFeed{}
	a := NewVideoAppWith(&stubIngest{}, &stubVideos{}, feed, stubBlobs{})

	_, err := a.Feed(context.Background(), vo.FeedHashtag, &cqe.FeedReq{Hashtag: "#GoLang"})
	require.NoError(t, err)
	assert.Equal(t, vo.HashtagFeed("#GoLang"), feed.filter)
	assert.Equal(t, 1, feed.page)

	_, err = a.Feed(context.Background(), vo.FeedOwner, &cqe.FeedReq{Page: 2, OwnerID: "u1", UserUUID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, vo.FeedOwner, feed.filter.Kind)
	assert.True(t, feed.filter.IncludeHidden)
	assert.Equal(t, 2, feed.page)

	_, err = a.Feed(context.Background(), vo.FeedOwner, &cqe.FeedReq{OwnerID: "u1", UserUUID: "someone"})
	require.NoError(t, err)
	assert.False(t, feed.filter.IncludeHidden)

	_, err = a.Feed(context.Background(), vo.FeedTrending, &cqe.FeedReq{})
	require.NoError(t, err)
	assert.Equal(t, vo.TrendingFeed(), feed.filter)
}

func TestVideoApp_ApplyInteraction(t *testing.T) {
	videos := &stubVideos{}
	a := NewVideoAppWith(&stubIngest{}, videos, &stubFeed{}, stubBlobs{})
	ctx := context.Background()

	require.NoError(t, a.ApplyInteraction(ctx, &cqe.InteractionEvent{Type: cqe.InteractionView, VideoID: "v1"}))
	require.NoError(t, a.ApplyInteraction(ctx, &cqe.InteractionEvent{Type: cqe.InteractionShare, VideoID: "v1"}))
	require.NoError(t, a.ApplyInteraction(ctx, &cqe.InteractionEvent{Type: cqe.InteractionComment, VideoID: "v1", Delta: 2}))
	require.NoError(t, a.ApplyInteraction(ctx, &cqe.InteractionEvent{Type: cqe.InteractionComment, VideoID: "v1", Delta: -1}))

	assert.Equal(t, []string{"v1"}, videos.views)
	assert.Equal(t, []string{"v1"}, videos.shares)
	assert.Equal(t, int64(1), videos.comments["v1"])

	assert.True(t, errors.Is(a.ApplyInteraction(ctx, &cqe.InteractionEvent{Type: "like", VideoID: "v1"}), errno.ErrInvalidParam))
	assert.True(t, errors.Is(a.ApplyInteraction(ctx, &cqe.InteractionEvent{Type: cqe.InteractionComment, VideoID: "v1"}), errno.ErrInvalidParam))
}

func TestVideoApp_RecordViewRequiresVisibility(t *testing.T) {
	videos := &stubVideos{getErr: errno.ErrVideoPrivate}
	a := NewVideoAppWith(&stubIngest{}, videos, &stubFeed{}, stubBlobs{})

	err := a.RecordView(context.Background(), &cqe.VideoURIReq{VideoUUID: "v1"})
	assert.ErrorIs(t, err, errno.ErrVideoPrivate)
	assert.Empty(t, videos.views)
}

func TestVideoApp_UploadRequiresCallerAndFile(t *testing.T) {
	ingest := &stubIngest{}
	a := NewVideoAppWith(ingest, &stubVideos{}, &stubFeed{}, stubBlobs{})

	_, err := a.Upload(context.Background(), &cqe.UploadVideoReq{})
	assert.ErrorIs(t, err, errno.ErrUnauthorized)
	_, err = a.Upload(context.Background(), &cqe.UploadVideoReq{UserUUID: "u1"})
	assert.ErrorIs(t, err, errno.ErrVideoFileRequired)
	assert.Nil(t, ingest.cmd)
}

func TestVideoApp_ResubmitKeepsVideoOnSubmissionError(t *testing.T) {
	video := entity.NewVideoEntity("v1", "u1", "", "in.mp4", "", false, nil)
	ingest := &stubIngest{video: video, err: errno.NewBizError(errno.ErrJobSubmission, errors.New("throttled"))}
	a := NewVideoAppWith(ingest, &stubVideos{}, &stubFeed{}, stubBlobs{})

	got, err := a.Resubmit(context.Background(), &cqe.VideoURIReq{VideoUUID: "v1", UserUUID: "u1"})
	assert.ErrorIs(t, err, errno.ErrJobSubmission)
	require.NotNil(t, got)
	assert.Equal(t, "v1", got.ID)
	assert.Equal(t, "pending", got.ProcessingStatus)
}

type stubDecoder struct {
	update *vo.JobUpdate
	err    error
}

func (d stubDecoder) Decode([]byte) (*vo.JobUpdate, error) { return d.update, d.err }

type stubReconciler struct {
	updates []*vo.JobUpdate
	err     error
}

func (r *stubReconciler) OnJobUpdate(_ context.Context, u *vo.JobUpdate) error {
	r.updates = append(r.updates, u)
	return r.err
}

func TestReconcileApp_HandleJobEvent(t *testing.T) {
	t.Run("decoded update reaches reconciler", func(t *testing.T) {
		rec := &stubReconciler{}
		update := &vo.JobUpdate{Handle: "job-1", State: vo.JobStateComplete}
		a := NewReconcileAppWith(stubDecoder{update: update}, rec)

		require.NoError(t, a.HandleJobEvent(context.Background(), []byte(`{}`)))
		assert.Equal(t, []*vo.JobUpdate{update}, rec.updates)
	})

	t.Run("undecodable payload is malformed", func(t *testing.T) {
		rec := &stubReconciler{}
		a := NewReconcileAppWith(stubDecoder{err: errors.New("bad")}, rec)

		err := a.HandleJobEvent(context.Background(), []byte(`x`))
		assert.ErrorIs(t, err, errno.ErrMalformedJobEvent)
		assert.Empty(t, rec.updates)
	})

	t.Run("missing handle is malformed", func(t *testing.T) {
		a := NewReconcileAppWith(stubDecoder{}, &stubReconciler{})
		assert.ErrorIs(t, a.HandleJobUpdate(context.Background(), &vo.JobUpdate{}), errno.ErrMalformedJobEvent)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		rec := &stubReconciler{err: errno.NewBizError(errno.ErrRecordStore, errors.New("down"))}
		a := NewReconcileAppWith(stubDecoder{update: &vo.JobUpdate{Handle: "job-1"}}, rec)
		assert.ErrorIs(t, a.HandleJobEvent(context.Background(), nil), errno.ErrRecordStore)
	})
}
