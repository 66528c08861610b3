package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/errno"
)

type videoFixture struct {
	store    *memStore
	cache    *fakeCache
	notifier *recordingNotifier
	cleanup  *fakeCleanup
	svc      VideoService
}

func newVideoFixture(follows fakeFollows) *videoFixture {
	f := &videoFixture{store: newMemStore(), cache: newFakeCache(), notifier: &recordingNotifier{}, cleanup: &fakeCleanup{}}
	feed := NewFeedService(f.store, f.cache, newFakeBlobStore(), testFeedConfig())
	f.svc = NewVideoService(f.store, f.store, follows, feed, f.notifier, f.cleanup, NewUploadValidator(testIngestConfig()))
	return f
}

func TestGet_Visibility(t *testing.T) {
	f := newVideoFixture(fakeFollows{"fan->owner": true})
	f.store.put(completedVideo(t, "pub", "owner", 1, 0, false))
	f.store.put(completedVideo(t, "priv", "owner", 2, 0, true))
	f.store.put(entity.NewVideoEntity("draft", "owner", "", "videos/owner/draft", "", false, nil))
	ctx := context.Background()

	cases := []struct {
		caller, video string
		want          *errno.Errno
	}{
		{caller: "", video: "pub"},
		{caller: "stranger", video: "pub"},
		{caller: "owner", video: "priv"},
		{caller: "fan", video: "priv"},
		{caller: "stranger", video: "priv", want: errno.ErrVideoPrivate},
		{caller: "", video: "priv", want: errno.ErrVideoPrivate},
		{caller: "owner", video: "draft"},
		{caller: "fan", video: "draft", want: errno.ErrVideoNotFound},
		{caller: "owner", video: "missing", want: errno.ErrVideoNotFound},
	}
	for _, tc := range cases {
		_, err := f.svc.Get(ctx, tc.caller, tc.video)
		if tc.want == nil {
			assert.NoError(t, err, "%s -> %s", tc.caller, tc.video)
			continue
		}
		assert.ErrorIs(t, err, tc.want, "%s -> %s", tc.caller, tc.video)
	}

	_, err := f.svc.Get(ctx, "stranger", "priv")
	assert.Equal(t, errno.KindAuthorization, errno.KindOf(err))
}

func TestUpdate_RederivesHashtagsAndInvalidates(t *testing.T) {
	f := newVideoFixture(nil)
	f.store.put(completedVideo(t, "v1", "owner", 1, 0, false, "old"))
	caption := "now #New #things"
	private := true

	video, err := f.svc.Update(context.Background(), "owner", "v1", &caption, &private)
	require.NoError(t, err)

	assert.Equal(t, []string{"new", "things"}, video.Hashtags())
	a := f.store.attrs("v1")
	assert.Equal(t, caption, a.Caption)
	assert.Equal(t, []string{"new", "things"}, a.Hashtags)
	assert.True(t, a.IsPrivate)
	assert.Equal(t, 1, f.cache.flushCount())
	assert.Equal(t, []vo.VideoEventType{vo.EventVideoUpdated}, f.notifier.types())
}

func TestUpdate_OwnerOnly(t *testing.T) {
	f := newVideoFixture(nil)
	f.store.put(completedVideo(t, "v1", "owner", 1, 0, false))
	caption := "x"

	_, err := f.svc.Update(context.Background(), "other", "v1", &caption, nil)
	assert.ErrorIs(t, err, errno.ErrNotVideoOwner)
	assert.Zero(t, f.cache.flushCount())
}

func TestUpdate_NoChangesSkipsWrite(t *testing.T) {
	f := newVideoFixture(nil)
	f.store.put(completedVideo(t, "v1", "owner", 1, 0, false))

	_, err := f.svc.Update(context.Background(), "owner", "v1", nil, nil)
	require.NoError(t, err)
	assert.Zero(t, f.cache.flushCount())
}

func TestDelete_SoftDeletesAndSchedulesCleanup(t *testing.T) {
	f := newVideoFixture(nil)
	v := completedVideo(t, "v1", "owner", 1, 0, false)
	f.store.put(v)
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, "owner", "v1"))

	assert.ElementsMatch(t, v.BlobLocators(), f.cleanup.locators)
	_, err := f.svc.Get(ctx, "owner", "v1")
	assert.ErrorIs(t, err, errno.ErrVideoNotFound)

	audited, err := f.svc.GetForAudit(ctx, "owner", "v1")
	require.NoError(t, err)
	assert.True(t, audited.IsDeleted())

	_, err = f.svc.GetForAudit(ctx, "other", "v1")
	assert.ErrorIs(t, err, errno.ErrNotVideoOwner)
	assert.Equal(t, []vo.VideoEventType{vo.EventVideoDeleted}, f.notifier.types())
	assert.Equal(t, 1, f.cache.flushCount())
}

func TestLike_IsIdempotent(t *testing.T) {
	f := newVideoFixture(nil)
	f.store.put(completedVideo(t, "v1", "owner", 1, 0, false))
	ctx := context.Background()

	changed, err := f.svc.Like(ctx, "fan", "v1")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = f.svc.Like(ctx, "fan", "v1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, int64(1), f.store.attrs("v1").LikesCount)
	assert.Equal(t, 1, f.cache.flushCount())

	changed, err = f.svc.Unlike(ctx, "fan", "v1")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = f.svc.Unlike(ctx, "fan", "v1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, f.store.attrs("v1").LikesCount)

	_, err = f.svc.Like(ctx, "", "v1")
	assert.Equal(t, errno.KindUnauthenticated, errno.KindOf(err))
}

func TestCounters_NeverNegative(t *testing.T) {
	f := newVideoFixture(nil)
	f.store.put(completedVideo(t, "v1", "owner", 1, 0, false))
	ctx := context.Background()

	require.NoError(t, f.svc.AdjustCommentCount(ctx, "v1", 2))
	require.NoError(t, f.svc.AdjustCommentCount(ctx, "v1", -5))
	require.NoError(t, f.svc.RecordView(ctx, "v1"))
	require.NoError(t, f.svc.RecordShare(ctx, "v1"))

	a := f.store.attrs("v1")
	assert.Zero(t, a.CommentsCount)
	assert.Equal(t, int64(1), a.ViewsCount)
	assert.Equal(t, int64(1), a.SharesCount)

	assert.ErrorIs(t, f.svc.RecordView(ctx, "missing"), errno.ErrVideoNotFound)
}

func TestListJobs_OwnerOnly(t *testing.T) {
	f := newVideoFixture(nil)
	v := entity.NewVideoEntity("v1", "owner", "", "videos/owner/v1", "", false, nil)
	ctx := context.Background()
	f.store.put(v)
	_, err := f.store.MarkProcessing(ctx, "v1", entity.NewTranscodeJobEntity("job-1", "v1", v.CreatedAt()))
	require.NoError(t, err)

	jobs, err := f.svc.ListJobs(ctx, "owner", "v1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].Handle())

	_, err = f.svc.ListJobs(ctx, "other", "v1")
	assert.ErrorIs(t, err, errno.ErrNotVideoOwner)
}
