package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/errno"
)

type ingestFixture struct {
	store     *memStore
	blobs     *fakeBlobStore
	submitter *fakeSubmitter
	cache     *fakeCache
	notifier  *recordingNotifier
	cleanup   *fakeCleanup
	svc       IngestService
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		store:     newMemStore(),
		blobs:     newFakeBlobStore(),
		submitter: &fakeSubmitter{},
		cache:     newFakeCache(),
		notifier:  &recordingNotifier{},
		cleanup:   &fakeCleanup{},
	}
	feed := NewFeedService(f.store, f.cache, f.blobs, testFeedConfig())
	f.svc = NewIngestService(IngestDeps{
		VideoRepo:   f.store,
		Blobs:       f.blobs,
		Submitter:   f.submitter,
		Invalidator: feed,
		Notifier:    f.notifier,
		Cleanup:     f.cleanup,
		Validator:   NewUploadValidator(testIngestConfig()),
		Presets:     testPresets,
		NewID:       func() string { return "vid-1" },
	})
	return f
}

func validCommand(t *testing.T, withThumb bool) *SubmitCommand {
	cmd := &SubmitCommand{
		OwnerID: "user-1",
		Video:   videoFile(mp4Bytes(10 << 20)),
		Caption: "first #Go #go clip",
	}
	if withThumb {
		data := pngBytes(t, 720, 1280)
		cmd.Thumbnail = &UploadFile{Filename: "t.png", Size: int64(len(data)), Content: bytes.NewReader(data)}
	}
	return cmd
}

func TestSubmit_OversizeVideoRejected(t *testing.T) {
	f := newIngestFixture()
	cmd := &SubmitCommand{OwnerID: "user-1", Video: &UploadFile{Size: 60 << 20, Content: bytes.NewReader(mp4Bytes(64))}}

	video, err := f.svc.Submit(context.Background(), cmd)

	require.Error(t, err)
	assert.Nil(t, video)
	assert.Equal(t, errno.KindValidation, errno.KindOf(err))
	assert.Empty(t, f.store.videos)
	assert.Empty(t, f.blobs.keys())
	assert.Zero(t, f.cache.flushCount())
	assert.Empty(t, f.submitter.requests)
}

func TestSubmit_ValidUploadMovesToProcessing(t *testing.T) {
	f := newIngestFixture()

	video, err := f.svc.Submit(context.Background(), validCommand(t, true))
	require.NoError(t, err)

	assert.Equal(t, vo.StatusProcessing, video.Status())
	assert.Equal(t, "job-1", video.ActiveJobHandle())
	assert.Equal(t, []string{"go"}, video.Hashtags())
	assert.Equal(t, []string{"thumbnails/user-1/vid-1", "videos/user-1/vid-1"}, f.blobs.keys())
	assert.Equal(t, 1, f.cache.flushCount(), "cache tag flushed exactly once")
	assert.Equal(t, []vo.VideoEventType{vo.EventVideoCreated}, f.notifier.types())

	stored := f.store.attrs("vid-1")
	assert.Equal(t, vo.StatusProcessing, stored.Status)
	assert.Equal(t, "videos/user-1/vid-1", stored.InputLocator)
	assert.Empty(t, stored.Renditions)

	require.Len(t, f.submitter.requests, 1)
	req := f.submitter.requests[0]
	assert.Equal(t, "videos/user-1/vid-1", req.InputLocator)
	assert.Equal(t, "processed/videos/vid-1/", req.DestinationPrefix)
	assert.Equal(t, "vid-1", req.Metadata["video_id"])
	assert.Len(t, req.Presets, 2)

	job, _ := f.store.FindByHandle(context.Background(), "job-1")
	require.NotNil(t, job)
	assert.Equal(t, "vid-1", job.VideoID())
}

func TestSubmit_RecordFailureRemovesBlobs(t *testing.T) {
	f := newIngestFixture()
	f.store.createErr = errBoom

	video, err := f.svc.Submit(context.Background(), validCommand(t, true))

	assert.Nil(t, video)
	assert.ErrorIs(t, err, errno.ErrRecordStore)
	assert.Equal(t, errno.KindStorage, errno.KindOf(err))
	assert.Empty(t, f.blobs.keys(), "no orphaned blob remains")
	assert.Empty(t, f.cleanup.locators)
	assert.Empty(t, f.submitter.requests)
}

func TestSubmit_CompensationFallsBackToCleanupQueue(t *testing.T) {
	f := newIngestFixture()
	f.store.createErr = errBoom
	f.blobs.deleteErr = errBoom

	_, err := f.svc.Submit(context.Background(), validCommand(t, true))

	assert.ErrorIs(t, err, errno.ErrRecordStore)
	assert.ElementsMatch(t, []string{"videos/user-1/vid-1", "thumbnails/user-1/vid-1"}, f.cleanup.locators)
}

func TestSubmit_ThumbnailStoreFailureRemovesVideoBlob(t *testing.T) {
	f := newIngestFixture()
	f.blobs.putErr["thumbnails/"] = errBoom

	_, err := f.svc.Submit(context.Background(), validCommand(t, true))

	assert.ErrorIs(t, err, errno.ErrBlobStore)
	assert.Empty(t, f.blobs.keys())
	assert.Empty(t, f.store.videos)
}

func TestSubmit_VideoStoreFailureCreatesNothing(t *testing.T) {
	f := newIngestFixture()
	f.blobs.putErr["videos/"] = errBoom

	_, err := f.svc.Submit(context.Background(), validCommand(t, false))

	assert.ErrorIs(t, err, errno.ErrBlobStore)
	assert.Empty(t, f.store.videos)
}

func TestSubmit_SubmissionFailureKeepsPendingVideo(t *testing.T) {
	f := newIngestFixture()
	f.submitter.err = errBoom

	video, err := f.svc.Submit(context.Background(), validCommand(t, false))

	require.Error(t, err)
	require.NotNil(t, video)
	assert.ErrorIs(t, err, errno.ErrJobSubmission)
	assert.Equal(t, errno.KindSubmission, errno.KindOf(err))
	assert.Equal(t, vo.StatusPending, video.Status())
	assert.Equal(t, vo.StatusPending, f.store.attrs("vid-1").Status)
	assert.Equal(t, []string{"videos/user-1/vid-1"}, f.blobs.keys(), "upload kept for resubmission")
	assert.Equal(t, 1, f.cache.flushCount())
}

func TestSubmit_RequiresOwner(t *testing.T) {
	f := newIngestFixture()
	cmd := validCommand(t, false)
	cmd.OwnerID = ""

	_, err := f.svc.Submit(context.Background(), cmd)
	assert.Equal(t, errno.KindUnauthenticated, errno.KindOf(err))
}

func TestResubmit_FailedVideoGetsNewJob(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	_, err := f.svc.Submit(ctx, validCommand(t, false))
	require.NoError(t, err)
	_, err = f.store.FailTranscode(ctx, "vid-1", "job-1", vo.JobStateError, "ERROR")
	require.NoError(t, err)

	video, err := f.svc.Resubmit(ctx, "user-1", "vid-1")
	require.NoError(t, err)

	assert.Equal(t, vo.StatusProcessing, video.Status())
	assert.Equal(t, "job-2", video.ActiveJobHandle())
	old, _ := f.store.FindByHandle(ctx, "job-1")
	assert.True(t, old.IsSuperseded())
	assert.Equal(t, 2, f.cache.flushCount())
}

func TestResubmit_PendingAfterSubmissionFailure(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	f.submitter.err = errBoom
	_, err := f.svc.Submit(ctx, validCommand(t, false))
	require.Error(t, err)

	f.submitter.err = nil
	video, err := f.svc.Resubmit(ctx, "user-1", "vid-1")
	require.NoError(t, err)
	assert.Equal(t, vo.StatusProcessing, video.Status())
}

func TestResubmit_Rejections(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	processing := entity.NewVideoEntity("vid-9", "user-1", "", "videos/user-1/vid-9", "", false, nil)
	require.NoError(t, processing.MarkProcessing("job-x"))
	f.store.put(processing)

	_, err := f.svc.Resubmit(ctx, "user-2", "vid-9")
	assert.ErrorIs(t, err, errno.ErrNotVideoOwner)

	_, err = f.svc.Resubmit(ctx, "user-1", "vid-9")
	assert.ErrorIs(t, err, errno.ErrNotResubmittable)

	_, err = f.svc.Resubmit(ctx, "user-1", "missing")
	assert.ErrorIs(t, err, errno.ErrVideoNotFound)
}
