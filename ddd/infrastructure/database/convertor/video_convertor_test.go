package convertor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/ddd/infrastructure/database/po"
)

func TestVideoConvertor_ToEntityOrdersHashtagsByPosition(t *testing.T) {
	c := NewVideoConvertor()
	deleted := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	v := &po.Video{
		VideoUUID:        "v1",
		OwnerUUID:        "u1",
		InputPath:        "videos/u1/v1",
		ProcessingStatus: "completed",
		Renditions:       po.Renditions{{Label: "720p", Locator: "processed/videos/v1/a_720p.mp4"}},
		Duration:         42,
		Hashtags: []po.VideoHashtag{
			{Tag: "nyc", Position: 1},
			{Tag: "sunset", Position: 0},
		},
		DeletedAt: gorm.DeletedAt{Time: deleted, Valid: true},
	}

	e := c.ToEntity(v)
	require.NotNil(t, e)
	assert.Equal(t, []string{"sunset", "nyc"}, e.Hashtags())
	assert.Equal(t, vo.StatusCompleted, e.Status())
	assert.Equal(t, 42, e.DurationSeconds())
	require.NotNil(t, e.DeletedAt())
	assert.True(t, deleted.Equal(*e.DeletedAt()))
}

func TestVideoConvertor_UnknownStatusFallsBackToPending(t *testing.T) {
	e := NewVideoConvertor().ToEntity(&po.Video{VideoUUID: "v1", ProcessingStatus: "weird"})
	assert.Equal(t, vo.StatusPending, e.Status())
	assert.Nil(t, NewVideoConvertor().ToEntity(nil))
}

func TestVideoConvertor_ToPO(t *testing.T) {
	e := entity.NewVideoEntity("v1", "u1", "hi #a #b", "videos/u1/v1", "thumbnails/u1/v1", true, []string{"a", "b"})
	p := NewVideoConvertor().ToPO(e)

	assert.Equal(t, "pending", p.ProcessingStatus)
	assert.Equal(t, "thumbnails/u1/v1", p.ThumbnailPath)
	assert.True(t, p.IsApproved)
	assert.False(t, p.DeletedAt.Valid)
	require.Len(t, p.Hashtags, 2)
	assert.Equal(t, po.VideoHashtag{VideoUUID: "v1", Tag: "b", Position: 1}, p.Hashtags[1])
}

func TestRenditions_ValueAndScan(t *testing.T) {
	var nilRenditions po.Renditions
	v, err := nilRenditions.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var r po.Renditions
	require.NoError(t, r.Scan([]byte(`[{"label":"1080p","locator":"x.mp4"}]`)))
	assert.Equal(t, po.Renditions{{Label: "1080p", Locator: "x.mp4"}}, r)
	assert.Error(t, r.Scan(42))
}

func TestTranscodeJobConvertor(t *testing.T) {
	c := NewTranscodeJobConvertor()
	e := c.ToEntity(&po.TranscodeJob{JobHandle: "h", VideoUUID: "v", ExternalStatus: "STATUS_UPDATE", Progress: 40})
	assert.Equal(t, vo.JobStateProgressing, e.ExternalStatus())
	assert.Equal(t, 40, e.Progress())

	p := c.ToPO(entity.NewTranscodeJobEntity("h2", "v2", time.Now()))
	assert.Equal(t, "SUBMITTED", p.ExternalStatus)
	assert.Nil(t, p.ResolvedAt)
}
