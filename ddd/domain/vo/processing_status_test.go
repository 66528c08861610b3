package vo

import (
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestProcessingStatusTransitions(t *testing.T) {
	allowed := map[ProcessingStatus][]ProcessingStatus{
		StatusPending:    {StatusProcessing},
		StatusProcessing: {StatusCompleted, StatusFailed},
		StatusCompleted:  {},
		StatusFailed:     {StatusPending},
	}
	for from, targets := range allowed {
		for _, to := range AllProcessingStatuses() {
			want := false
			for _, tgt := range targets {
				if tgt == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestNewProcessingStatusFromString(t *testing.T) {
	st, err := NewProcessingStatusFromString("processing")
	assert.NoError(t, err)
	assert.Equal(t, StatusProcessing, st)

	_, err = NewProcessingStatusFromString("published")
	assert.Error(t, err)
}

// 任意一串转移请求，只应用合法转移后，观测到的状态序列在每次重试之间
// 都是 pending, processing, {completed|failed} 的前缀
func TestProperty_StatusSequenceIsMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	statusGen := gen.OneConstOf(StatusPending, StatusProcessing, StatusCompleted, StatusFailed)

	properties.Property("applied transitions follow the lifecycle", prop.ForAll(
		func(requests []ProcessingStatus) bool {
			current := StatusPending
			observed := []ProcessingStatus{current}
			for _, next := range requests {
				if current.CanTransitionTo(next) {
					current = next
					observed = append(observed, current)
				}
			}
			for i := 1; i < len(observed); i++ {
				prev, cur := observed[i-1], observed[i]
				switch cur {
				case StatusProcessing:
					if prev != StatusPending {
						return false
					}
				case StatusCompleted, StatusFailed:
					if prev != StatusProcessing {
						return false
					}
				case StatusPending:
					if prev != StatusFailed {
						return false
					}
				}
			}
			// completed 之后不会再出现任何状态
			for i, st := range observed {
				if st == StatusCompleted && i != len(observed)-1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(statusGen, reflect.TypeOf(StatusPending)),
	))

	properties.TestingRun(t)
}

func TestParseJobState(t *testing.T) {
	cases := map[string]JobState{
		"COMPLETE":      JobStateComplete,
		"error":         JobStateError,
		"CANCELED":      JobStateCanceled,
		"STATUS_UPDATE": JobStateProgressing,
		"PROGRESSING":   JobStateProgressing,
		"SUBMITTED":     JobStateSubmitted,
	}
	for in, want := range cases {
		got, ok := ParseJobState(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseJobState("EXPLODED")
	assert.False(t, ok)

	assert.True(t, JobStateError.IsTerminal())
	assert.False(t, JobStateProgressing.IsTerminal())
	assert.True(t, JobStateComplete.IsSuccess())
}

func TestMatchesRatio(t *testing.T) {
	assert.True(t, MatchesRatio(1080, 1920, PortraitRatio))
	assert.True(t, MatchesRatio(640, 1138, PortraitRatio))
	assert.False(t, MatchesRatio(1920, 1080, PortraitRatio))
	assert.False(t, MatchesRatio(640, 640, PortraitRatio))
	assert.False(t, MatchesRatio(0, 1920, PortraitRatio))
}

func TestFeedFilterCacheKeys(t *testing.T) {
	assert.Equal(t, "videos_page_2", LatestFeed().CacheKey(2))
	assert.Equal(t, "videos_trending_page_1", TrendingFeed().CacheKey(1))
	assert.Equal(t, "videos_hashtag_nyc_page_3", HashtagFeed("#NYC").CacheKey(3))
	assert.Equal(t, "videos_owner_u1_all_page_1", OwnerFeed("u1", "u1").CacheKey(1))
	assert.Equal(t, "videos_owner_u1_public_page_1", OwnerFeed("u1", "u2").CacheKey(1))
	assert.Error(t, HashtagFeed("bad tag").Validate())
}

func TestNewPageMeta(t *testing.T) {
	assert.Equal(t, PageMeta{CurrentPage: 1, TotalPages: 3, PerPage: 15, Total: 31}, NewPageMeta(1, 15, 31))
	assert.Equal(t, 0, NewPageMeta(1, 15, 0).TotalPages)
}

func TestLabelForPath(t *testing.T) {
	presets := []OutputPreset{{Label: "1080p", NameModifier: "_1080p"}, {Label: "720p", NameModifier: "_720p"}}
	assert.Equal(t, "720p", LabelForPath(presets, "s3://b/processed/videos/v1/clip_720p.mp4"))
	assert.Equal(t, "1080p", LabelForPath(presets, "processed/videos/v1/clip_1080p.mp4"))
	assert.Equal(t, "clip", LabelForPath(presets, "processed/videos/v1/clip.mp4"))
}
