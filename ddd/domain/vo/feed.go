package vo

import (
	"fmt"
	"time"
)

// CacheTagVideos 所有视频列表缓存共用的标签
const CacheTagVideos = "videos"

// FeedKind 列表查询形态
type FeedKind string

const (
	FeedLatest   FeedKind = "latest"
	FeedTrending FeedKind = "trending"
	FeedHashtag  FeedKind = "hashtag"
	FeedOwner    FeedKind = "owner"
)

// FeedFilter 列表过滤条件
type FeedFilter struct {
	Kind    FeedKind
	Hashtag string
	OwnerID string
	// IncludeHidden 所有者查看自己的列表时包含私密与未完成视频
	IncludeHidden bool
}

func LatestFeed() FeedFilter { return FeedFilter{Kind: FeedLatest} }

func TrendingFeed() FeedFilter { return FeedFilter{Kind: FeedTrending} }

func HashtagFeed(tag string) FeedFilter {
	return FeedFilter{Kind: FeedHashtag, Hashtag: NormalizeHashtag(tag)}
}

// OwnerFeed viewerID 与 ownerID 相同时包含隐藏视频
func OwnerFeed(ownerID, viewerID string) FeedFilter {
	return FeedFilter{Kind: FeedOwner, OwnerID: ownerID, IncludeHidden: ownerID != "" && ownerID == viewerID}
}

// Validate 校验过滤条件
func (f FeedFilter) Validate() error {
	switch f.Kind {
	case FeedLatest, FeedTrending:
		return nil
	case FeedHashtag:
		if f.Hashtag == "" {
			return fmt.Errorf("hashtag is required")
		}
		return nil
	case FeedOwner:
		if f.OwnerID == "" {
			return fmt.Errorf("owner id is required")
		}
		return nil
	default:
		return fmt.Errorf("unknown feed kind %q", f.Kind)
	}
}

// CacheKey 缓存键，最新列表沿用 videos_page_<n>
func (f FeedFilter) CacheKey(page int) string {
	switch f.Kind {
	case FeedTrending:
		return fmt.Sprintf("videos_trending_page_%d", page)
	case FeedHashtag:
		return fmt.Sprintf("videos_hashtag_%s_page_%d", f.Hashtag, page)
	case FeedOwner:
		scope := "public"
		if f.IncludeHidden {
			scope = "all"
		}
		return fmt.Sprintf("videos_owner_%s_%s_page_%d", f.OwnerID, scope, page)
	default:
		return fmt.Sprintf("videos_page_%d", page)
	}
}

// RenditionURL 对外可访问的清晰度
type RenditionURL struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// VideoSummary 列表项，可直接 JSON 缓存
type VideoSummary struct {
	ID               string         `json:"id"`
	OwnerID          string         `json:"owner_id"`
	Caption          string         `json:"caption"`
	ThumbnailURL     string         `json:"thumbnail_url,omitempty"`
	Renditions       []RenditionURL `json:"renditions"`
	DurationSeconds  int            `json:"duration"`
	IsPrivate        bool           `json:"is_private"`
	ProcessingStatus string         `json:"processing_status"`
	ViewsCount       int64          `json:"views_count"`
	LikesCount       int64          `json:"likes_count"`
	CommentsCount    int64          `json:"comments_count"`
	SharesCount      int64          `json:"shares_count"`
	Hashtags         []string       `json:"hashtags"`
	CreatedAt        time.Time      `json:"created_at"`
}

// PageMeta 分页信息
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// NewPageMeta 计算总页数
func NewPageMeta(page, perPage int, total int64) PageMeta {
	pages := 0
	if perPage > 0 && total > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return PageMeta{CurrentPage: page, TotalPages: pages, PerPage: perPage, Total: total}
}

// VideoPage 一页视频
type VideoPage struct {
	Items []VideoSummary `json:"items"`
	Meta  PageMeta       `json:"meta"`
}
