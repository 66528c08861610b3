package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"video-ingest-service/ddd/domain/entity"
	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/repo"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/config"
)

var errBoom = errors.New("boom")

// memStore 同时实现视频与作业仓储，条件更新语义与 gorm 实现一致
type memStore struct {
	mu        sync.Mutex
	videos    map[string]entity.VideoAttrs
	jobs      map[string]*entity.TranscodeJobEntity
	likes     map[string]bool
	createErr error
	findErr   error
	markErr   error
	queries   int
}

func newMemStore() *memStore {
	return &memStore{
		videos: map[string]entity.VideoAttrs{},
		jobs:   map[string]*entity.TranscodeJobEntity{},
		likes:  map[string]bool{},
	}
}

func (m *memStore) put(v *entity.VideoEntity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[v.ID()] = v.Attrs()
}

func (m *memStore) addJob(j *entity.TranscodeJobEntity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[j.Handle()] = j
}

func (m *memStore) attrs(id string) entity.VideoAttrs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.videos[id]
}

func (m *memStore) Create(_ context.Context, v *entity.VideoEntity) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.put(v)
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*entity.VideoEntity, error) {
	v, err := m.FindByIDUnscoped(ctx, id)
	if v == nil || err != nil || v.IsDeleted() {
		return nil, err
	}
	return v, nil
}

func (m *memStore) FindByIDUnscoped(_ context.Context, id string) (*entity.VideoEntity, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.videos[id]
	if !ok {
		return nil, nil
	}
	return entity.RebuildVideoEntity(a), nil
}

func (m *memStore) MarkProcessing(_ context.Context, id string, job *entity.TranscodeJobEntity) (bool, error) {
	if m.markErr != nil {
		return false, m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.videos[id]
	if !ok || a.Status != vo.StatusPending {
		return false, nil
	}
	for _, j := range m.jobs {
		if j.VideoID() == id {
			j.Supersede()
		}
	}
	m.jobs[job.Handle()] = job
	a.Status = vo.StatusProcessing
	a.ActiveJobHandle = job.Handle()
	m.videos[id] = a
	return true, nil
}

func (m *memStore) CompleteTranscode(_ context.Context, id, handle string, renditions []vo.Rendition, duration int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.videos[id]
	if !ok || a.Status != vo.StatusProcessing || a.ActiveJobHandle != handle {
		return false, nil
	}
	a.Status = vo.StatusCompleted
	a.Renditions = append([]vo.Rendition(nil), renditions...)
	a.DurationSeconds = duration
	m.videos[id] = a
	if j, ok := m.jobs[handle]; ok {
		j.Resolve(vo.JobStateComplete, time.Now())
	}
	return true, nil
}

func (m *memStore) FailTranscode(_ context.Context, id, handle string, state vo.JobState, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.videos[id]
	if !ok || a.Status != vo.StatusProcessing || a.ActiveJobHandle != handle {
		return false, nil
	}
	a.Status = vo.StatusFailed
	a.Renditions = nil
	a.DurationSeconds = 0
	a.FailureReason = reason
	m.videos[id] = a
	if j, ok := m.jobs[handle]; ok {
		j.Resolve(state, time.Now())
	}
	return true, nil
}

func (m *memStore) ResetToPending(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.videos[id]
	if !ok || a.Status != vo.StatusFailed {
		return false, nil
	}
	a.Status = vo.StatusPending
	a.ActiveJobHandle = ""
	a.FailureReason = ""
	m.videos[id] = a
	return true, nil
}

func (m *memStore) UpdateDetails(_ context.Context, id string, c *repo.VideoChanges) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.videos[id]
	if c.Caption != nil {
		a.Caption = *c.Caption
		a.Hashtags = c.Hashtags
	}
	if c.IsPrivate != nil {
		a.IsPrivate = *c.IsPrivate
	}
	m.videos[id] = a
	return nil
}

func (m *memStore) SoftDelete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.videos[id]
	if !ok || a.DeletedAt != nil {
		return false, nil
	}
	now := time.Now()
	a.DeletedAt = &now
	m.videos[id] = a
	return true, nil
}

func (m *memStore) AdjustCounter(_ context.Context, id string, counter vo.Counter, delta int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.videos[id]
	if !ok || a.DeletedAt != nil {
		return false, nil
	}
	field := map[vo.Counter]*int64{
		vo.CounterViews:    &a.ViewsCount,
		vo.CounterLikes:    &a.LikesCount,
		vo.CounterComments: &a.CommentsCount,
		vo.CounterShares:   &a.SharesCount,
	}[counter]
	if field == nil {
		return false, fmt.Errorf("unknown counter %s", counter)
	}
	*field += delta
	if *field < 0 {
		*field = 0
	}
	m.videos[id] = a
	return true, nil
}

func (m *memStore) AddLike(ctx context.Context, videoID, userID string) (bool, error) {
	m.mu.Lock()
	key := videoID + "/" + userID
	if m.likes[key] {
		m.mu.Unlock()
		return false, nil
	}
	m.likes[key] = true
	m.mu.Unlock()
	return m.AdjustCounter(ctx, videoID, vo.CounterLikes, 1)
}

func (m *memStore) RemoveLike(ctx context.Context, videoID, userID string) (bool, error) {
	m.mu.Lock()
	key := videoID + "/" + userID
	if !m.likes[key] {
		m.mu.Unlock()
		return false, nil
	}
	delete(m.likes, key)
	m.mu.Unlock()
	return m.AdjustCounter(ctx, videoID, vo.CounterLikes, -1)
}

func (m *memStore) Query(_ context.Context, f vo.FeedFilter, offset, limit int) ([]*entity.VideoEntity, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++

	var matched []entity.VideoAttrs
	for _, a := range m.videos {
		if a.DeletedAt != nil {
			continue
		}
		public := !a.IsPrivate && a.IsApproved && a.Status == vo.StatusCompleted
		switch f.Kind {
		case vo.FeedOwner:
			if a.OwnerID != f.OwnerID || (!f.IncludeHidden && !public) {
				continue
			}
		case vo.FeedHashtag:
			if !public || !contains(a.Hashtags, f.Hashtag) {
				continue
			}
		default:
			if !public {
				continue
			}
		}
		matched = append(matched, a)
	}
	sort.Slice(matched, func(i, j int) bool {
		if f.Kind == vo.FeedTrending {
			if matched[i].ViewsCount != matched[j].ViewsCount {
				return matched[i].ViewsCount > matched[j].ViewsCount
			}
			if matched[i].LikesCount != matched[j].LikesCount {
				return matched[i].LikesCount > matched[j].LikesCount
			}
		}
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	if limit <= 0 || offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	out := make([]*entity.VideoEntity, 0, end-offset)
	for _, a := range matched[offset:end] {
		out = append(out, entity.RebuildVideoEntity(a))
	}
	return out, total, nil
}

func (m *memStore) FindByHandle(_ context.Context, handle string) (*entity.TranscodeJobEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[handle], nil
}

func (m *memStore) RecordProgress(_ context.Context, handle string, state vo.JobState, percent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[handle]; ok {
		j.RecordProgress(state, percent)
	}
	return nil
}

func (m *memStore) ListByVideo(_ context.Context, videoID string) ([]*entity.TranscodeJobEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.TranscodeJobEntity
	for _, j := range m.jobs {
		if j.VideoID() == videoID {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].SubmittedAt().After(out[k].SubmittedAt()) })
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type fakeBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putErr    map[string]error // key 前缀 -> 错误
	deleteErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}, putErr: map[string]error{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	for prefix, err := range f.putErr {
		if strings.HasPrefix(key, prefix) {
			return "", err
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return key, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, locator string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, locator)
	return nil
}

func (f *fakeBlobStore) PublicURL(locator string) string { return "https://cdn.test/" + locator }

func (f *fakeBlobStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type fakeSubmitter struct {
	mu       sync.Mutex
	err      error
	requests []*gateway.JobRequest
}

func (f *fakeSubmitter) Submit(_ context.Context, req *gateway.JobRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.requests = append(f.requests, req)
	return fmt.Sprintf("job-%d", len(f.requests)), nil
}

// fakeCache 以 JSON 序列化存值，与 redis 实现的解码行为一致
type fakeCache struct {
	mu       sync.Mutex
	entries  map[string][]byte
	flushes  int
	flushErr error
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (c *fakeCache) Remember(ctx context.Context, tag, key string, _ time.Duration, dst interface{}, load gateway.LoadFunc) (bool, error) {
	c.mu.Lock()
	raw, ok := c.entries[tag+":"+key]
	c.mu.Unlock()
	if ok {
		return true, json.Unmarshal(raw, dst)
	}
	value, err := load(ctx)
	if err != nil {
		return false, err
	}
	raw, err = json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	c.entries[tag+":"+key] = raw
	c.mu.Unlock()
	return false, json.NewDecoder(bytes.NewReader(raw)).Decode(dst)
}

func (c *fakeCache) Flush(_ context.Context, tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flushErr != nil {
		return c.flushErr
	}
	c.flushes++
	for k := range c.entries {
		if strings.HasPrefix(k, tag+":") {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *fakeCache) flushCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushes
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []vo.VideoEvent
}

func (n *recordingNotifier) Publish(_ context.Context, e vo.VideoEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return nil
}

func (n *recordingNotifier) types() []vo.VideoEventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]vo.VideoEventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeCleanup struct {
	mu       sync.Mutex
	locators []string
}

func (f *fakeCleanup) Schedule(_ context.Context, locators ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locators = append(f.locators, locators...)
	return nil
}

type fakeFollows map[string]bool

func (f fakeFollows) IsFollowing(_ context.Context, follower, followee string) (bool, error) {
	return f[follower+"->"+followee], nil
}

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		MaxVideoBytes:         50 << 20,
		MaxThumbnailBytes:     2 << 20,
		AllowedVideoTypes:     []string{"video/mp4", "video/quicktime"},
		AllowedThumbnailTypes: []string{"image/jpeg", "image/png"},
		ThumbnailMinWidth:     640,
		ThumbnailMinHeight:    1138,
		EnforceThumbnailRatio: true,
		MaxDurationSeconds:    60,
		MaxCaptionLength:      255,
		MaxHashtags:           10,
		MaxHashtagLength:      100,
	}
}

var testPresets = []vo.OutputPreset{
	{Label: "1080p", Preset: "System-Generic_Hd_Mp4_Avc_Aac_16x9_1920x1080p_24Hz_6Mbps", NameModifier: "_1080p", Extension: "mp4"},
	{Label: "720p", Preset: "System-Generic_Hd_Mp4_Avc_Aac_16x9_1280x720p_24Hz_4.5Mbps", NameModifier: "_720p", Extension: "mp4"},
}
