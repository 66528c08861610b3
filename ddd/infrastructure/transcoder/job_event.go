package transcoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"video-ingest-service/ddd/domain/vo"
)

// ErrUndecodableEvent 无法解析的状态消息，轮询端按毒消息删除
var ErrUndecodableEvent = errors.New("undecodable job event")

// jobStateChange EventBridge "MediaConvert Job State Change" 信封
type jobStateChange struct {
	DetailType string          `json:"detail-type"`
	Source     string          `json:"source"`
	Detail     json.RawMessage `json:"detail"`
}

type jobDetail struct {
	JobID        string            `json:"jobId"`
	Status       string            `json:"status"`
	UserMetadata map[string]string `json:"userMetadata"`
	ErrorCode    int               `json:"errorCode"`
	ErrorMessage string            `json:"errorMessage"`
	JobProgress  *struct {
		JobPercentComplete int `json:"jobPercentComplete"`
	} `json:"jobProgress"`
	OutputGroupDetails []struct {
		OutputDetails []struct {
			OutputFilePaths []string `json:"outputFilePaths"`
			DurationInMs    int64    `json:"durationInMs"`
			VideoDetails    *struct {
				WidthInPx  int `json:"widthInPx"`
				HeightInPx int `json:"heightInPx"`
			} `json:"videoDetails"`
		} `json:"outputDetails"`
	} `json:"outputGroupDetails"`
}

// EventDecoder 把状态事件解码为 JobUpdate，输出路径还原为桶内 key
type EventDecoder struct {
	bucket  string
	presets []vo.OutputPreset
}

func NewEventDecoder(bucket string, presets []vo.OutputPreset) *EventDecoder {
	return &EventDecoder{bucket: bucket, presets: presets}
}

// Decode 同时接受 EventBridge 信封和裸 detail
func (d *EventDecoder) Decode(payload []byte) (*vo.JobUpdate, error) {
	var env jobStateChange
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableEvent, err)
	}
	raw := payload
	if len(env.Detail) > 0 {
		raw = env.Detail
	}

	var detail jobDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableEvent, err)
	}
	if detail.JobID == "" {
		return nil, fmt.Errorf("%w: missing jobId", ErrUndecodableEvent)
	}
	state, ok := vo.ParseJobState(detail.Status)
	if !ok {
		return nil, fmt.Errorf("%w: unknown status %q", ErrUndecodableEvent, detail.Status)
	}

	update := &vo.JobUpdate{
		Handle:       detail.JobID,
		State:        state,
		VideoID:      detail.UserMetadata["video_id"],
		ErrorMessage: detail.ErrorMessage,
	}
	if update.ErrorMessage == "" && detail.ErrorCode != 0 {
		update.ErrorMessage = fmt.Sprintf("mediaconvert error %d", detail.ErrorCode)
	}
	if detail.JobProgress != nil {
		update.Percent = detail.JobProgress.JobPercentComplete
	}

	var maxMs int64
	for _, group := range detail.OutputGroupDetails {
		for _, out := range group.OutputDetails {
			if out.DurationInMs > maxMs {
				maxMs = out.DurationInMs
			}
			if out.VideoDetails != nil && update.Width == 0 {
				update.Width = out.VideoDetails.WidthInPx
				update.Height = out.VideoDetails.HeightInPx
			}
			for _, p := range out.OutputFilePaths {
				locator := d.stripBucket(p)
				if locator == "" {
					continue
				}
				update.Outputs = append(update.Outputs, vo.Rendition{
					Label:   vo.LabelForPath(d.presets, locator),
					Locator: locator,
				})
			}
		}
	}
	update.DurationSeconds = int(math.Round(float64(maxMs) / 1000))
	return update, nil
}

func (d *EventDecoder) stripBucket(p string) string {
	p = strings.TrimPrefix(p, "s3://")
	if d.bucket != "" {
		p = strings.TrimPrefix(p, d.bucket+"/")
	}
	return strings.TrimLeft(p, "/")
}
