package transcoder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert/types"

	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/internal/resource"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/metrics"
)

const (
	outputGroupName = "File Group"
	audioSelector   = "Audio Selector 1"
)

// createJobAPI mediaconvert.Client 中用到的方法
type createJobAPI interface {
	CreateJob(ctx context.Context, params *mediaconvert.CreateJobInput, optFns ...func(*mediaconvert.Options)) (*mediaconvert.CreateJobOutput, error)
}

// MediaConvertSubmitter 向 MediaConvert 提交转码作业，不做重试
type MediaConvertSubmitter struct {
	client createJobAPI
	bucket string
	queue  string
	role   string
}

var (
	submitterOnce    sync.Once
	defaultSubmitter gateway.JobSubmitter
)

// DefaultJobSubmitter 全局作业提交器
func DefaultJobSubmitter() gateway.JobSubmitter {
	assert.NotCircular()
	submitterOnce.Do(func() {
		cfg := config.GetGlobalConfig()
		if cfg == nil {
			panic("global config not initialized before job submitter")
		}
		defaultSubmitter = NewMediaConvertSubmitter(
			resource.DefaultAWSResource().MediaConvert(),
			cfg.Storage.Bucket,
			cfg.AWS.MediaConvert.Queue,
			cfg.AWS.MediaConvert.Role,
		)
	})
	assert.NotNil(defaultSubmitter)
	return defaultSubmitter
}

func NewMediaConvertSubmitter(client createJobAPI, bucket, queue, role string) *MediaConvertSubmitter {
	return &MediaConvertSubmitter{client: client, bucket: bucket, queue: queue, role: role}
}

// Submit 创建作业并返回作业 ID
func (s *MediaConvertSubmitter) Submit(ctx context.Context, req *gateway.JobRequest) (string, error) {
	if req == nil || req.InputLocator == "" {
		return "", errors.New("input locator is required")
	}
	if len(req.Presets) == 0 {
		return "", errors.New("at least one output preset is required")
	}

	start := time.Now()
	out, err := s.client.CreateJob(ctx, s.buildInput(req))
	metrics.SubmitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("MediaConvert job creation failed", map[string]interface{}{
			"input":    req.InputLocator,
			"video_id": req.Metadata["video_id"],
			"error":    err.Error(),
		})
		return "", fmt.Errorf("create mediaconvert job: %w", err)
	}
	if out == nil || out.Job == nil || aws.ToString(out.Job.Id) == "" {
		return "", errors.New("mediaconvert returned no job id")
	}

	jobID := aws.ToString(out.Job.Id)
	logger.Info("MediaConvert job created", map[string]interface{}{
		"job_id":   jobID,
		"video_id": req.Metadata["video_id"],
	})
	return jobID, nil
}

func (s *MediaConvertSubmitter) buildInput(req *gateway.JobRequest) *mediaconvert.CreateJobInput {
	outputs := make([]types.Output, 0, len(req.Presets))
	for _, p := range req.Presets {
		o := types.Output{Preset: aws.String(p.Preset)}
		if p.NameModifier != "" {
			o.NameModifier = aws.String(p.NameModifier)
		}
		if p.Extension != "" {
			o.Extension = aws.String(p.Extension)
		}
		outputs = append(outputs, o)
	}

	input := &mediaconvert.CreateJobInput{
		Role:         aws.String(s.role),
		UserMetadata: req.Metadata,
		Settings: &types.JobSettings{
			Inputs: []types.Input{{
				FileInput: aws.String(s.s3URI(req.InputLocator)),
				AudioSelectors: map[string]types.AudioSelector{
					audioSelector: {DefaultSelection: types.AudioDefaultSelectionDefault},
				},
				VideoSelector: &types.VideoSelector{ColorSpace: types.ColorSpaceFollow},
			}},
			OutputGroups: []types.OutputGroup{{
				Name:    aws.String(outputGroupName),
				Outputs: outputs,
				OutputGroupSettings: &types.OutputGroupSettings{
					Type: types.OutputGroupTypeFileGroupSettings,
					FileGroupSettings: &types.FileGroupSettings{
						Destination: aws.String(s.s3URI(req.DestinationPrefix)),
					},
				},
			}},
		},
	}
	if s.queue != "" {
		input.Queue = aws.String(s.queue)
	}
	return input
}

func (s *MediaConvertSubmitter) s3URI(key string) string {
	if strings.HasPrefix(key, "s3://") {
		return key
	}
	return "s3://" + s.bucket + "/" + strings.TrimLeft(key, "/")
}

// PresetsFromConfig 配置中的输出规格转为领域值对象
func PresetsFromConfig(cfgs []config.OutputPresetConfig) []vo.OutputPreset {
	out := make([]vo.OutputPreset, 0, len(cfgs))
	for _, c := range cfgs {
		out = append(out, vo.OutputPreset{
			Label:        c.Label,
			Preset:       c.Preset,
			NameModifier: c.NameModifier,
			Extension:    c.Extension,
		})
	}
	return out
}
