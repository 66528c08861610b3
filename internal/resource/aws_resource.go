package resource

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
)

var (
	awsResourceOnce sync.Once
	awsSingleton    *AWSResource
)

// AWSResource 持有 S3、MediaConvert、SQS 客户端，共用一份凭证
type AWSResource struct {
	s3           *s3.Client
	mediaConvert *mediaconvert.Client
	sqs          *sqs.Client
}

// DefaultAWSResource 获取AWS资源单例
func DefaultAWSResource() *AWSResource {
	assert.NotCircular()
	awsResourceOnce.Do(func() {
		awsSingleton = &AWSResource{}
	})
	assert.NotNil(awsSingleton)
	return awsSingleton
}

// MustOpen 加载凭证并创建客户端。未配置静态密钥时走默认凭证链
func (r *AWSResource) MustOpen() {
	if r.s3 != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before AWSResource")
	}
	awsCfg := cfg.AWS

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(awsCfg.Region)}
	if awsCfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(awsCfg.AccessKeyID, awsCfg.SecretAccessKey, ""),
		))
	}
	sdkCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		panic("failed to load aws config: " + err.Error())
	}

	r.s3 = s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if awsCfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(awsCfg.S3Endpoint)
		}
		o.UsePathStyle = awsCfg.S3UsePathStyle
	})
	r.mediaConvert = mediaconvert.NewFromConfig(sdkCfg, func(o *mediaconvert.Options) {
		if awsCfg.MediaConvert.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsCfg.MediaConvert.Endpoint)
		}
	})
	r.sqs = sqs.NewFromConfig(sdkCfg)

	logger.Info("AWS resource initialized", map[string]interface{}{
		"region":      awsCfg.Region,
		"s3_endpoint": awsCfg.S3Endpoint,
		"sqs_enabled": awsCfg.SQS.Enabled,
	})
}

func (r *AWSResource) S3() *s3.Client { return r.s3 }

func (r *AWSResource) MediaConvert() *mediaconvert.Client { return r.mediaConvert }

func (r *AWSResource) SQS() *sqs.Client { return r.sqs }

// Close aws sdk 客户端无需关闭
func (r *AWSResource) Close() {}

// AWSResourcePlugin AWS资源插件
type AWSResourcePlugin struct{}

func (p *AWSResourcePlugin) Name() string {
	return "awsResource"
}

func (p *AWSResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultAWSResource()
}
