package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	JWT             JWTConfig             `mapstructure:"jwt"`
	Log             LogConfig             `mapstructure:"log"`
	Minio           MinioConfig           `mapstructure:"minio"`
	Storage         StorageConfig         `mapstructure:"storage"`
	AWS             AWSConfig             `mapstructure:"aws"`
	Ingest          IngestConfig          `mapstructure:"ingest"`
	Cleanup         CleanupConfig         `mapstructure:"cleanup"`
	Feed            FeedConfig            `mapstructure:"feed"`
	Webhook         WebhookConfig         `mapstructure:"webhook"`
	RateLimit       RateLimitConfig       `mapstructure:"rate_limit"`
	Etcd            EtcdConfig            `mapstructure:"etcd"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	GRPCServer      GRPCServerConfig      `mapstructure:"grpc_server"`
	Public          PublicConfig          `mapstructure:"public"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxMultipartMemory 上传表单在内存中保留的最大字节数，超出部分落盘
	MaxMultipartMemory int64 `mapstructure:"max_multipart_memory"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	ParseTime       bool          `mapstructure:"parse_time"`
	Loc             string        `mapstructure:"loc"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	BootstrapServers []string          `mapstructure:"bootstrap_servers"`
	ClientID         string            `mapstructure:"client_id"`
	GroupID          string            `mapstructure:"group_id"`
	Enabled          bool              `mapstructure:"enabled"`
	Topics           KafkaTopicsConfig `mapstructure:"topics"`
}

type KafkaTopicsConfig struct {
	// VideoEvents 对外广播视频生命周期事件
	VideoEvents string `mapstructure:"video_events"`
	// Interactions 协作方投递的计数事件（评论/播放/分享）
	Interactions string `mapstructure:"interactions"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// StorageConfig 对象存储选择
type StorageConfig struct {
	Driver string `mapstructure:"driver"` // minio | s3
	Bucket string `mapstructure:"bucket"`
}

// AWSConfig AWS 相关配置
type AWSConfig struct {
	Region          string             `mapstructure:"region"`
	AccessKeyID     string             `mapstructure:"access_key_id"`
	SecretAccessKey string             `mapstructure:"secret_access_key"`
	S3Endpoint      string             `mapstructure:"s3_endpoint"`
	S3UsePathStyle  bool               `mapstructure:"s3_use_path_style"`
	MediaConvert    MediaConvertConfig `mapstructure:"mediaconvert"`
	SQS             SQSConfig          `mapstructure:"sqs"`
}

// MediaConvertConfig 转码作业提交配置
type MediaConvertConfig struct {
	Endpoint      string               `mapstructure:"endpoint"`
	Queue         string               `mapstructure:"queue"`
	Role          string               `mapstructure:"role"`
	SubmitTimeout time.Duration        `mapstructure:"submit_timeout"`
	Presets       []OutputPresetConfig `mapstructure:"presets"`
}

// OutputPresetConfig 单个输出规格
type OutputPresetConfig struct {
	Label        string `mapstructure:"label"`
	Preset       string `mapstructure:"preset"`
	NameModifier string `mapstructure:"name_modifier"`
	Extension    string `mapstructure:"extension"`
}

// SQSConfig 作业状态事件队列
type SQSConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	QueueURL          string        `mapstructure:"queue_url"`
	WaitTimeSeconds   int32         `mapstructure:"wait_time_seconds"`
	MaxMessages       int32         `mapstructure:"max_messages"`
	VisibilityTimeout int32         `mapstructure:"visibility_timeout"`
	ErrorBackoff      time.Duration `mapstructure:"error_backoff"`
}

// IngestConfig 上传校验策略
type IngestConfig struct {
	MaxVideoBytes         int64    `mapstructure:"max_video_bytes"`
	MaxThumbnailBytes     int64    `mapstructure:"max_thumbnail_bytes"`
	AllowedVideoTypes     []string `mapstructure:"allowed_video_types"`
	AllowedThumbnailTypes []string `mapstructure:"allowed_thumbnail_types"`
	ThumbnailMinWidth     int      `mapstructure:"thumbnail_min_width"`
	ThumbnailMinHeight    int      `mapstructure:"thumbnail_min_height"`
	EnforceThumbnailRatio bool     `mapstructure:"enforce_thumbnail_ratio"`
	EnforceOutputRatio    bool     `mapstructure:"enforce_output_ratio"`
	MaxDurationSeconds    int      `mapstructure:"max_duration_seconds"`
	MaxCaptionLength      int      `mapstructure:"max_caption_length"`
	MaxHashtags           int      `mapstructure:"max_hashtags"`
	MaxHashtagLength      int      `mapstructure:"max_hashtag_length"` // 与 video_hashtags.tag 列宽一致
}

// CleanupConfig 对象清理后台任务
type CleanupConfig struct {
	Workers       int           `mapstructure:"workers"`
	QueueCapacity int           `mapstructure:"queue_capacity"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// FeedConfig 信息流缓存
type FeedConfig struct {
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	PageSize      int           `mapstructure:"page_size"`
	TrendingLimit int           `mapstructure:"trending_limit"`
}

// WebhookConfig 内部回调鉴权
type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
	Header string `mapstructure:"header"`
}

// RateLimitConfig 写接口限流
type RateLimitConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	PerMinute int  `mapstructure:"per_minute"`
}

// EtcdConfig etcd 连接配置
type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// GRPCServerConfig gRPC server configuration.
type GRPCServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// PublicConfig 对外访问配置
type PublicConfig struct {
	StorageBase string `mapstructure:"storage_base"`
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	// 设置环境变量前缀
	v.SetEnvPrefix("GO_VIDEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8083)
	v.SetDefault("server.mode", "release")
	v.SetDefault("service_registry.enabled", false)
	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.client_id", "video-ingest-service")
	v.SetDefault("kafka.group_id", "video-ingest-service-group")
	v.SetDefault("kafka.bootstrap_servers", []string{"localhost:29092"})
	v.SetDefault("kafka.topics.video_events", "video.events")
	v.SetDefault("kafka.topics.interactions", "video.interactions")

	v.SetDefault("storage.driver", "minio")
	v.SetDefault("aws.sqs.wait_time_seconds", 20)
	v.SetDefault("aws.sqs.max_messages", 10)

	// 与原上传表单规则保持一致
	v.SetDefault("ingest.max_video_bytes", 50<<20)
	v.SetDefault("ingest.max_thumbnail_bytes", 2<<20)
	v.SetDefault("ingest.allowed_video_types", []string{"video/mp4", "video/quicktime"})
	v.SetDefault("ingest.allowed_thumbnail_types", []string{"image/jpeg", "image/png"})
	v.SetDefault("ingest.thumbnail_min_width", 640)
	v.SetDefault("ingest.thumbnail_min_height", 1138)
	v.SetDefault("ingest.enforce_thumbnail_ratio", true)
	v.SetDefault("ingest.enforce_output_ratio", false)
	v.SetDefault("ingest.max_duration_seconds", 60)
	v.SetDefault("ingest.max_caption_length", 255)
	v.SetDefault("ingest.max_hashtags", 10)
	v.SetDefault("ingest.max_hashtag_length", 100)

	v.SetDefault("feed.cache_ttl", time.Hour)
	v.SetDefault("feed.page_size", 15)
	v.SetDefault("feed.trending_limit", 50)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.per_minute", 60)
	v.SetDefault("webhook.header", "X-Webhook-Secret")
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	// 兼容不同的密钥字段
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = "minio"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8083
	}
	if c.Server.MaxMultipartMemory <= 0 {
		c.Server.MaxMultipartMemory = 8 << 20
	}

	if len(c.AWS.MediaConvert.Presets) == 0 {
		c.AWS.MediaConvert.Presets = []OutputPresetConfig{
			{Label: "1080p", Preset: "System-Generic_Hd_Mp4_Avc_Aac_16x9_1920x1080p_24Hz_6Mbps", NameModifier: "_1080p", Extension: "mp4"},
			{Label: "720p", Preset: "System-Generic_Hd_Mp4_Avc_Aac_16x9_1280x720p_24Hz_4.5Mbps", NameModifier: "_720p", Extension: "mp4"},
		}
	}
	if c.AWS.MediaConvert.SubmitTimeout <= 0 {
		c.AWS.MediaConvert.SubmitTimeout = 15 * time.Second
	}
	if c.AWS.SQS.WaitTimeSeconds <= 0 || c.AWS.SQS.WaitTimeSeconds > 20 {
		c.AWS.SQS.WaitTimeSeconds = 20
	}
	if c.AWS.SQS.MaxMessages <= 0 || c.AWS.SQS.MaxMessages > 10 {
		c.AWS.SQS.MaxMessages = 10
	}
	if c.AWS.SQS.ErrorBackoff <= 0 {
		c.AWS.SQS.ErrorBackoff = 5 * time.Second
	}

	if c.Ingest.MaxHashtags <= 0 {
		c.Ingest.MaxHashtags = 10
	}
	if c.Ingest.MaxCaptionLength <= 0 {
		c.Ingest.MaxCaptionLength = 255
	}
	if c.Ingest.MaxHashtagLength <= 0 {
		c.Ingest.MaxHashtagLength = 100
	}

	// 清理任务默认值
	if c.Cleanup.Workers <= 0 {
		c.Cleanup.Workers = 2
	}
	if c.Cleanup.QueueCapacity <= 0 {
		c.Cleanup.QueueCapacity = c.Cleanup.Workers * 50
	}
	if c.Cleanup.MaxAttempts <= 0 {
		c.Cleanup.MaxAttempts = 3
	}
	if c.Cleanup.RetryDelay <= 0 {
		c.Cleanup.RetryDelay = 2 * time.Second
	}

	if c.Feed.PageSize <= 0 {
		c.Feed.PageSize = 15
	}
	if c.Feed.TrendingLimit <= 0 {
		c.Feed.TrendingLimit = 50
	}
	if c.Feed.CacheTTL <= 0 {
		c.Feed.CacheTTL = time.Hour
	}
	if c.Webhook.Header == "" {
		c.Webhook.Header = "X-Webhook-Secret"
	}
	if c.RateLimit.PerMinute <= 0 {
		c.RateLimit.PerMinute = 60
	}

	if c.GRPCServer.Host == "" {
		c.GRPCServer.Host = "0.0.0.0"
	}
	if c.GRPCServer.Port == 0 {
		c.GRPCServer.Port = 9092
	}
	if c.Etcd.DialTimeout <= 0 {
		c.Etcd.DialTimeout = 5 * time.Second
	}
	if c.ServiceRegistry.ServiceName == "" {
		c.ServiceRegistry.ServiceName = "video-ingest-service"
	}
	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}
	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "video-ingest-service"
	}
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
