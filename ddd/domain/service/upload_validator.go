package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"video-ingest-service/ddd/domain/vo"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/errno"
)

// 内容嗅探读取的字节数
const sniffLen = 3072

// UploadFile 上传的文件
type UploadFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ValidatedBlob 通过校验、可以写入对象存储的内容
type ValidatedBlob struct {
	Body        io.Reader
	Size        int64
	ContentType string
	Width       int // 仅图片
	Height      int // 仅图片
}

// UploadValidator 上传校验，所有检查都在任何持久化之前完成
type UploadValidator struct {
	cfg config.IngestConfig
}

// NewUploadValidator 创建上传校验器
func NewUploadValidator(cfg config.IngestConfig) *UploadValidator {
	return &UploadValidator{cfg: cfg}
}

// ValidateVideo 大小上限与视频类型检查。视频以流方式返回，不整体读入内存。
func (v *UploadValidator) ValidateVideo(f *UploadFile) (*ValidatedBlob, error) {
	if f == nil || f.Content == nil || f.Size <= 0 {
		return nil, errno.NewBizError(errno.ErrVideoFileRequired, nil)
	}
	if v.cfg.MaxVideoBytes > 0 && f.Size > v.cfg.MaxVideoBytes {
		return nil, errno.Errorf(errno.ErrVideoTooLarge, "%d bytes exceeds %d", f.Size, v.cfg.MaxVideoBytes)
	}

	head, err := readHead(f.Content)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrInvalidParam, err)
	}
	mt := mimetype.Detect(head)
	if !matchesAny(mt, v.cfg.AllowedVideoTypes) {
		return nil, errno.Errorf(errno.ErrVideoTypeNotAllowed, "detected %s", mt.String())
	}

	return &ValidatedBlob{
		Body:        io.MultiReader(bytes.NewReader(head), f.Content),
		Size:        f.Size,
		ContentType: baseType(mt),
	}, nil
}

// ValidateThumbnail 封面：大小、图片类型、最小尺寸与 9:16 比例
func (v *UploadValidator) ValidateThumbnail(f *UploadFile) (*ValidatedBlob, error) {
	if f == nil || f.Content == nil {
		return nil, nil
	}
	if v.cfg.MaxThumbnailBytes > 0 && f.Size > v.cfg.MaxThumbnailBytes {
		return nil, errno.Errorf(errno.ErrThumbnailTooLarge, "%d bytes exceeds %d", f.Size, v.cfg.MaxThumbnailBytes)
	}

	// 封面较小，整体读入；声明的大小不可信，多读一个字节判断是否超限
	limit := v.cfg.MaxThumbnailBytes
	if limit <= 0 {
		limit = f.Size
	}
	data, err := io.ReadAll(io.LimitReader(f.Content, limit+1))
	if err != nil {
		return nil, errno.NewBizError(errno.ErrInvalidParam, err)
	}
	if int64(len(data)) > limit {
		return nil, errno.Errorf(errno.ErrThumbnailTooLarge, "body exceeds %d bytes", limit)
	}

	mt := mimetype.Detect(data)
	if !matchesAny(mt, v.cfg.AllowedThumbnailTypes) {
		return nil, errno.Errorf(errno.ErrThumbnailTypeNotAllowed, "detected %s", mt.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errno.NewBizError(errno.ErrThumbnailTypeNotAllowed, err)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < v.cfg.ThumbnailMinWidth || height < v.cfg.ThumbnailMinHeight {
		return nil, errno.Errorf(errno.ErrThumbnailDimensions, "%dx%d is below %dx%d",
			width, height, v.cfg.ThumbnailMinWidth, v.cfg.ThumbnailMinHeight)
	}
	if v.cfg.EnforceThumbnailRatio && !vo.MatchesRatio(width, height, vo.PortraitRatio) {
		return nil, errno.Errorf(errno.ErrThumbnailAspectRatio, "%dx%d", width, height)
	}

	return &ValidatedBlob{
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: baseType(mt),
		Width:       width,
		Height:      height,
	}, nil
}

// ValidateCaption 长度按字符计算，返回去掉首尾空白的文案与提取的话题。
// 超过 MaxHashtagLength 的话题直接拒绝，不截断
func (v *UploadValidator) ValidateCaption(caption string) (string, []string, error) {
	caption = strings.TrimSpace(caption)
	if v.cfg.MaxCaptionLength > 0 && utf8.RuneCountInString(caption) > v.cfg.MaxCaptionLength {
		return "", nil, errno.Errorf(errno.ErrCaptionTooLong, "max %d characters", v.cfg.MaxCaptionLength)
	}
	tags := vo.ExtractHashtags(caption, v.cfg.MaxHashtags)
	if v.cfg.MaxHashtagLength > 0 {
		for _, tag := range tags {
			if utf8.RuneCountInString(tag) > v.cfg.MaxHashtagLength {
				return "", nil, errno.Errorf(errno.ErrHashtagTooLong, "max %d characters", v.cfg.MaxHashtagLength)
			}
		}
	}
	return caption, tags, nil
}

// Policy 当前生效的校验配置
func (v *UploadValidator) Policy() config.IngestConfig { return v.cfg }

func readHead(r io.Reader) ([]byte, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read upload head: %w", err)
	}
	return head[:n], nil
}

func matchesAny(mt *mimetype.MIME, allowed []string) bool {
	for _, a := range allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

func baseType(mt *mimetype.MIME) string {
	if i := strings.IndexByte(mt.String(), ';'); i >= 0 {
		return mt.String()[:i]
	}
	return mt.String()
}
