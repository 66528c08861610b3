package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"video-ingest-service/pkg/config"
)

// Logger 日志服务，封装 logrus 与文件滚动
type Logger struct {
	entry  *logrus.Logger
	closer io.Closer
}

var (
	globalMu     sync.RWMutex
	globalLogger = &Logger{entry: logrus.StandardLogger()}
)

// NewLogger 根据配置创建日志服务
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()
	if cfg == nil {
		return &Logger{entry: l}
	}
	logCfg := cfg.Log

	level, err := logrus.ParseLevel(strings.ToLower(logCfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(logCfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	svc := &Logger{entry: l}
	switch strings.ToLower(logCfg.Output) {
	case "file", "both":
		filename := logCfg.Filename
		if filename == "" {
			filename = "logs/video-ingest-service.log"
		}
		rotator := &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    logCfg.MaxSize,
			MaxAge:     logCfg.MaxAge,
			MaxBackups: logCfg.MaxBackups,
			Compress:   logCfg.Compress,
		}
		svc.closer = rotator
		if strings.EqualFold(logCfg.Output, "both") {
			l.SetOutput(io.MultiWriter(os.Stdout, rotator))
		} else {
			l.SetOutput(rotator)
		}
	default:
		l.SetOutput(os.Stdout)
	}
	return svc
}

// Close 关闭文件输出
func (l *Logger) Close() {
	if l != nil && l.closer != nil {
		_ = l.closer.Close()
	}
}

// SetGlobalLogger 替换全局日志器
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

func current() *logrus.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger.entry
}

func withFields(fields []map[string]interface{}) *logrus.Entry {
	entry := logrus.NewEntry(current())
	for _, f := range fields {
		if len(f) > 0 {
			entry = entry.WithFields(logrus.Fields(f))
		}
	}
	return entry
}

func Debug(msg string, fields ...map[string]interface{}) { withFields(fields).Debug(msg) }
func Info(msg string, fields ...map[string]interface{})  { withFields(fields).Info(msg) }
func Warn(msg string, fields ...map[string]interface{})  { withFields(fields).Warn(msg) }
func Error(msg string, fields ...map[string]interface{}) { withFields(fields).Error(msg) }

func Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { current().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { current().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }

// Fatal 输出后退出进程
func Fatal(msg string, fields ...map[string]interface{}) {
	withFields(fields).Fatal(msg)
}

// Fatalf 格式化输出后退出进程
func Fatalf(format string, args ...interface{}) {
	Fatal(fmt.Sprintf(format, args...))
}
