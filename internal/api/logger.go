package api

import (
	"io"
	"os"
	"path/filepath"

	"github.com/MontyPithon/bancroff/internal/config"
	"github.com/sirupsen/logrus"
)

const logTimestampFormat = "2006-01-02T15:04:05.000Z07:00"

var defaultLogger *logrus.Logger

// NewLogger 创建带默认设置的日志记录器
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(newFormatter("json"))
	logger.SetLevel(logrus.InfoLevel)
	logger.SetOutput(os.Stdout)
	return logger
}

// NewLoggerFromConfig 根据配置创建日志记录器
// 日志带 service 字段,便于聚合系统按服务过滤
func NewLoggerFromConfig(cfg *config.LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(newFormatter(cfg.Format))

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	output, err := newOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(output)

	logger.AddHook(&defaultFieldsHook{
		fields: map[string]interface{}{"service": "bancroff"},
	})
	return logger, nil
}

// newFormatter 根据格式名构造 formatter,未知格式按文本处理
func newFormatter(format string) logrus.Formatter {
	if format == "json" {
		return &logrus.JSONFormatter{
			TimestampFormat: logTimestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "time",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "msg",
			},
		}
	}
	return &logrus.TextFormatter{
		TimestampFormat: logTimestampFormat,
		FullTimestamp:   true,
	}
}

// newOutput 根据 stdout/file/both 组合日志输出目标
func newOutput(target string) (io.Writer, error) {
	var writers []io.Writer
	if target == "stdout" || target == "both" {
		writers = append(writers, os.Stdout)
	}
	if target == "file" || target == "both" {
		if err := os.MkdirAll("logs", 0755); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(filepath.Join("logs", "bancroff.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
	}
	if len(writers) == 0 {
		return os.Stdout, nil
	}
	return io.MultiWriter(writers...), nil
}

// defaultFieldsHook 给每条日志追加固定字段
type defaultFieldsHook struct {
	fields map[string]interface{}
}

func (h *defaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *defaultFieldsHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		entry.Data[k] = v
	}
	return nil
}

// GetLogger 返回进程级默认日志记录器
func GetLogger() *logrus.Logger {
	if defaultLogger == nil {
		defaultLogger = NewLogger()
	}
	return defaultLogger
}
