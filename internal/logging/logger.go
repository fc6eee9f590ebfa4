package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
)

// InitLogger 初始化 zap 日志器（支持 lumberjack 滚动文件）
func InitLogger(cfg cfgpkg.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     func(t time.Time, enc zapcore.PrimitiveArrayEncoder) { enc.AppendString(t.Format(time.RFC3339Nano)) },
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var sinks []zapcore.WriteSyncer
	switch strings.ToLower(cfg.Output) {
	case "none":
	case "stderr":
		// CLI 的 stdout 留给解析结果
		sinks = append(sinks, zapcore.Lock(os.Stderr))
	default:
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}
	if cfg.File.Filename != "" {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File.Filename,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}))
	}
	if len(sinks) == 0 {
		return zap.NewNop(), nil
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller()), nil
}
