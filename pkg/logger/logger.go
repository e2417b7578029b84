package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOption 日志初始化参数，由 config.LogConfig 转换而来
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 日志目录，为空时只输出到 stdout
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩轮转后的旧日志
}

const (
	logFileName = "indexer.log"
	maxSizeMB   = 256
	maxBackups  = 10
	maxAgeDays  = 7
)

var sugar atomic.Pointer[zap.SugaredLogger]

func init() {
	// Init 之前（例如单元测试）使用开发模式 logger，保证调用方无需判空
	l, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
	sugar.Store(l.Sugar())
}

// Init 根据配置初始化全局 logger，只应在 main 中调用一次
func Init(opt LogOption) error {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(opt.Level))); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.TimeKey = "ts"

	var encoder zapcore.Encoder
	switch opt.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return err
		}
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, logFileName),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   opt.Compress,
			LocalTime:  true,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zap.ErrorLevel))
	sugar.Store(l.Sugar())
	return nil
}

// L 返回底层 zap.Logger，用于需要结构化字段的场景（如 report.LogSink）
func L() *zap.Logger {
	return sugar.Load().Desugar().WithOptions(zap.AddCallerSkip(-1))
}

func Sync() {
	_ = sugar.Load().Sync()
}

func Debugf(format string, args ...any) {
	sugar.Load().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	sugar.Load().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	sugar.Load().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	sugar.Load().Errorf(format, args...)
}

func Info(msg string) {
	sugar.Load().Info(msg)
}

func Error(msg string) {
	sugar.Load().Error(msg)
}
