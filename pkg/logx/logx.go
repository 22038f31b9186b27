// Package logx 是对 zap 的轻量封装，统一各模块的结构化日志出口。
package logx

import (
	"strings"

	"go.uber.org/zap"
)

// Logger 封装 zap.SugaredLogger，暴露 key/value 风格的接口。
type Logger struct {
	sugar *zap.SugaredLogger
}

// New 按运行模式创建 Logger。
//   - "prod" / "production": JSON 输出，Info 级别
//   - 其他: console 输出，Debug 级别
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zl.Sugar()}, nil
}

// Nop 返回丢弃全部输出的 Logger，测试和未配置日志的场景用。
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Sync 刷新缓冲区，进程退出前调用。
func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

// With 返回携带固定字段的子 Logger。
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}
