// Package log3 is a thin structured-logging facade over go.uber.org/zap,
// styled after the teacher's erigon-lib/log/v3: a handful of level methods
// taking a message plus alternating key/value pairs.
package log3

import (
	"go.uber.org/zap"
)

type Logger interface {
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

type zapLogger struct {
	z *zap.SugaredLogger
}

// New builds a production-configured root logger.
func New() Logger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return &zapLogger{z: z.Sugar()}
}

// Nop discards everything; used by components in tests that don't assert on
// log output.
func Nop() Logger { return &zapLogger{z: zap.NewNop().Sugar()} }

func (l *zapLogger) Debug(msg string, ctx ...interface{}) { l.z.Debugw(msg, ctx...) }
func (l *zapLogger) Info(msg string, ctx ...interface{})  { l.z.Infow(msg, ctx...) }
func (l *zapLogger) Warn(msg string, ctx ...interface{})  { l.z.Warnw(msg, ctx...) }
func (l *zapLogger) Error(msg string, ctx ...interface{}) { l.z.Errorw(msg, ctx...) }

func (l *zapLogger) New(ctx ...interface{}) Logger {
	return &zapLogger{z: l.z.With(ctx...)}
}
