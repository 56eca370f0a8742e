package diag

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink receives diagnostic records. Implementations must not block
// for long, as they are called from the relay's read loops.
type Sink interface {
	Report(Record)
}

type SinkFunc func(Record)

func (f SinkFunc) Report(r Record) {
	f(r)
}

// Nop discards all records.
var Nop Sink = SinkFunc(func(Record) {})

type multiSink []Sink

// Multi reports every record to all sinks, stamping it first.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) Report(r Record) {
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	for _, s := range m {
		s.Report(r)
	}
}

// LogSink writes records to a zap logger.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("diag")}
}

func (s *LogSink) Report(r Record) {
	fields := []zap.Field{
		zap.String("kind", string(r.Kind)),
		zap.String("session", r.Session),
	}
	if r.Stream != "" {
		fields = append(fields, zap.String("stream", r.Stream))
	}
	if r.Exit != nil {
		fields = append(fields, zap.Stringer("exit", r.Exit))
	}
	if r.Err != nil {
		fields = append(fields, zap.Error(r.Err))
	}

	s.log.Log(levelFor(r), r.Message, fields...)
}

func levelFor(r Record) zapcore.Level {
	switch r.Kind {
	case KindSpawnFailure, KindRelayError:
		return zap.ErrorLevel
	case KindTerminated:
		if r.Exit != nil && r.Exit.Success() {
			return zap.InfoLevel
		}
		return zap.WarnLevel
	default:
		return zap.WarnLevel
	}
}
