package service

import (
	"context"
	"strings"

	"github.com/okian/gearscan/internal/adapters/vision/gearpower"
	"github.com/okian/gearscan/internal/domain/model"
	"github.com/okian/gearscan/pkg/logger"
)

// LogSink writes every notification to the log, listing committed records
// field by field.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink returns a sink logging through l.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.NewNop()
	}
	return &LogSink{logger: l}
}

// Name implements worker.Sink.
func (s *LogSink) Name() string { return "log" }

// Deliver implements worker.Sink.
func (s *LogSink) Deliver(ctx context.Context, n model.Notification) error { //nolint:gocritic // hugeParam: sink signature
	if n.Kind == model.KindStill {
		s.logger.Info(ctx, "result screen on display",
			logger.String("occurrence", n.OccurrenceID),
			logger.Int64("msec", n.Msec),
		)
		return nil
	}
	fields := []logger.Field{
		logger.String("occurrence", n.OccurrenceID),
		logger.Int64("msec", n.Msec),
	}
	for _, f := range n.Record.Fields() {
		fields = append(fields, logger.String(f.Key, displayValue(f)))
	}
	s.logger.Info(ctx, "result screen committed", fields...)
	return nil
}

// displayValue renders ability ids with their human-readable names.
func displayValue(f model.Field) string {
	if strings.HasPrefix(f.Key, "gear ") && !strings.Contains(f.Key, "img_") {
		return gearpower.DisplayName(f.Value)
	}
	return f.Value
}
