package observability

import "go.uber.org/zap"

// ZapSink emits events as structured zap log lines, mirroring the field
// naming the teacher repo uses for its own request/session logging.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink wraps logger. A nil logger falls back to zap.NewNop().
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (z *ZapSink) Emit(e Event) {
	fields := []zap.Field{
		zap.String("stage", e.Stage),
		zap.String("status", e.Status),
		zap.Duration("latency", e.Latency),
		zap.String("tenant", e.Tenant),
		zap.String("doc_id", e.DocID),
	}
	if e.Hash != "" {
		fields = append(fields, zap.String("hash", e.Hash))
	}
	if e.ErrorKind != "" {
		fields = append(fields, zap.String("error_kind", e.ErrorKind))
	}
	if e.Status == "error" {
		z.logger.Warn("pipeline stage failed", fields...)
		return
	}
	z.logger.Debug("pipeline stage completed", fields...)
}
