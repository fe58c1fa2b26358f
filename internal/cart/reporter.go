package cart

import "go.uber.org/zap"

// ErrorReporter receives sync failures. The UI equivalent is a
// transient notification; here the default implementation logs them.
type ErrorReporter interface {
	ReportError(op string, err error)
}

type zapReporter struct {
	log *zap.Logger
}

func NewZapReporter(log *zap.Logger) ErrorReporter {
	return zapReporter{log: log}
}

func (r zapReporter) ReportError(op string, err error) {
	r.log.Error("cart operation failed", zap.String("op", op), zap.Error(err))
}

type NopReporter struct{}

func (NopReporter) ReportError(string, error) {}
