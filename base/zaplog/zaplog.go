package zaplog

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	logger atomic.Pointer[zap.Logger]
	nop    = zap.NewNop()
)

// Logger returns the registered logger, or a no-op logger if none has been
// registered yet.
func Logger() *zap.Logger {
	l := logger.Load()
	if l == nil {
		return nop
	}
	return l
}

func SetLogger(l *zap.Logger) { logger.Store(l) }
