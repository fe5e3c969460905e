package log

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const defaultThrottlingPeriod = time.Minute

// ThrottlingLogger drops a message if the same message was written within the
// throttling period.
type ThrottlingLogger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
}

func NewThrottlingLogger(baseLogger Logger) ThrottlingLogger {
	return NewThrottlingLoggerWithPeriod(baseLogger, defaultThrottlingPeriod)
}

func NewThrottlingLoggerWithPeriod(baseLogger Logger, period time.Duration) ThrottlingLogger {
	return &throttlingLogger{
		logger: baseLogger,
		cache:  cache.New(period, period*5),
	}
}

type throttlingLogger struct {
	logger Logger
	cache  *cache.Cache
}

func (t *throttlingLogger) Trace(msg string, ctx ...interface{}) {
	t.logIfNeeded(msg, t.logger.Trace, ctx...)
}

func (t *throttlingLogger) Debug(msg string, ctx ...interface{}) {
	t.logIfNeeded(msg, t.logger.Debug, ctx...)
}

func (t *throttlingLogger) Info(msg string, ctx ...interface{}) {
	t.logIfNeeded(msg, t.logger.Info, ctx...)
}

func (t *throttlingLogger) Warn(msg string, ctx ...interface{}) {
	t.logIfNeeded(msg, t.logger.Warn, ctx...)
}

func (t *throttlingLogger) Error(msg string, ctx ...interface{}) {
	t.logIfNeeded(msg, t.logger.Error, ctx...)
}

func (t *throttlingLogger) logIfNeeded(msg string, write func(msg string, ctx ...interface{}), ctx ...interface{}) {
	// Add fails while an unexpired entry exists
	if err := t.cache.Add(msg, struct{}{}, cache.DefaultExpiration); err == nil {
		write(msg, ctx...)
	}
}
