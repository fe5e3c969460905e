package log

import (
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
)

type Logger = log.Logger

// New returns a child of the root logger carrying ctx.
func New(ctx ...interface{}) Logger {
	return log.New(ctx...)
}

func Root() Logger {
	return log.Root()
}

// Setup installs a terminal handler writing to w at the legacy numeric verbosity
// (0 = crit ... 3 = info ... 5 = trace).
func Setup(w io.Writer, verbosity int) {
	if w == nil {
		w = os.Stderr
	}
	handler := log.NewTerminalHandlerWithLevel(w, log.FromLegacyLevel(verbosity), false)
	log.SetDefault(log.NewLogger(handler))
}

func Trace(msg string, ctx ...interface{}) { log.Root().Trace(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { log.Root().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { log.Root().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { log.Root().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { log.Root().Error(msg, ctx...) }
func Crit(msg string, ctx ...interface{})  { log.Root().Crit(msg, ctx...) }
