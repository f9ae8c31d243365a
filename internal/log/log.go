package log

import (
	"io"
	"os"
	"sync"
)

type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

var (
	mu     sync.RWMutex
	logger Logger
)

func init() {
	l, err := New(DefaultConfig(), os.Stderr)
	if err != nil {
		panic(err)
	}
	logger = l
}

func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Init replaces the process logger. Console output always goes to stdout; a file
// appender is added when cfg.File.Filename is set.
func Init(cfg Config) error {
	out := NewMultiWriter().Add(os.Stdout)
	if cfg.File.Filename != "" {
		out.AddFileAppender(cfg.File)
	}
	l, err := New(cfg, out)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// New builds a standalone logger writing to w.
func New(cfg Config, w io.Writer) (Logger, error) {
	return newLogrusAdapter(cfg, w)
}
