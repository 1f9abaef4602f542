package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// logging levels
const (
	DEBUG = "DEBUG"
	INFO  = "INFO"
	WARN  = "WARN"
	ERROR = "ERROR"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, hclog.Info)
)

func newLogger(w io.Writer, level hclog.Level) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "minikafka",
		Level:  level,
		Output: w,
	})
}

func root() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) to an hclog level.
func ParseLevel(level string) (hclog.Level, error) {
	switch strings.ToUpper(level) {
	case DEBUG:
		return hclog.Debug, nil
	case INFO:
		return hclog.Info, nil
	case WARN:
		return hclog.Warn, nil
	case ERROR:
		return hclog.Error, nil
	}
	return hclog.NoLevel, fmt.Errorf("unknown log level %q", level)
}

// SetLogLevel sets the log level for filtering logs
func SetLogLevel(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	root().SetLevel(l)
	return nil
}

// SetOutput replaces the destination of the root logger. Loggers obtained through
// Named before the call keep writing to the previous destination.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, logger.GetLevel())
}

// Named returns a component logger sharing the root level.
func Named(name string) hclog.Logger {
	return root().Named(name)
}

// Log writes a log message at a specified level, formatted with optional arguments
func Log(level hclog.Level, message string, a ...any) {
	l := root()
	if l.GetLevel() > level {
		return
	}
	l.Log(level, fmt.Sprintf(message, a...))
}

// Debug logs a message at DEBUG level
func Debug(message string, a ...any) {
	Log(hclog.Debug, message, a...)
}

// Info logs a message at INFO level
func Info(message string, a ...any) {
	Log(hclog.Info, message, a...)
}

// Warn logs a message at WARN level
func Warn(message string, a ...any) {
	Log(hclog.Warn, message, a...)
}

// Error logs a message at ERROR level
func Error(message string, a ...any) {
	Log(hclog.Error, message, a...)
}

// Panic exists with a panic
func Panic(message string, a ...any) {
	panic(fmt.Sprintf(message, a...))
}
