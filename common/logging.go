package common

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	loggerOnce sync.Once
	singleton  *log.Logger
)

func getLogger() *log.Logger {
	loggerOnce.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: false,
			Prefix:          "gltfdump",
			Level:           log.WarnLevel,
		})
	})
	return singleton
}

// SetLogOutput redirects all log records to w.
func SetLogOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

// SetLogLevel parses level ("debug", "info", "warn", "error", "fatal") and applies it.
//
// Parameters:
//   - level: the level name
//
// Returns:
//   - error: error if the level name is unknown
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	getLogger().SetLevel(lvl)
	return nil
}

// LogDebug writes a debug record with alternating key/value pairs.
func LogDebug(msg string, keyvals ...interface{}) {
	getLogger().Debug(msg, keyvals...)
}

// LogInfo writes an info record with alternating key/value pairs.
func LogInfo(msg string, keyvals ...interface{}) {
	getLogger().Info(msg, keyvals...)
}

// LogWarn writes a warning record with alternating key/value pairs.
func LogWarn(msg string, keyvals ...interface{}) {
	getLogger().Warn(msg, keyvals...)
}

// LogError writes an error record with alternating key/value pairs.
func LogError(msg string, keyvals ...interface{}) {
	getLogger().Error(msg, keyvals...)
}
