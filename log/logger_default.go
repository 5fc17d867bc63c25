package log

import (
	"io"
	"os"

	"github.com/nanovms/bootimage/types"
)

var defaultLogger *Logger

// Make sure default logger instantiated by default.
func init() {
	defaultLogger = New(os.Stdout)
}

// InitDefault creates default logger for package-level logging access.
func InitDefault(output io.Writer, config *types.Config) {
	defaultLogger = New(output)

	if config == nil {
		return
	}

	if config.RunConfig.ShowDebug {
		defaultLogger.SetDebug(true)
		defaultLogger.SetError(true)
		defaultLogger.SetWarn(true)
		defaultLogger.SetInfo(true)
	}

	if config.RunConfig.ShowWarnings {
		defaultLogger.SetWarn(true)
	}

	if config.RunConfig.ShowErrors {
		defaultLogger.SetError(true)
	}

	if config.RunConfig.Verbose {
		defaultLogger.SetInfo(true)
	}
}

// Step logs a pipeline stage using default logger.
func Step(format string, a ...interface{}) {
	defaultLogger.Step(format, a...)
}

// Info logs info-level formatted message using default logger.
func Info(format string, a ...interface{}) {
	defaultLogger.Infof(format, a...)
}

// Warn logs warning-level formatted message using default logger.
func Warn(format string, a ...interface{}) {
	defaultLogger.Warnf(format, a...)
}

// Errorf logs error-level formatted string message using default logger.
func Errorf(format string, a ...interface{}) {
	defaultLogger.Errorf(format, a...)
}

// Error logs error-level message using default logger.
func Error(err error) {
	defaultLogger.Error(err)
}

// Debug logs debug-level formatted message using default logger.
func Debug(format string, a ...interface{}) {
	defaultLogger.Debugf(format, a...)
}
