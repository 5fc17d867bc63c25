package log

import (
	"fmt"
	"io"
	"strings"
)

// Logger filters and prints messages to a destination
type Logger struct {
	output io.Writer
	colors bool
	info   bool
	warn   bool
	error  bool
	debug  bool
}

// New returns an instance of Logger with colours enabled and every optional
// level off.
func New(output io.Writer) *Logger {
	return &Logger{output: output, colors: true}
}

// SetColors enables/disables ANSI colours
func (l *Logger) SetColors(value bool) {
	l.colors = value
}

// SetInfo activates/deactivates info level
func (l *Logger) SetInfo(value bool) {
	l.info = value
}

// SetWarn activates/deactivates warn level
func (l *Logger) SetWarn(value bool) {
	l.warn = value
}

// SetError activates/deactivates error level
func (l *Logger) SetError(value bool) {
	l.error = value
}

// SetDebug activates/deactivates debug level
func (l *Logger) SetDebug(value bool) {
	l.debug = value
}

// Logf writes a formatted message to the specified output
func (l *Logger) Logf(format string, a ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format = format + "\n"
	}
	fmt.Fprintf(l.output, format, a...)
}

// Log writes message to the specified output
func (l *Logger) Log(a ...interface{}) {
	fmt.Fprintln(l.output, a...)
}

func (l *Logger) paint(color, msg string) string {
	if !l.colors {
		return msg
	}
	return color + msg + ConsoleColors.Reset()
}

func (l *Logger) logWithColor(color string, a ...interface{}) {
	msg := strings.TrimSuffix(fmt.Sprintln(a...), "\n")
	l.Log(l.paint(color, msg))
}

func (l *Logger) logfWithColor(color, format string, a ...interface{}) {
	msg := strings.TrimSuffix(fmt.Sprintf(format, a...), "\n")
	l.Log(l.paint(color, msg))
}

// Step prints a pipeline stage line. Steps are always shown.
func (l *Logger) Step(format string, a ...interface{}) {
	l.logfWithColor(ConsoleColors.Green(), format, a...)
}

// Info checks info level is activated to write the message
func (l *Logger) Info(a ...interface{}) {
	if l.info {
		l.logWithColor(ConsoleColors.Blue(), a...)
	}
}

// Infof checks info level is activated to write the formatted message
func (l *Logger) Infof(format string, a ...interface{}) {
	if l.info {
		l.logfWithColor(ConsoleColors.Blue(), format, a...)
	}
}

// Warn checks warn level is activated to write the message
func (l *Logger) Warn(a ...interface{}) {
	if l.warn {
		l.logWithColor(ConsoleColors.Yellow(), a...)
	}
}

// Warnf checks warn level is activated to write the formatted message
func (l *Logger) Warnf(format string, a ...interface{}) {
	if l.warn {
		l.logfWithColor(ConsoleColors.Yellow(), format, a...)
	}
}

// Error checks error level is activated to write error object
func (l *Logger) Error(err error) {
	if l.error {
		l.logWithColor(ConsoleColors.Red(), err.Error())
	}
}

// Errorf checks error level is activated to write the formatted message
func (l *Logger) Errorf(format string, a ...interface{}) {
	if l.error {
		l.logfWithColor(ConsoleColors.Red(), format, a...)
	}
}

// Debug checks debug level is activated to write the message
func (l *Logger) Debug(a ...interface{}) {
	if l.debug {
		l.logWithColor(ConsoleColors.Cyan(), a...)
	}
}

// Debugf checks debug level is activated to write the message
func (l *Logger) Debugf(format string, a ...interface{}) {
	if l.debug {
		l.logfWithColor(ConsoleColors.Cyan(), format, a...)
	}
}
