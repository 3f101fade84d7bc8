// Package logger wraps a shared logrus logger for the harness and its tooling
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// EnvLogLevel is the environment variable holding the log level
const EnvLogLevel = "LOG_LEVEL"

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l
}

// InitializeAndConfigure sets the JSON formatter and reads the level from LOG_LEVEL.
// Mocks run quietly (warn) unless configured otherwise.
func InitializeAndConfigure() {
	log.SetFormatter(&logrus.JSONFormatter{})
	configureLogLevel(os.Getenv(EnvLogLevel))
}

func configureLogLevel(levelStr string) {
	if levelStr == "" {
		return
	}
	level, err := logrus.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		log.Warnf("Invalid log level '%s', keeping '%s'", levelStr, log.GetLevel())
		return
	}
	log.SetLevel(level)
}

// SetLevel changes the log level
func SetLevel(level logrus.Level) {
	log.SetLevel(level)
}

// SetOutput redirects log output, mostly for tests
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// SetTextOutput switches to the human readable formatter used by the CLI
func SetTextOutput() {
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// Logger returns the underlying logrus logger
func Logger() *logrus.Logger {
	return log
}

// Debug logs a message at the debug level
func Debug(args ...interface{}) {
	log.Debug(args...)
}

// Info logs a message at the info level
func Info(args ...interface{}) {
	log.Info(args...)
}

// Warn logs a message at the warn level
func Warn(args ...interface{}) {
	log.Warn(args...)
}

// Error logs a message at the error level
func Error(args ...interface{}) {
	log.Error(args...)
}

// Debugf logs a formatted message at the debug level
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Infof logs a formatted message at the info level
func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Warnf logs a formatted message at the warn level
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Errorf logs a formatted message at the error level
func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

// DebugWithFields logs a message at the debug level with additional fields
func DebugWithFields(msg string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Debug(msg)
}

// InfoWithFields logs a message at the info level with additional fields
func InfoWithFields(msg string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Info(msg)
}

// WarnWithFields logs a message at the warn level with additional fields
func WarnWithFields(msg string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Warn(msg)
}

// ErrorWithFields logs a message at the error level with additional fields
func ErrorWithFields(msg string, fields map[string]interface{}) {
	log.WithFields(logrus.Fields(fields)).Error(msg)
}
