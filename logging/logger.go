package logging

import (
	"io"

	"github.com/sirupsen/logrus"

	"betamax-recon/config"
)

// Logger represents a logger instance
type Logger = *logrus.Logger

// Fields represents structured logging fields
type Fields = logrus.Fields

// NewLogger creates a JSON logger with the level taken from LOG_LEVEL
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(config.GetLogLevel())
	return logger
}

// NewLoggerWithOutput is NewLogger writing to w instead of stderr.
func NewLoggerWithOutput(w io.Writer) *logrus.Logger {
	logger := NewLogger()
	logger.SetOutput(w)
	return logger
}

// Discard returns a logger that drops everything. Used when callers pass nil.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
