package crawler

import (
	"ormosbot/log"
)

type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type ZeroLogger struct{}

func (l *ZeroLogger) Info(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func (l *ZeroLogger) Warn(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}

func (l *ZeroLogger) Error(format string, args ...any) {
	log.Error().Msgf(format, args...)
}

type DummyLogger struct {
	entries []logEntry
}

type logLevel int

const (
	logLevelInfo logLevel = iota
	logLevelWarn
	logLevelError
)

type logEntry struct {
	Level  logLevel
	Format string
	Args   []any
}

func NewDummyLogger() *DummyLogger {
	return &DummyLogger{
		entries: nil,
	}
}

func (d *DummyLogger) Info(format string, args ...any) {
	d.log(logLevelInfo, format, args)
}

func (d *DummyLogger) Warn(format string, args ...any) {
	d.log(logLevelWarn, format, args)
}

func (d *DummyLogger) Error(format string, args ...any) {
	d.log(logLevelError, format, args)
}

func (d *DummyLogger) log(level logLevel, format string, args []any) {
	d.entries = append(d.entries, logEntry{
		Level:  level,
		Format: format,
		Args:   args,
	})
}
