package lspserver

import (
	"fmt"
	"io"
	"time"
)

// Logger is the narrow logging surface the server needs, in the manner
// of dingo's pkg/lsp.Logger: leveled printf-style methods over an
// io.Writer, so the CLI can point it at stderr without pulling in a
// structured-logging dependency this package doesn't otherwise need.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

func parseLevel(s string) level {
	switch s {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

type writerLogger struct {
	w   io.Writer
	min level
}

// NewLogger builds a Logger writing "[level] time message" lines to w,
// filtered to levels at or above minLevel ("debug", "info", "warn", or
// "error"; unrecognized values default to "info").
func NewLogger(minLevel string, w io.Writer) Logger {
	return &writerLogger{w: w, min: parseLevel(minLevel)}
}

func (l *writerLogger) log(lv level, tag, format string, args ...interface{}) {
	if lv < l.min {
		return
	}
	fmt.Fprintf(l.w, "%s [%s] %s\n", time.Now().Format(time.RFC3339), tag, fmt.Sprintf(format, args...))
}

func (l *writerLogger) Debugf(format string, args ...interface{}) { l.log(levelDebug, "debug", format, args...) }
func (l *writerLogger) Infof(format string, args ...interface{})  { l.log(levelInfo, "info", format, args...) }
func (l *writerLogger) Warnf(format string, args ...interface{})  { l.log(levelWarn, "warn", format, args...) }
func (l *writerLogger) Errorf(format string, args ...interface{}) { l.log(levelError, "error", format, args...) }
