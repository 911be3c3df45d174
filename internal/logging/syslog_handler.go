package logging

import (
	"context"
	"log/slog"
	"strings"
)

// syslogWriter is the part of *syslog.Writer the handler needs. Each method
// sends one message at the matching priority.
type syslogWriter interface {
	Debug(m string) error
	Info(m string) error
	Notice(m string) error
	Warning(m string) error
	Err(m string) error
}

// syslogHandler renders records as single "component: message key=value"
// lines and routes them by level: debug to LOG_DEBUG, info to LOG_INFO,
// notice to LOG_NOTICE, warn to LOG_WARNING and error to LOG_ERR. The syslog
// daemon supplies the timestamp and PID.
type syslogHandler struct {
	writer syslogWriter
	level  slog.Leveler
	attrs  []kv
	groups []string
}

func newSyslogHandler(w syslogWriter, lvl slog.Leveler) slog.Handler {
	return &syslogHandler{writer: w, level: lvl}
}

func (h *syslogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *syslogHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	component, kvs := collectAttrs(h.attrs, h.groups, record)

	var b strings.Builder
	writeLine(&b, component, record.Message, kvs)
	line := b.String()

	switch {
	case record.Level >= slog.LevelError:
		return h.writer.Err(line)
	case record.Level >= slog.LevelWarn:
		return h.writer.Warning(line)
	case record.Level >= LevelNotice:
		return h.writer.Notice(line)
	case record.Level >= slog.LevelInfo:
		return h.writer.Info(line)
	default:
		return h.writer.Debug(line)
	}
}

func (h *syslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &syslogHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  withAttrs(h.attrs, h.groups, attrs),
		groups: h.groups,
	}
}

func (h *syslogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &syslogHandler{
		writer: h.writer,
		level:  h.level,
		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
}
