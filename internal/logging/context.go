package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a record for filtering, e.g. "dispatch_failed".
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the consequence of a warning.
	FieldImpact = "impact"
	// FieldDispatchID correlates every record produced while handling one report.
	FieldDispatchID = "dispatch_id"
	// FieldWatchDir is the crash directory being watched.
	FieldWatchDir = "watch_dir"
	// FieldReportPath is the absolute path of a crash report.
	FieldReportPath = "report_path"
	// FieldMask and FieldMaskValue carry an inotify mask as names and as a number.
	FieldMask      = "mask"
	FieldMaskValue = "mask_value"
	// FieldPID identifies a process found or spawned.
	FieldPID = "pid"
)

// Event types shared across packages.
const (
	EventLoggingFallback = "logging_fallback"
	EventGuardConflict   = "guard_conflict"
	EventWatchSubscribe  = "watch_subscribe"
	EventWatchRead       = "watch_read"
	EventWatchOverflow   = "watch_overflow"
	EventWatchLost       = "watch_lost"
	EventDispatch        = "dispatch"
	EventDispatchFailed  = "dispatch_failed"
)

type dispatchIDKey struct{}

// WithDispatchID stores a dispatch correlation identifier on ctx.
func WithDispatchID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, dispatchIDKey{}, id)
}

// DispatchIDFromContext returns the identifier stored by WithDispatchID.
func DispatchIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(dispatchIDKey{}).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if id, ok := DispatchIDFromContext(ctx); ok {
		return []slog.Attr{slog.String(FieldDispatchID, id)}
	}
	return nil
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
