package log

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

/*
log implements context-based logging on the slog structured logging package.
The CLI logs through these functions. AddTags attaches
key-value pairs to a context that are then included in all descendent logging
calls, which we use to tag everything related to one log source with its path.
*/

////////////////////////////////////////////////////////////////////////////////

type contextKey int

const (
	logTagKey contextKey = iota
)

// AddTags adds key-value pairs to the log context.
func AddTags(ctx context.Context, kvs ...any) context.Context {
	if len(kvs)%2 != 0 {
		panic("log: AddTags requires an even number of arguments")
	}
	value := ctx.Value(logTagKey)
	tags := []any{}
	if value != nil {
		tagsValue, ok := value.([]any)
		if !ok {
			panic("log: invalid log tags value")
		}
		tags = append(tags, tagsValue...)
	}
	return context.WithValue(
		ctx,
		logTagKey,
		append(tags, kvs...),
	)
}

func fromContext(ctx context.Context) []any {
	tags, _ := ctx.Value(logTagKey).([]any)
	return tags
}

func levelf(ctx context.Context, level slog.Level, format string, args ...any) {
	var pcs [1]uintptr
	runtime.Callers(2, pcs[:])
	r := slog.NewRecord(time.Now(), level, fmt.Sprintf(format, args...), pcs[0])
	tags := fromContext(ctx)
	for i := 0; i < len(tags); i += 2 {
		key, ok := tags[i].(string)
		if !ok {
			panic("log: invalid log tag key")
		}
		r.Add(key, tags[i+1])
	}
	handler := slog.Default().Handler()
	if handler.Enabled(ctx, level) {
		if err := handler.Handle(ctx, r); err != nil {
			slog.ErrorContext(ctx, "error handling log record", "error", err)
		}
	}
}

// Infof logs a message with some additional context.
func Infof(ctx context.Context, format string, args ...any) {
	levelf(ctx, slog.LevelInfo, format, args...)
}

// Errorf logs an error message with some additional context.
func Errorf(ctx context.Context, format string, args ...any) {
	levelf(ctx, slog.LevelError, format, args...)
}

// Debugf logs a debug message with some additional context.
func Debugf(ctx context.Context, format string, args ...any) {
	levelf(ctx, slog.LevelDebug, format, args...)
}

// Warnf logs a warning message with some additional context.
func Warnf(ctx context.Context, format string, args ...any) {
	levelf(ctx, slog.LevelWarn, format, args...)
}
