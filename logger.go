package rstar

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with tree-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithPage adds a page field to the logger.
func (l *Logger) WithPage(id uint32) *Logger {
	return &Logger{Logger: l.Logger.With("page", id)}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, id uint32, height int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "insert completed",
			"id", id,
			"height", height,
		)
	}
}

// LogBulkLoad logs a bulk load.
func (l *Logger) LogBulkLoad(ctx context.Context, count, height int, strategy string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "bulk load failed",
			"count", count,
			"strategy", strategy,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "bulk load completed",
			"count", count,
			"height", height,
			"strategy", strategy,
		)
	}
}

// LogSplit logs a node split.
func (l *Logger) LogSplit(ctx context.Context, page, sibling uint32, axis int, left, right int) {
	l.DebugContext(ctx, "node split",
		"page", page,
		"sibling", sibling,
		"axis", axis,
		"left", left,
		"right", right,
	)
}

// LogSearch logs a range or kNN search.
func (l *Logger) LogSearch(ctx context.Context, kind string, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"kind", kind,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"kind", kind,
			"results", resultsFound,
		)
	}
}

// LogFlush logs a flush of the tree and its page file.
func (l *Logger) LogFlush(ctx context.Context, size, height int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed", "error", err)
	} else {
		l.InfoContext(ctx, "flush completed",
			"size", size,
			"height", height,
		)
	}
}
