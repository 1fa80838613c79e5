package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/born-ml/statedict/internal/ctxlog"
)

// gormLog forwards GORM output to the slog logger carried by the context.
// Statements run at Debug, slow statements at Warn.
type gormLog struct {
	slow time.Duration
}

func newGormLog() gormLogger.Interface {
	return &gormLog{slow: 300 * time.Millisecond}
}

func (l *gormLog) LogMode(gormLogger.LogLevel) gormLogger.Interface {
	return l
}

func (l *gormLog) Info(ctx context.Context, msg string, data ...any) {
	ctxlog.FromContext(ctx).InfoContext(ctx, fmt.Sprintf(msg, data...), "component", "gorm")
}

func (l *gormLog) Warn(ctx context.Context, msg string, data ...any) {
	ctxlog.FromContext(ctx).WarnContext(ctx, fmt.Sprintf(msg, data...), "component", "gorm")
}

func (l *gormLog) Error(ctx context.Context, msg string, data ...any) {
	ctxlog.FromContext(ctx).ErrorContext(ctx, fmt.Sprintf(msg, data...), "component", "gorm")
}

func (l *gormLog) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	logger := ctxlog.FromContext(ctx)
	elapsed := time.Since(begin)

	level := slog.LevelDebug
	msg := "SQL statement."
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		level = slog.LevelError
		msg = "SQL statement failed."
	case l.slow > 0 && elapsed > l.slow:
		level = slog.LevelWarn
		msg = "Slow SQL statement."
	}
	if !logger.Enabled(ctx, level) {
		return
	}

	sql, rows := fc()
	attrs := []any{"component", "gorm", "elapsed", elapsed, "sql", sql}
	if rows >= 0 {
		attrs = append(attrs, "rows", rows)
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	logger.Log(ctx, level, msg, attrs...)
}
