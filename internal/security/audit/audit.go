// Package audit records who did what to which resource. Entries go to the
// structured log under a fixed "audit" marker so they can be filtered out of
// the operational stream.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger writes audit entries for mutating operations.
type Logger struct {
	log *slog.Logger
}

// NewLogger creates an audit logger on top of the given slog logger.
func NewLogger(log *slog.Logger) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log}
}

// LogAction records a single mutating action against a resource.
func (l *Logger) LogAction(ctx context.Context, actor, action, resource, resourceID, outcome string) {
	l.log.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("actor", actor),
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("outcome", outcome),
		slog.Time("at", time.Now().UTC()),
	)
}
