package app

import (
	"context"

	"go.uber.org/zap"
)

// EventEmitter tells the host about things that happened outside its own
// calls: saves, reloads and MCP edits.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes events to the log. Used when no frontend is attached.
type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	return &LogEmitter{logger: logger.Named("events")}
}

func (e *LogEmitter) Emit(_ context.Context, event string, data any) {
	e.logger.Info(event, zap.Any("data", data))
}
