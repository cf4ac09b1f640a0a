package logging

import (
	"context"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	deviceIDKey  contextKey = "device_id"
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, falls back to global
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey).(*Logger); ok {
		return logger
	}
	return global
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithDeviceID adds the authenticated device ID to the context
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// contextFields extracts logging fields from context
func contextFields(ctx context.Context) []interface{} {
	var fields []interface{}

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	if deviceID, ok := ctx.Value(deviceIDKey).(string); ok && deviceID != "" {
		fields = append(fields, "device_id", deviceID)
	}

	return fields
}

// InfoCtx logs an info message enriched with context fields
func InfoCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Info(msg, append(contextFields(ctx), fields...)...)
}

// WarnCtx logs a warning message enriched with context fields
func WarnCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Warn(msg, append(contextFields(ctx), fields...)...)
}

// ErrorCtx logs an error message enriched with context fields
func ErrorCtx(ctx context.Context, msg string, fields ...interface{}) {
	FromContext(ctx).Error(msg, append(contextFields(ctx), fields...)...)
}
