package logger

import "context"

type loggerKey struct{}

// ToContext сохраняет логгер запроса в контексте.
func ToContext(ctx context.Context, l Logger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext возвращает логгер из контекста или fallback, если его там нет.
func FromContext(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return fallback
}
