package logging

import "context"

type contextKey int

const (
	chainIDKey contextKey = iota
	executionIDKey
)

// WithChainID returns a context that carries the chain id for log correlation.
func WithChainID(ctx context.Context, chainID string) context.Context {
	return context.WithValue(ctx, chainIDKey, chainID)
}

// GetChainID extracts the chain id from the context, if present.
func GetChainID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(chainIDKey).(string)
	return id, ok
}

// WithExecutionID returns a context that carries the execution run id.
func WithExecutionID(ctx context.Context, executionID string) context.Context {
	return context.WithValue(ctx, executionIDKey, executionID)
}

// GetExecutionID extracts the execution run id from the context, if present.
func GetExecutionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(executionIDKey).(string)
	return id, ok
}
